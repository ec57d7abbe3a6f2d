package autograd

import (
	"fmt"

	"github.com/born-ml/grad/internal/tensor"
)

// Operation is one node of the computation graph: a forward transform from
// input buffers to an output buffer and a backward transform from the output
// gradient to one gradient per input.
//
// An Operation value is single-use. Its factory builds a fresh value for every
// call, Forward runs exactly once, and Backward runs at most once per reverse
// pass. State needed by Backward (inputs, masks, shapes) lives on the value
// itself, usually through an embedded Saved.
type Operation interface {
	// Forward computes the output from the input storages. It must not mutate
	// the inputs. The returned buffer carries one reference that the caller owns.
	Forward(inputs ...tensor.Buffer) (tensor.Buffer, error)

	// Backward returns the gradient with respect to every input, in input
	// order, even for single-input operations. Each returned buffer carries
	// one reference that the caller owns; an operation that hands back grad
	// itself must Retain it first.
	Backward(grad tensor.Buffer) ([]tensor.Buffer, error)
}

// SavedReleaser is implemented by operations that hold buffer references
// between Forward and Backward. The graph calls ReleaseSaved when the
// operation is dropped.
type SavedReleaser interface {
	ReleaseSaved()
}

// Saved holds values captured during Forward for use in Backward.
// Embed it in an Operation to get Save, SavedValues and ReleaseSaved.
type Saved struct {
	values []tensor.Buffer
}

// Save retains and appends values.
func (s *Saved) Save(values ...tensor.Buffer) {
	for _, v := range values {
		s.values = append(s.values, v.Retain())
	}
}

// SavedValues returns the saved buffers in Save order.
func (s *Saved) SavedValues() []tensor.Buffer {
	return s.values
}

// ReleaseSaved drops every saved reference.
func (s *Saved) ReleaseSaved() {
	for _, v := range s.values {
		v.Release()
	}
	s.values = nil
}

// Attrs carries keyword arguments for an operation factory.
type Attrs map[string]any

// Float returns attribute key as float64, or def when it is absent.
func (a Attrs) Float(key string, def float64) (float64, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("%w: %s is %T", ErrInvalidAttr, key, v)
	}
}

// Bool returns attribute key as bool, or def when it is absent.
func (a Attrs) Bool(key string, def bool) (bool, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is %T", ErrInvalidAttr, key, v)
	}
	return b, nil
}

// Factory builds a fresh Operation for one call.
type Factory func(attrs Attrs) (Operation, error)

// OpType names an Operation and how to build it.
type OpType struct {
	// Name is the type name; it is lowercased on registration ("ReLU" -> "relu").
	Name string
	New  Factory
}

// releaseOp drops the saved references of an operation, if it has any.
func releaseOp(op Operation) {
	if r, ok := op.(SavedReleaser); ok {
		r.ReleaseSaved()
	}
}
