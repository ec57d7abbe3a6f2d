package autograd

import (
	"fmt"
	"math"

	"github.com/born-ml/grad/internal/tensor"
)

// Call applies the registered operation name with t as the first input.
//
// Arguments may be *Tensor values of the same graph, Go numbers and slices
// (float64, float32, int, []float32, []float64) or *tensor.Array values. Non-tensor
// arguments become leaf tensors that do not require gradients, with the dtype
// of the first tensor argument; numbers get shape [1]. An Attrs argument is
// passed to the operation factory instead of being used as an input.
func (t *Tensor) Call(name string, args ...any) (*Tensor, error) {
	return t.g.Call(name, append([]any{t}, args...)...)
}

// Call applies the registered operation name to args. See Tensor.Call for the
// accepted argument kinds.
func (g *Graph) Call(name string, args ...any) (*Tensor, error) {
	typ, ok := g.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, name)
	}

	dtype := tensor.Float32
	for _, a := range args {
		if in, ok := a.(*Tensor); ok {
			n, err := g.node(in)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", typ.Name, err)
			}
			dtype = n.storage.DType()
			break
		}
	}

	var attrs Attrs
	inputs := make([]*Tensor, 0, len(args))
	for i, a := range args {
		if kw, ok := a.(Attrs); ok {
			if attrs != nil {
				return nil, fmt.Errorf("%s: %w: more than one Attrs argument", typ.Name, ErrBadArgument)
			}
			attrs = kw
			continue
		}
		in, err := g.wrap(a, dtype)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", typ.Name, i, err)
		}
		inputs = append(inputs, in)
	}
	return g.ApplyType(typ, attrs, inputs...)
}

// wrap turns a dispatch argument into a tensor of this graph.
func (g *Graph) wrap(a any, dtype tensor.DataType) (*Tensor, error) {
	var values []float64
	switch v := a.(type) {
	case *Tensor:
		return v, nil
	case *tensor.Array:
		return g.NewTensor(v, false, "")
	case float64:
		values = []float64{v}
	case float32:
		values = []float64{float64(v)}
	case int:
		values = []float64{float64(v)}
	case []float64:
		values = v
	case []float32:
		values = make([]float64, len(v))
		for i, x := range v {
			values[i] = float64(x)
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrBadArgument, a)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty slice", ErrBadArgument)
	}
	if dtype == tensor.Int32 || dtype == tensor.Int64 {
		for _, v := range values {
			if v != math.Trunc(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: %v is not an integer for a %s tensor", ErrBadArgument, v, dtype)
			}
		}
	}

	arr, err := tensor.ArrayOf(values, tensor.Shape{len(values)}, dtype)
	if err != nil {
		return nil, err
	}
	return g.NewTensor(arr, false, "")
}

// ReLU applies max(x, 0).
func (t *Tensor) ReLU() (*Tensor, error) {
	return t.Call("relu")
}

// Add returns t + other with broadcasting.
func (t *Tensor) Add(other any) (*Tensor, error) {
	return t.Call("add", other)
}

// Sub returns t - other with broadcasting.
func (t *Tensor) Sub(other any) (*Tensor, error) {
	return t.Call("sub", other)
}

// Mul returns t * other elementwise with broadcasting.
func (t *Tensor) Mul(other any) (*Tensor, error) {
	return t.Call("mul", other)
}

// Pow raises every element to a constant exponent.
func (t *Tensor) Pow(exponent float64) (*Tensor, error) {
	return t.Call("pow", Attrs{"exponent": exponent})
}

// MatMul returns the matrix product of two 2-D tensors.
func (t *Tensor) MatMul(other any) (*Tensor, error) {
	return t.Call("matmul", other)
}

// Sum reduces every element to a shape [1] tensor.
func (t *Tensor) Sum() (*Tensor, error) {
	return t.Call("sum")
}

// Must panics if err is non-nil and returns t otherwise.
//
//	y := autograd.Must(autograd.Must(x.ReLU()).Add(1.0))
func Must(t *Tensor, err error) *Tensor {
	if err != nil {
		panic(err)
	}
	return t
}
