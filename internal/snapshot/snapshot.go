// Package snapshot encodes the values and gradients of named tensors as CBOR,
// so a run can be inspected or compared offline.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"

	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/tensor"
)

// ErrCorrupt is returned by Decode for structurally invalid snapshots.
var ErrCorrupt = errors.New("snapshot: corrupt entry")

// Entry is one tensor in a snapshot. Values are widened to float64.
type Entry struct {
	Name  string    `cbor:"name"`
	DType string    `cbor:"dtype"`
	Shape []int     `cbor:"shape"`
	Data  []float64 `cbor:"data"`
	Grad  []float64 `cbor:"grad,omitempty"`
}

// Snapshot is an ordered list of entries.
type Snapshot struct {
	Backend string  `cbor:"backend"`
	Entries []Entry `cbor:"entries"`
}

// Capture copies the values and, where tracked, gradients of ts to the host.
func Capture(backend string, ts ...*autograd.Tensor) (*Snapshot, error) {
	s := &Snapshot{Backend: backend, Entries: make([]Entry, 0, len(ts))}
	for _, t := range ts {
		v, err := t.Value()
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", t.Name(), err)
		}
		e := Entry{
			Name:  t.Name(),
			DType: v.DType().String(),
			Shape: v.Shape().Clone(),
			Data:  v.Float64s(),
		}
		if t.RequiresGrad() {
			g, err := t.Grad()
			if err != nil {
				return nil, fmt.Errorf("snapshot %s: %w", t.Name(), err)
			}
			e.Grad = g.Float64s()
		}
		s.Entries = append(s.Entries, e)
	}
	return s, nil
}

// Encode writes s as CBOR.
func Encode(w io.Writer, s *Snapshot) error {
	return cbor.NewEncoder(w).Encode(s)
}

// Decode reads a snapshot and checks every entry against its shape.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	for _, e := range s.Entries {
		if _, err := e.Array(); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// Array rebuilds the entry's value as a host array.
func (e Entry) Array() (*tensor.Array, error) {
	dt, err := tensor.ParseDataType(e.DType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, e.Name, err)
	}
	if err := e.checkShape(); err != nil {
		return nil, err
	}
	a, err := tensor.ArrayOf(e.Data, tensor.Shape(e.Shape), dt)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, e.Name, err)
	}
	if e.Grad != nil && len(e.Grad) != len(e.Data) {
		return nil, fmt.Errorf("%w: %s: %d grad values for %d elements", ErrCorrupt, e.Name, len(e.Grad), len(e.Data))
	}
	return a, nil
}

// checkShape requires every dimension to be non-negative and their product,
// computed without overflow, to match the stored values.
func (e Entry) checkShape() error {
	n := 1
	for _, d := range e.Shape {
		if d < 0 {
			return fmt.Errorf("%w: %s: negative dimension in %v", ErrCorrupt, e.Name, e.Shape)
		}
		if d > 0 && n > math.MaxInt/d {
			return fmt.Errorf("%w: %s: shape %v overflows", ErrCorrupt, e.Name, e.Shape)
		}
		n *= d
	}
	if n != len(e.Data) {
		return fmt.Errorf("%w: %s: shape %v holds %d elements, got %d values", ErrCorrupt, e.Name, e.Shape, n, len(e.Data))
	}
	return nil
}

// Lookup returns the entry with the given name.
func (s *Snapshot) Lookup(name string) (Entry, bool) {
	for _, e := range s.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
