// Package cpu implements the host backend. Float kernels go through gonum's
// BLAS where one applies; the rest are plain loops over tensor.Array data.
package cpu

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/autograd/ops"
	"github.com/born-ml/grad/internal/tensor"
)

// CPUBackend allocates Buffers in host memory.
type CPUBackend struct{}

// New creates a new CPU backend.
func New() *CPUBackend {
	log.Debug().Msg("cpu backend ready")
	return &CPUBackend{}
}

// Ops returns the operation types this backend runs, ready for a Registry.
func Ops(b *CPUBackend) []autograd.OpType {
	return ops.Library(b)
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns tensor.CPU.
func (cpu *CPUBackend) Device() tensor.Device {
	return tensor.CPU
}

// FromHost copies a into a new buffer.
func (cpu *CPUBackend) FromHost(a *tensor.Array) (tensor.Buffer, error) {
	if a == nil {
		return nil, fmt.Errorf("cpu: from host: %w: nil array", tensor.ErrInvalidShape)
	}
	if err := a.Shape().Validate(); err != nil {
		return nil, err
	}
	return newBuffer(a.Clone()), nil
}

// Empty allocates a zero-filled buffer.
func (cpu *CPUBackend) Empty(shape tensor.Shape, dtype tensor.DataType) (tensor.Buffer, error) {
	a, err := tensor.NewArray(shape, dtype)
	if err != nil {
		return nil, err
	}
	return newBuffer(a), nil
}

// Full allocates a buffer with every element set to v.
func (cpu *CPUBackend) Full(shape tensor.Shape, dtype tensor.DataType, v float64) (tensor.Buffer, error) {
	a, err := tensor.FullArray(shape, dtype, v)
	if err != nil {
		return nil, err
	}
	return newBuffer(a), nil
}

// Clone copies b into a new buffer.
func (cpu *CPUBackend) Clone(b tensor.Buffer) (tensor.Buffer, error) {
	a, err := array(b)
	if err != nil {
		return nil, err
	}
	return newBuffer(a.Clone()), nil
}

// Accumulate adds src into dst in place.
func (cpu *CPUBackend) Accumulate(dst, src tensor.Buffer) error {
	if err := tensor.CheckSameLayout("accumulate", dst, src); err != nil {
		return err
	}
	d, err := array(dst)
	if err != nil {
		return err
	}
	s, err := array(src)
	if err != nil {
		return err
	}

	n := d.NumElements()
	switch d.DType() {
	case tensor.Float32:
		blas32.Axpy(1,
			blas32.Vector{N: n, Inc: 1, Data: s.AsFloat32()},
			blas32.Vector{N: n, Inc: 1, Data: d.AsFloat32()})
	case tensor.Float64:
		blas64.Axpy(1,
			blas64.Vector{N: n, Inc: 1, Data: s.AsFloat64()},
			blas64.Vector{N: n, Inc: 1, Data: d.AsFloat64()})
	case tensor.Int32:
		addInto(d.AsInt32(), s.AsInt32())
	case tensor.Int64:
		addInto(d.AsInt64(), s.AsInt64())
	default:
		return fmt.Errorf("accumulate: %w: %s", tensor.ErrUnsupportedDType, d.DType())
	}
	return nil
}

func addInto[T int32 | int64](dst, src []T) {
	for i, v := range src {
		dst[i] += v
	}
}

// array unwraps a CPU buffer.
func array(b tensor.Buffer) (*tensor.Array, error) {
	cb, ok := b.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("cpu: %w: %s buffer", tensor.ErrDeviceMismatch, b.Device())
	}
	if cb.arr == nil {
		return nil, tensor.ErrReleased
	}
	return cb.arr, nil
}
