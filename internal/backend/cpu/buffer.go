package cpu

import (
	"github.com/born-ml/grad/internal/tensor"
)

// Buffer is a host-resident tensor.Buffer.
type Buffer struct {
	arr   *tensor.Array
	shape tensor.Shape
	dtype tensor.DataType
	refs  tensor.RefCount
}

func newBuffer(a *tensor.Array) *Buffer {
	b := &Buffer{arr: a, shape: a.Shape(), dtype: a.DType()}
	b.refs.Init(func() { b.arr = nil })
	return b
}

// Shape returns the buffer shape.
func (b *Buffer) Shape() tensor.Shape { return b.shape }

// DType returns the element type.
func (b *Buffer) DType() tensor.DataType { return b.dtype }

// Device returns tensor.CPU.
func (b *Buffer) Device() tensor.Device { return tensor.CPU }

// ToHost returns a copy of the contents.
func (b *Buffer) ToHost() (*tensor.Array, error) {
	if b.arr == nil {
		return nil, tensor.ErrReleased
	}
	return b.arr.Clone(), nil
}

// Retain adds a reference.
func (b *Buffer) Retain() tensor.Buffer {
	b.refs.Inc()
	return b
}

// Release drops a reference.
func (b *Buffer) Release() {
	b.refs.Dec()
}

// Refs returns the number of live references.
func (b *Buffer) Refs() int {
	return b.refs.Refs()
}
