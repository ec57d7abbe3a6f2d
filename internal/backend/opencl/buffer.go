//go:build opencl

package opencl

import (
	"gitlab.com/microo8/blackcl"

	"github.com/born-ml/grad/internal/tensor"
)

// Buffer is a float32 tensor.Buffer held in an OpenCL vector.
type Buffer struct {
	ctx   *Context
	vec   *blackcl.Vector
	shape tensor.Shape
	refs  tensor.RefCount
}

func newBuffer(ctx *Context, vec *blackcl.Vector, shape tensor.Shape) *Buffer {
	b := &Buffer{ctx: ctx, vec: vec, shape: shape.Clone()}
	b.refs.Init(func() {
		b.vec.Release()
		b.vec = nil
	})
	return b
}

// Shape returns the buffer shape.
func (b *Buffer) Shape() tensor.Shape { return b.shape }

// DType returns tensor.Float32, the only type OpenCL buffers hold.
func (b *Buffer) DType() tensor.DataType { return tensor.Float32 }

// Device returns tensor.OpenCL.
func (b *Buffer) Device() tensor.Device { return tensor.OpenCL }

// ToHost reads the vector back.
func (b *Buffer) ToHost() (*tensor.Array, error) {
	if b.vec == nil {
		return nil, tensor.ErrReleased
	}
	data, err := b.vec.Data()
	if err != nil {
		return nil, err
	}
	bytesTransferred.WithLabelValues("to_host").Add(float64(len(data) * 4))
	return tensor.ArrayFromFloat32(data, b.shape)
}

// Retain adds a reference and returns b.
func (b *Buffer) Retain() tensor.Buffer {
	b.refs.Inc()
	return b
}

// Release drops a reference; device memory is freed with the last one.
func (b *Buffer) Release() {
	b.refs.Dec()
}
