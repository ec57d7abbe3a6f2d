//go:build windows

package webgpu

import (
	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/grad/internal/tensor"
)

// Buffer is a float32 tensor.Buffer resident in WebGPU device memory.
type Buffer struct {
	ctx   *Context
	buf   *wgpu.Buffer
	shape tensor.Shape
	size  uint64
	refs  tensor.RefCount
}

func newBuffer(ctx *Context, buf *wgpu.Buffer, shape tensor.Shape) *Buffer {
	b := &Buffer{
		ctx:   ctx,
		buf:   buf,
		shape: shape.Clone(),
		size:  uint64(shape.NumElements() * tensor.Float32.Size()),
	}
	b.refs.Init(func() {
		b.buf.Release()
		b.buf = nil
	})
	return b
}

// Shape returns the buffer shape.
func (b *Buffer) Shape() tensor.Shape { return b.shape }

// DType returns tensor.Float32, the only type WebGPU buffers hold.
func (b *Buffer) DType() tensor.DataType { return tensor.Float32 }

// Device returns tensor.WebGPU.
func (b *Buffer) Device() tensor.Device { return tensor.WebGPU }

// ToHost waits for pending work on the queue and reads the buffer back.
func (b *Buffer) ToHost() (*tensor.Array, error) {
	if b.buf == nil {
		return nil, tensor.ErrReleased
	}
	data, err := b.ctx.read(b.buf, b.size)
	if err != nil {
		return nil, err
	}
	a, err := tensor.NewArray(b.shape, tensor.Float32)
	if err != nil {
		return nil, err
	}
	copy(a.Bytes(), data)
	return a, nil
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

func (b *Buffer) binding() binding {
	return binding{buf: b.buf, size: b.size}
}
