//go:build windows

package webgpu

import (
	"fmt"
	"math"

	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/autograd/ops"
	"github.com/born-ml/grad/internal/tensor"
)

// Backend allocates Buffers on a Context's device and runs the relu and add
// kernels there.
type Backend struct {
	ctx *Context
}

// New creates a backend over ctx. Several backends may share one context.
func New(ctx *Context) *Backend {
	return &Backend{ctx: ctx}
}

// Ops returns the operation types this backend runs.
func Ops(b *Backend) []autograd.OpType {
	return ops.Library(b)
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return fmt.Sprintf("WebGPU (%s %s)", b.ctx.info.Name, b.ctx.info.VendorName)
}

// Device returns tensor.WebGPU.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

func checkDType(dt tensor.DataType) error {
	if dt != tensor.Float32 {
		return fmt.Errorf("webgpu: %w: %s (float32 only)", tensor.ErrUnsupportedDType, dt)
	}
	return nil
}

// FromHost uploads a float32 array.
func (b *Backend) FromHost(a *tensor.Array) (tensor.Buffer, error) {
	if err := checkDType(a.DType()); err != nil {
		return nil, err
	}
	return newBuffer(b.ctx, b.ctx.upload(a.Bytes()), a.Shape()), nil
}

// Empty allocates a zero-filled buffer.
func (b *Backend) Empty(shape tensor.Shape, dtype tensor.DataType) (tensor.Buffer, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if err := checkDType(dtype); err != nil {
		return nil, err
	}
	return newBuffer(b.ctx, b.ctx.alloc(uint64(shape.NumElements()*4)), shape), nil
}

// Full allocates a buffer and fills it on the device.
func (b *Backend) Full(shape tensor.Shape, dtype tensor.DataType, v float64) (tensor.Buffer, error) {
	out, err := b.Empty(shape, dtype)
	if err != nil {
		return nil, err
	}
	if v == 0 {
		return out, nil
	}
	ob := out.(*Buffer)
	n := shape.NumElements()
	params := b.ctx.uniform(uint32(n), math.Float32bits(float32(v)))
	defer params.Release()
	if err := b.ctx.dispatch("fill", n, ob.binding(), binding{params, 16}); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// Clone copies a buffer on the device.
func (b *Backend) Clone(src tensor.Buffer) (tensor.Buffer, error) {
	s, err := b.buffer(src)
	if err != nil {
		return nil, err
	}
	return newBuffer(b.ctx, b.ctx.copyBuffer(s.buf, s.size), s.shape), nil
}

// Accumulate adds src into dst on the device.
func (b *Backend) Accumulate(dst, src tensor.Buffer) error {
	if err := tensor.CheckSameLayout("accumulate", dst, src); err != nil {
		return err
	}
	d, err := b.buffer(dst)
	if err != nil {
		return err
	}
	s, err := b.buffer(src)
	if err != nil {
		return err
	}
	n := d.shape.NumElements()
	params := b.ctx.uniform(uint32(n))
	defer params.Release()
	return b.ctx.dispatch("accumulate", n, d.binding(), s.binding(), binding{params, 16})
}

// ReLU returns max(x, 0).
func (b *Backend) ReLU(x tensor.Buffer) (tensor.Buffer, error) {
	xb, err := b.buffer(x)
	if err != nil {
		return nil, err
	}
	n := xb.shape.NumElements()
	out := newBuffer(b.ctx, b.ctx.alloc(xb.size), xb.shape)
	params := b.ctx.uniform(uint32(n))
	defer params.Release()
	if err := b.ctx.dispatch("relu", n, xb.binding(), out.binding(), binding{params, 16}); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// ReLUBackward returns grad where x > 0 and 0 elsewhere.
func (b *Backend) ReLUBackward(x, grad tensor.Buffer) (tensor.Buffer, error) {
	if err := tensor.CheckSameLayout("relu backward", x, grad); err != nil {
		return nil, err
	}
	xb, err := b.buffer(x)
	if err != nil {
		return nil, err
	}
	gb, err := b.buffer(grad)
	if err != nil {
		return nil, err
	}
	n := xb.shape.NumElements()
	out := newBuffer(b.ctx, b.ctx.alloc(xb.size), xb.shape)
	params := b.ctx.uniform(uint32(n))
	defer params.Release()
	if err := b.ctx.dispatch("relu_backward", n, xb.binding(), gb.binding(), out.binding(), binding{params, 16}); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

// Add returns a + b. Operands that broadcast by repeating over trailing
// dimensions run on the device; any other broadcast goes through the host.
func (b *Backend) Add(x, y tensor.Buffer) (tensor.Buffer, error) {
	xb, err := b.buffer(x)
	if err != nil {
		return nil, err
	}
	yb, err := b.buffer(y)
	if err != nil {
		return nil, err
	}
	shape, _, err := tensor.BroadcastShapes(xb.shape, yb.shape)
	if err != nil {
		return nil, fmt.Errorf("add: %w", err)
	}
	if !xb.shape.TilesInto(shape) || !yb.shape.TilesInto(shape) {
		return b.addOnHost(xb, yb, shape)
	}

	n := shape.NumElements()
	out := newBuffer(b.ctx, b.ctx.alloc(uint64(n*4)), shape)
	params := b.ctx.uniform(uint32(n), uint32(xb.shape.NumElements()), uint32(yb.shape.NumElements()))
	defer params.Release()
	if err := b.ctx.dispatch("add", n, xb.binding(), yb.binding(), out.binding(), binding{params, 16}); err != nil {
		out.Release()
		return nil, err
	}
	return out, nil
}

func (b *Backend) addOnHost(x, y *Buffer, shape tensor.Shape) (tensor.Buffer, error) {
	xa, err := x.ToHost()
	if err != nil {
		return nil, err
	}
	ya, err := y.ToHost()
	if err != nil {
		return nil, err
	}
	out, err := tensor.NewArray(shape, tensor.Float32)
	if err != nil {
		return nil, err
	}
	bx := tensor.NewBroadcaster(shape, xa.Shape())
	by := tensor.NewBroadcaster(shape, ya.Shape())
	o, xs, ys := out.AsFloat32(), xa.AsFloat32(), ya.AsFloat32()
	for i := range o {
		o[i] = xs[bx.Index(i)] + ys[by.Index(i)]
	}
	return b.FromHost(out)
}

// ReduceTo sums over broadcast dimensions on the host.
func (b *Backend) ReduceTo(x tensor.Buffer, shape tensor.Shape) (tensor.Buffer, error) {
	if x.Shape().Equal(shape) {
		return b.Clone(x)
	}
	a, err := x.ToHost()
	if err != nil {
		return nil, err
	}
	r, err := tensor.ReduceTo(a, shape)
	if err != nil {
		return nil, err
	}
	return b.FromHost(r)
}

// buffer unwraps a live buffer of this backend's context.
func (b *Backend) buffer(x tensor.Buffer) (*Buffer, error) {
	wb, ok := x.(*Buffer)
	if !ok || wb.ctx != b.ctx {
		return nil, fmt.Errorf("webgpu: %w: %s buffer", tensor.ErrDeviceMismatch, x.Device())
	}
	if wb.buf == nil {
		return nil, tensor.ErrReleased
	}
	return wb, nil
}
