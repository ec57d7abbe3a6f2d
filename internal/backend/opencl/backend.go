//go:build opencl

package opencl

import (
	"fmt"
	"math"

	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/autograd/ops"
	"github.com/born-ml/grad/internal/tensor"
)

// Backend allocates Buffers on a Context's device.
type Backend struct {
	ctx *Context
}

// New creates a backend over ctx.
func New(ctx *Context) *Backend {
	return &Backend{ctx: ctx}
}

// Ops returns the operation types this backend runs.
func Ops(b *Backend) []autograd.OpType {
	return ops.Library(b)
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "OpenCL (" + b.ctx.info.Name + ")"
}

// Device returns tensor.OpenCL.
func (b *Backend) Device() tensor.Device {
	return tensor.OpenCL
}

// FromHost uploads a float32 array.
func (b *Backend) FromHost(a *tensor.Array) (tensor.Buffer, error) {
	if a.DType() != tensor.Float32 {
		return nil, fmt.Errorf("opencl: %w: %s (float32 only)", tensor.ErrUnsupportedDType, a.DType())
	}
	data := a.AsFloat32()
	v, err := b.ctx.vector(len(data))
	if err != nil {
		return nil, err
	}
	if err := <-v.Copy(data); err != nil {
		v.Release()
		return nil, fmt.Errorf("opencl: upload: %w", err)
	}
	bytesTransferred.WithLabelValues("to_device").Add(float64(len(data) * 4))
	return newBuffer(b.ctx, v, a.Shape()), nil
}

// Empty allocates a zero-filled buffer.
func (b *Backend) Empty(shape tensor.Shape, dtype tensor.DataType) (tensor.Buffer, error) {
	return b.Full(shape, dtype, 0)
}

// Full allocates a buffer and fills it on the device.
func (b *Backend) Full(shape tensor.Shape, dtype tensor.DataType, v float64) (tensor.Buffer, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if dtype != tensor.Float32 {
		return nil, fmt.Errorf("opencl: %w: %s (float32 only)", tensor.ErrUnsupportedDType, dtype)
	}
	n := shape.NumElements()
	vec, err := b.ctx.vector(n)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.run("fill", n, vec, math.Float32bits(float32(v))); err != nil {
		vec.Release()
		return nil, err
	}
	return newBuffer(b.ctx, vec, shape), nil
}

// Clone copies a buffer on the device.
func (b *Backend) Clone(src tensor.Buffer) (tensor.Buffer, error) {
	s, err := b.buffer(src)
	if err != nil {
		return nil, err
	}
	n := s.shape.NumElements()
	vec, err := b.ctx.vector(n)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.run("assign", n, vec, s.vec); err != nil {
		vec.Release()
		return nil, err
	}
	return newBuffer(b.ctx, vec, s.shape), nil
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
	return b.ctx.run("accumulate", d.shape.NumElements(), d.vec, s.vec)
}

// ReLU returns max(x, 0).
func (b *Backend) ReLU(x tensor.Buffer) (tensor.Buffer, error) {
	xb, err := b.buffer(x)
	if err != nil {
		return nil, err
	}
	return b.launch("relu", xb.shape, xb.vec)
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
	return b.launch("relu_backward", xb.shape, xb.vec, gb.vec)
}

// Add returns x + y. Broadcasts that repeat an operand over trailing
// dimensions run on the device; others go through the host.
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
	return b.launch("add", shape, xb.vec, yb.vec,
		uint32(xb.shape.NumElements()), uint32(yb.shape.NumElements()))
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

// launch allocates an output of shape and runs kernel name with the output
// as the first argument.
func (b *Backend) launch(name string, shape tensor.Shape, args ...interface{}) (tensor.Buffer, error) {
	n := shape.NumElements()
	out, err := b.ctx.vector(n)
	if err != nil {
		return nil, err
	}
	if err := b.ctx.run(name, n, append([]interface{}{out}, args...)...); err != nil {
		out.Release()
		return nil, err
	}
	return newBuffer(b.ctx, out, shape), nil
}

func (b *Backend) buffer(x tensor.Buffer) (*Buffer, error) {
	ob, ok := x.(*Buffer)
	if !ok || ob.ctx != b.ctx {
		return nil, fmt.Errorf("opencl: %w: %s buffer", tensor.ErrDeviceMismatch, x.Device())
	}
	if ob.vec == nil {
		return nil, tensor.ErrReleased
	}
	return ob, nil
}
