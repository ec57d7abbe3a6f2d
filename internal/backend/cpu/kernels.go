package cpu

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/grad/internal/tensor"
)

type number interface {
	float32 | float64 | int32 | int64
}

// view returns the typed element slice of a. T must match a's dtype.
func view[T number](a *tensor.Array) []T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(a.AsFloat32()).([]T)
	case float64:
		return any(a.AsFloat64()).([]T)
	case int32:
		return any(a.AsInt32()).([]T)
	case int64:
		return any(a.AsInt64()).([]T)
	}
	return nil
}

type binaryKind int

const (
	kindAdd binaryKind = iota
	kindSub
	kindMul
)

func (k binaryKind) String() string {
	return [...]string{"add", "sub", "mul"}[k]
}

func combine[T number](k binaryKind, x, y T) T {
	switch k {
	case kindSub:
		return x - y
	case kindMul:
		return x * y
	default:
		return x + y
	}
}

// binary fills out with a (op) b, broadcasting both inputs to out's shape.
func binary[T number](k binaryKind, out, a, b *tensor.Array) {
	o, x, y := view[T](out), view[T](a), view[T](b)
	if a.Shape().Equal(b.Shape()) {
		for i := range o {
			o[i] = combine(k, x[i], y[i])
		}
		return
	}
	ba := tensor.NewBroadcaster(out.Shape(), a.Shape())
	bb := tensor.NewBroadcaster(out.Shape(), b.Shape())
	for i := range o {
		o[i] = combine(k, x[ba.Index(i)], y[bb.Index(i)])
	}
}

func (cpu *CPUBackend) binary(k binaryKind, a, b tensor.Buffer) (tensor.Buffer, error) {
	x, err := array(a)
	if err != nil {
		return nil, err
	}
	y, err := array(b)
	if err != nil {
		return nil, err
	}
	if x.DType() != y.DType() {
		return nil, fmt.Errorf("%s: %w: %s vs %s", k, tensor.ErrDTypeMismatch, x.DType(), y.DType())
	}
	shape, _, err := tensor.BroadcastShapes(x.Shape(), y.Shape())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	out, err := tensor.NewArray(shape, x.DType())
	if err != nil {
		return nil, err
	}

	switch x.DType() {
	case tensor.Float32:
		binary[float32](k, out, x, y)
	case tensor.Float64:
		binary[float64](k, out, x, y)
	case tensor.Int32:
		binary[int32](k, out, x, y)
	case tensor.Int64:
		binary[int64](k, out, x, y)
	default:
		return nil, fmt.Errorf("%s: %w: %s", k, tensor.ErrUnsupportedDType, x.DType())
	}
	return newBuffer(out), nil
}

// Add returns a + b with broadcasting.
func (cpu *CPUBackend) Add(a, b tensor.Buffer) (tensor.Buffer, error) {
	return cpu.binary(kindAdd, a, b)
}

// Sub returns a - b with broadcasting.
func (cpu *CPUBackend) Sub(a, b tensor.Buffer) (tensor.Buffer, error) {
	return cpu.binary(kindSub, a, b)
}

// Mul returns a * b with broadcasting.
func (cpu *CPUBackend) Mul(a, b tensor.Buffer) (tensor.Buffer, error) {
	return cpu.binary(kindMul, a, b)
}

func relu[T number](out, x []T) {
	for i, v := range x {
		if v > 0 {
			out[i] = v
		}
	}
}

func reluBackward[T number](out, x, grad []T) {
	for i, v := range x {
		if v > 0 {
			out[i] = grad[i]
		}
	}
}

// ReLU returns max(x, 0).
func (cpu *CPUBackend) ReLU(x tensor.Buffer) (tensor.Buffer, error) {
	a, err := array(x)
	if err != nil {
		return nil, err
	}
	out, err := tensor.NewArray(a.Shape(), a.DType())
	if err != nil {
		return nil, err
	}
	switch a.DType() {
	case tensor.Float32:
		relu(view[float32](out), a.AsFloat32())
	case tensor.Float64:
		relu(view[float64](out), a.AsFloat64())
	case tensor.Int32:
		relu(view[int32](out), a.AsInt32())
	case tensor.Int64:
		relu(view[int64](out), a.AsInt64())
	}
	return newBuffer(out), nil
}

// ReLUBackward returns grad where x > 0 and 0 elsewhere.
func (cpu *CPUBackend) ReLUBackward(x, grad tensor.Buffer) (tensor.Buffer, error) {
	if err := tensor.CheckSameLayout("relu backward", x, grad); err != nil {
		return nil, err
	}
	a, err := array(x)
	if err != nil {
		return nil, err
	}
	g, err := array(grad)
	if err != nil {
		return nil, err
	}
	out, err := tensor.NewArray(a.Shape(), a.DType())
	if err != nil {
		return nil, err
	}
	switch a.DType() {
	case tensor.Float32:
		reluBackward(view[float32](out), a.AsFloat32(), g.AsFloat32())
	case tensor.Float64:
		reluBackward(view[float64](out), a.AsFloat64(), g.AsFloat64())
	case tensor.Int32:
		reluBackward(view[int32](out), a.AsInt32(), g.AsInt32())
	case tensor.Int64:
		reluBackward(view[int64](out), a.AsInt64(), g.AsInt64())
	}
	return newBuffer(out), nil
}

// Scale returns s * x. Float only.
func (cpu *CPUBackend) Scale(x tensor.Buffer, s float64) (tensor.Buffer, error) {
	a, err := array(x)
	if err != nil {
		return nil, err
	}
	out := a.Clone()
	n := out.NumElements()
	switch out.DType() {
	case tensor.Float32:
		blas32.Scal(float32(s), blas32.Vector{N: n, Inc: 1, Data: out.AsFloat32()})
	case tensor.Float64:
		blas64.Scal(s, blas64.Vector{N: n, Inc: 1, Data: out.AsFloat64()})
	default:
		return nil, fmt.Errorf("scale: %w: %s", tensor.ErrUnsupportedDType, out.DType())
	}
	return newBuffer(out), nil
}

// Pow returns x^p elementwise. Float only.
func (cpu *CPUBackend) Pow(x tensor.Buffer, p float64) (tensor.Buffer, error) {
	a, err := array(x)
	if err != nil {
		return nil, err
	}
	out, err := tensor.NewArray(a.Shape(), a.DType())
	if err != nil {
		return nil, err
	}
	switch a.DType() {
	case tensor.Float32:
		o := out.AsFloat32()
		for i, v := range a.AsFloat32() {
			o[i] = float32(math.Pow(float64(v), p))
		}
	case tensor.Float64:
		o := out.AsFloat64()
		for i, v := range a.AsFloat64() {
			o[i] = math.Pow(v, p)
		}
	default:
		return nil, fmt.Errorf("pow: %w: %s", tensor.ErrUnsupportedDType, a.DType())
	}
	return newBuffer(out), nil
}

func sum[T number](x []T) T {
	var s T
	for _, v := range x {
		s += v
	}
	return s
}

// Sum reduces x to shape [1].
func (cpu *CPUBackend) Sum(x tensor.Buffer) (tensor.Buffer, error) {
	a, err := array(x)
	if err != nil {
		return nil, err
	}
	out, err := tensor.NewArray(tensor.Shape{1}, a.DType())
	if err != nil {
		return nil, err
	}
	switch a.DType() {
	case tensor.Float32:
		view[float32](out)[0] = sum(a.AsFloat32())
	case tensor.Float64:
		view[float64](out)[0] = sum(a.AsFloat64())
	case tensor.Int32:
		view[int32](out)[0] = sum(a.AsInt32())
	case tensor.Int64:
		view[int64](out)[0] = sum(a.AsInt64())
	}
	return newBuffer(out), nil
}

func expand[T number](out, x *tensor.Array) {
	o, in := view[T](out), view[T](x)
	bc := tensor.NewBroadcaster(out.Shape(), x.Shape())
	for i := range o {
		o[i] = in[bc.Index(i)]
	}
}

// BroadcastTo expands x to shape.
func (cpu *CPUBackend) BroadcastTo(x tensor.Buffer, shape tensor.Shape) (tensor.Buffer, error) {
	a, err := array(x)
	if err != nil {
		return nil, err
	}
	full, _, err := tensor.BroadcastShapes(a.Shape(), shape)
	if err != nil {
		return nil, fmt.Errorf("broadcast: %w", err)
	}
	if !full.Equal(shape) {
		return nil, fmt.Errorf("broadcast: %w: %v does not expand to %v", tensor.ErrShapeMismatch, a.Shape(), shape)
	}
	out, err := tensor.NewArray(shape, a.DType())
	if err != nil {
		return nil, err
	}
	switch a.DType() {
	case tensor.Float32:
		expand[float32](out, a)
	case tensor.Float64:
		expand[float64](out, a)
	case tensor.Int32:
		expand[int32](out, a)
	case tensor.Int64:
		expand[int64](out, a)
	}
	return newBuffer(out), nil
}

// ReduceTo sums b over its broadcast dimensions down to shape.
func (cpu *CPUBackend) ReduceTo(b tensor.Buffer, shape tensor.Shape) (tensor.Buffer, error) {
	a, err := array(b)
	if err != nil {
		return nil, err
	}
	out, err := tensor.ReduceTo(a, shape)
	if err != nil {
		return nil, err
	}
	return newBuffer(out), nil
}
