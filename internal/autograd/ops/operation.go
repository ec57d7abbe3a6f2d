// Package ops defines the differentiable operations registered with an
// autograd Registry.
//
// Each operation runs its forward and backward transforms through a Kernels
// implementation supplied by a backend package:
//   - relu: max(0, x)              (d/dx = 1 if x > 0, else 0)
//   - add:  a + b with broadcasting (d/da = d/db = 1)
//   - sub:  a - b                   (d/da = 1, d/db = -1)
//   - mul:  a * b                   (d/da = b, d/db = a)
//   - pow:  x^p for constant p      (d/dx = p * x^(p-1))
//   - matmul: A @ B                 (dA = grad @ B^T, dB = A^T @ grad)
//   - sum:  sum of all elements     (dx = broadcast(grad))
//
// Only relu and add are required from every backend. The rest are registered
// when the backend implements ArithmeticKernels.
package ops

import (
	"fmt"

	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/tensor"
)

// Kernels are the device primitives every backend provides.
// Each returned buffer carries one reference owned by the caller.
type Kernels interface {
	tensor.Backend

	// ReLU returns max(x, 0) elementwise.
	ReLU(x tensor.Buffer) (tensor.Buffer, error)

	// ReLUBackward returns grad where x > 0 and 0 elsewhere.
	// x and grad must have the same layout.
	ReLUBackward(x, grad tensor.Buffer) (tensor.Buffer, error)

	// Add returns a + b with broadcasting.
	Add(a, b tensor.Buffer) (tensor.Buffer, error)

	// ReduceTo sums b over its broadcast dimensions down to shape.
	ReduceTo(b tensor.Buffer, shape tensor.Shape) (tensor.Buffer, error)
}

// ArithmeticKernels adds the primitives behind sub, mul, pow, matmul and sum.
type ArithmeticKernels interface {
	Kernels

	Sub(a, b tensor.Buffer) (tensor.Buffer, error)
	Mul(a, b tensor.Buffer) (tensor.Buffer, error)
	Scale(x tensor.Buffer, s float64) (tensor.Buffer, error)
	Pow(x tensor.Buffer, p float64) (tensor.Buffer, error)

	// MatMul multiplies 2-D buffers, optionally transposing either operand.
	MatMul(a, b tensor.Buffer, transA, transB bool) (tensor.Buffer, error)

	// Sum reduces x to shape [1].
	Sum(x tensor.Buffer) (tensor.Buffer, error)

	// BroadcastTo expands x to shape.
	BroadcastTo(x tensor.Buffer, shape tensor.Shape) (tensor.Buffer, error)
}

// Library returns the operation types k can run.
func Library(k Kernels) []autograd.OpType {
	types := []autograd.OpType{
		{Name: "ReLU", New: func(autograd.Attrs) (autograd.Operation, error) { return &ReLUOp{k: k}, nil }},
		{Name: "Add", New: func(autograd.Attrs) (autograd.Operation, error) { return &AddOp{k: k}, nil }},
	}

	ak, ok := k.(ArithmeticKernels)
	if !ok {
		return types
	}
	return append(types,
		autograd.OpType{Name: "Sub", New: func(autograd.Attrs) (autograd.Operation, error) { return &SubOp{k: ak}, nil }},
		autograd.OpType{Name: "Mul", New: func(autograd.Attrs) (autograd.Operation, error) { return &MulOp{k: ak}, nil }},
		autograd.OpType{Name: "Pow", New: func(attrs autograd.Attrs) (autograd.Operation, error) { return newPowOp(ak, attrs) }},
		autograd.OpType{Name: "MatMul", New: func(autograd.Attrs) (autograd.Operation, error) { return &MatMulOp{k: ak}, nil }},
		autograd.OpType{Name: "Sum", New: func(autograd.Attrs) (autograd.Operation, error) { return &SumOp{k: ak}, nil }},
	)
}

func expectInputs(op string, inputs []tensor.Buffer, n int) error {
	if len(inputs) != n {
		return fmt.Errorf("%s: %w: want %d, got %d", op, autograd.ErrWrongNumInputs, n, len(inputs))
	}
	return nil
}

// checkUpstream rejects an upstream gradient whose shape differs from the
// output the operation produced.
func checkUpstream(op string, out tensor.Shape, grad tensor.Buffer) error {
	if !grad.Shape().Equal(out) {
		return fmt.Errorf("%s backward: %w: upstream %v, output %v", op, tensor.ErrShapeMismatch, grad.Shape(), out)
	}
	return nil
}

// releaseAll drops one reference from every non-nil buffer.
func releaseAll(bufs ...tensor.Buffer) {
	for _, b := range bufs {
		if b != nil {
			b.Release()
		}
	}
}
