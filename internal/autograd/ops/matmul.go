package ops

import (
	"fmt"

	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/tensor"
)

// MatMulOp multiplies two 2-D tensors: C = A @ B.
//
// Backward pass:
//   - grad_A = grad_C @ B^T
//   - grad_B = A^T @ grad_C
type MatMulOp struct {
	autograd.Saved
	k   ArithmeticKernels
	out tensor.Shape
}

func (op *MatMulOp) Forward(inputs ...tensor.Buffer) (tensor.Buffer, error) {
	if err := expectInputs("matmul", inputs, 2); err != nil {
		return nil, err
	}
	a, b := inputs[0], inputs[1]
	if len(a.Shape()) != 2 || len(b.Shape()) != 2 || a.Shape()[1] != b.Shape()[0] {
		return nil, fmt.Errorf("matmul: %w: %v @ %v", tensor.ErrShapeMismatch, a.Shape(), b.Shape())
	}
	out, err := op.k.MatMul(a, b, false, false)
	if err != nil {
		return nil, err
	}
	op.Save(a, b)
	op.out = out.Shape().Clone()
	return out, nil
}

func (op *MatMulOp) Backward(grad tensor.Buffer) ([]tensor.Buffer, error) {
	if err := checkUpstream("matmul", op.out, grad); err != nil {
		return nil, err
	}
	saved := op.SavedValues()
	a, b := saved[0], saved[1]

	ga, err := op.k.MatMul(grad, b, false, true)
	if err != nil {
		return nil, err
	}
	gb, err := op.k.MatMul(a, grad, true, false)
	if err != nil {
		ga.Release()
		return nil, err
	}
	return []tensor.Buffer{ga, gb}, nil
}
