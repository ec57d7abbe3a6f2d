package ops

import (
	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/tensor"
)

// MulOp computes a * b elementwise with broadcasting.
//
// Backward pass:
//   - grad_a = reduce(grad * b)
//   - grad_b = reduce(grad * a)
type MulOp struct {
	autograd.Saved
	k   ArithmeticKernels
	out tensor.Shape
}

func (op *MulOp) Forward(inputs ...tensor.Buffer) (tensor.Buffer, error) {
	if err := expectInputs("mul", inputs, 2); err != nil {
		return nil, err
	}
	out, err := op.k.Mul(inputs[0], inputs[1])
	if err != nil {
		return nil, err
	}
	op.Save(inputs[0], inputs[1])
	op.out = out.Shape().Clone()
	return out, nil
}

func (op *MulOp) Backward(grad tensor.Buffer) ([]tensor.Buffer, error) {
	if err := checkUpstream("mul", op.out, grad); err != nil {
		return nil, err
	}
	saved := op.SavedValues()
	a, b := saved[0], saved[1]

	ga, err := op.scaledBy(grad, b, a.Shape())
	if err != nil {
		return nil, err
	}
	gb, err := op.scaledBy(grad, a, b.Shape())
	if err != nil {
		ga.Release()
		return nil, err
	}
	return []tensor.Buffer{ga, gb}, nil
}

func (op *MulOp) scaledBy(grad, other tensor.Buffer, shape tensor.Shape) (tensor.Buffer, error) {
	prod, err := op.k.Mul(grad, other)
	if err != nil {
		return nil, err
	}
	defer prod.Release()
	return op.k.ReduceTo(prod, shape)
}
