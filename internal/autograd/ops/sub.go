package ops

import (
	"github.com/born-ml/grad/internal/tensor"
)

// SubOp computes a - b with broadcasting.
type SubOp struct {
	k              ArithmeticKernels
	shapeA, shapeB tensor.Shape
	out            tensor.Shape
}

func (op *SubOp) Forward(inputs ...tensor.Buffer) (tensor.Buffer, error) {
	if err := expectInputs("sub", inputs, 2); err != nil {
		return nil, err
	}
	out, err := op.k.Sub(inputs[0], inputs[1])
	if err != nil {
		return nil, err
	}
	op.shapeA = inputs[0].Shape().Clone()
	op.shapeB = inputs[1].Shape().Clone()
	op.out = out.Shape().Clone()
	return out, nil
}

// Backward returns grad for a and -grad for b, each reduced to its shape.
func (op *SubOp) Backward(grad tensor.Buffer) ([]tensor.Buffer, error) {
	if err := checkUpstream("sub", op.out, grad); err != nil {
		return nil, err
	}
	ga, err := op.k.ReduceTo(grad, op.shapeA)
	if err != nil {
		return nil, err
	}
	neg, err := op.k.Scale(grad, -1)
	if err != nil {
		ga.Release()
		return nil, err
	}
	defer neg.Release()
	gb, err := op.k.ReduceTo(neg, op.shapeB)
	if err != nil {
		ga.Release()
		return nil, err
	}
	return []tensor.Buffer{ga, gb}, nil
}
