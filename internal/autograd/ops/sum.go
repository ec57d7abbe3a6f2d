package ops

import (
	"github.com/born-ml/grad/internal/tensor"
)

// SumOp reduces all elements to a shape [1] tensor.
type SumOp struct {
	k     ArithmeticKernels
	shape tensor.Shape
	out   tensor.Shape
}

func (op *SumOp) Forward(inputs ...tensor.Buffer) (tensor.Buffer, error) {
	if err := expectInputs("sum", inputs, 1); err != nil {
		return nil, err
	}
	out, err := op.k.Sum(inputs[0])
	if err != nil {
		return nil, err
	}
	op.shape = inputs[0].Shape().Clone()
	op.out = out.Shape().Clone()
	return out, nil
}

// Backward broadcasts the scalar gradient back to the input shape.
func (op *SumOp) Backward(grad tensor.Buffer) ([]tensor.Buffer, error) {
	if err := checkUpstream("sum", op.out, grad); err != nil {
		return nil, err
	}
	gx, err := op.k.BroadcastTo(grad, op.shape)
	if err != nil {
		return nil, err
	}
	return []tensor.Buffer{gx}, nil
}
