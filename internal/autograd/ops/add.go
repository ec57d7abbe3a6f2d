package ops

import (
	"github.com/born-ml/grad/internal/tensor"
)

// AddOp computes a + b with broadcasting.
//
// The upstream gradient flows unchanged to both inputs, summed over any
// dimensions broadcasting expanded.
type AddOp struct {
	k              Kernels
	shapeA, shapeB tensor.Shape
	out            tensor.Shape
}

// Forward records the input shapes and returns a + b.
func (op *AddOp) Forward(inputs ...tensor.Buffer) (tensor.Buffer, error) {
	if err := expectInputs("add", inputs, 2); err != nil {
		return nil, err
	}
	out, err := op.k.Add(inputs[0], inputs[1])
	if err != nil {
		return nil, err
	}
	op.shapeA = inputs[0].Shape().Clone()
	op.shapeB = inputs[1].Shape().Clone()
	op.out = out.Shape().Clone()
	return out, nil
}

// Backward reduces grad to each input shape.
func (op *AddOp) Backward(grad tensor.Buffer) ([]tensor.Buffer, error) {
	if err := checkUpstream("add", op.out, grad); err != nil {
		return nil, err
	}
	ga, err := op.k.ReduceTo(grad, op.shapeA)
	if err != nil {
		return nil, err
	}
	gb, err := op.k.ReduceTo(grad, op.shapeB)
	if err != nil {
		ga.Release()
		return nil, err
	}
	return []tensor.Buffer{ga, gb}, nil
}
