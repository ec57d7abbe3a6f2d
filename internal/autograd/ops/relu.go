package ops

import (
	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/tensor"
)

// ReLUOp computes max(0, x).
//
// The gate is strict: elements equal to zero get a zero gradient.
type ReLUOp struct {
	autograd.Saved
	k Kernels
}

// Forward saves x and returns max(0, x).
func (op *ReLUOp) Forward(inputs ...tensor.Buffer) (tensor.Buffer, error) {
	if err := expectInputs("relu", inputs, 1); err != nil {
		return nil, err
	}
	out, err := op.k.ReLU(inputs[0])
	if err != nil {
		return nil, err
	}
	op.Save(inputs[0])
	return out, nil
}

// Backward masks grad with x > 0.
func (op *ReLUOp) Backward(grad tensor.Buffer) ([]tensor.Buffer, error) {
	x := op.SavedValues()[0]
	if err := tensor.CheckSameLayout("relu backward", x, grad); err != nil {
		return nil, err
	}
	gx, err := op.k.ReLUBackward(x, grad)
	if err != nil {
		return nil, err
	}
	return []tensor.Buffer{gx}, nil
}
