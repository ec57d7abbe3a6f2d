package ops

import (
	"fmt"

	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/tensor"
)

// PowOp raises x to a constant exponent, given as the "exponent" attribute.
type PowOp struct {
	autograd.Saved
	k        ArithmeticKernels
	exponent float64
}

func newPowOp(k ArithmeticKernels, attrs autograd.Attrs) (autograd.Operation, error) {
	if _, ok := attrs["exponent"]; !ok {
		return nil, fmt.Errorf("pow: %w: exponent", autograd.ErrMissingAttr)
	}
	p, err := attrs.Float("exponent", 0)
	if err != nil {
		return nil, err
	}
	return &PowOp{k: k, exponent: p}, nil
}

func (op *PowOp) Forward(inputs ...tensor.Buffer) (tensor.Buffer, error) {
	if err := expectInputs("pow", inputs, 1); err != nil {
		return nil, err
	}
	out, err := op.k.Pow(inputs[0], op.exponent)
	if err != nil {
		return nil, err
	}
	op.Save(inputs[0])
	return out, nil
}

// Backward returns grad * p * x^(p-1).
func (op *PowOp) Backward(grad tensor.Buffer) ([]tensor.Buffer, error) {
	x := op.SavedValues()[0]
	if err := checkUpstream("pow", x.Shape(), grad); err != nil {
		return nil, err
	}

	lowered, err := op.k.Pow(x, op.exponent-1)
	if err != nil {
		return nil, err
	}
	defer lowered.Release()
	local, err := op.k.Scale(lowered, op.exponent)
	if err != nil {
		return nil, err
	}
	defer local.Release()
	gx, err := op.k.Mul(grad, local)
	if err != nil {
		return nil, err
	}
	return []tensor.Buffer{gx}, nil
}
