package autograd

import (
	"fmt"

	"github.com/born-ml/grad/internal/tensor"
)

// Apply looks up a registered operation and applies it to inputs.
func (g *Graph) Apply(name string, attrs Attrs, inputs ...*Tensor) (*Tensor, error) {
	t, ok := g.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, name)
	}
	return g.ApplyType(t, attrs, inputs...)
}

// ApplyType builds a fresh Operation from t, runs its forward transform on the
// inputs' storages and wraps the result in a new tensor.
//
// The result requires gradients iff at least one input does. Only then is the
// operation recorded and linked as the result's producer; otherwise it is
// dropped immediately and the result is a leaf, even though it was computed.
func (g *Graph) ApplyType(t OpType, attrs Attrs, inputs ...*Tensor) (*Tensor, error) {
	if g.released {
		return nil, ErrGraphReleased
	}

	ids := make([]TensorID, len(inputs))
	storages := make([]tensor.Buffer, len(inputs))
	requiresGrad := false
	for i, in := range inputs {
		n, err := g.node(in)
		if err != nil {
			return nil, fmt.Errorf("%s: input %d: %w", t.Name, i, err)
		}
		ids[i] = in.id
		storages[i] = n.storage
		requiresGrad = requiresGrad || n.requiresGrad
	}

	op, err := t.New(attrs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.Name, err)
	}

	out, err := op.Forward(storages...)
	if err != nil {
		releaseOp(op)
		return nil, fmt.Errorf("%s: forward: %w", t.Name, err)
	}
	if out == nil {
		releaseOp(op)
		return nil, fmt.Errorf("%s: %w", t.Name, ErrNilOutput)
	}
	opsApplied.WithLabelValues(t.Name).Inc()

	producer := NoOp
	if requiresGrad {
		producer = OpID(len(g.ops))
	}
	result, err := g.addTensor(out, requiresGrad, producer, t.Name)
	if err != nil {
		out.Release()
		releaseOp(op)
		return nil, fmt.Errorf("%s: %w", t.Name, err)
	}

	if requiresGrad {
		g.ops = append(g.ops, opNode{name: t.Name, op: op})
		g.parents = append(g.parents, ids)
	} else {
		releaseOp(op)
	}
	return result, nil
}
