package autograd

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/born-ml/grad/internal/tensor"
)

var tracer = otel.Tracer("github.com/born-ml/grad/internal/autograd")

// Backward runs one reverse-mode pass rooted at t.
//
// Whatever tensor Backward is called on is treated as the quantity being
// differentiated: an all-ones array of its shape is added into its gradient,
// and the accumulated gradient is what flows to its ancestors. This holds for
// intermediate tensors too.
//
// On a leaf that requires gradients Backward is a no-op. On a tensor that does
// not require gradients it returns ErrNotDifferentiable.
func (t *Tensor) Backward() error {
	return t.BackwardContext(context.Background())
}

// BackwardContext is Backward with a tracing span. The pass is not cancellable.
func (t *Tensor) BackwardContext(ctx context.Context) error {
	_, span := tracer.Start(ctx, "autograd.Backward")
	defer span.End()

	g := t.g
	n, err := g.node(t)
	if err != nil {
		return fmt.Errorf("backward: %w", err)
	}
	span.SetAttributes(attribute.String("tensor", n.name))
	if !n.requiresGrad {
		return fmt.Errorf("backward on %q: %w", n.name, ErrNotDifferentiable)
	}
	if n.producer == NoOp {
		return nil
	}

	ones, err := g.backend.Full(n.storage.Shape(), n.storage.DType(), 1)
	if err != nil {
		return fmt.Errorf("backward: seed: %w", err)
	}
	// The root propagates its grad as it will be once the pass commits.
	seed, err := g.backend.Clone(n.grad)
	if err != nil {
		ones.Release()
		return fmt.Errorf("backward: seed: %w", err)
	}
	if err := g.backend.Accumulate(seed, ones); err != nil {
		ones.Release()
		seed.Release()
		return fmt.Errorf("backward: seed: %w", err)
	}
	visited, err := g.propagate(t.id, seed, ones)
	span.SetAttributes(attribute.Int("operations", visited))
	return err
}

// BackwardWith runs a reverse pass with an explicit upstream gradient.
// seed flows to t's ancestors; t's own gradient is left untouched.
func (t *Tensor) BackwardWith(seed *tensor.Array) error {
	g := t.g
	n, err := g.node(t)
	if err != nil {
		return fmt.Errorf("backward: %w", err)
	}
	if !n.requiresGrad {
		return fmt.Errorf("backward on %q: %w", n.name, ErrNotDifferentiable)
	}
	if n.producer == NoOp {
		return nil
	}

	buf, err := g.backend.FromHost(seed)
	if err != nil {
		return fmt.Errorf("backward: seed: %w", err)
	}
	if err := tensor.CheckSameLayout("backward seed", n.storage, buf); err != nil {
		buf.Release()
		return err
	}
	_, err = g.propagate(t.id, buf, nil)
	return err
}

// propagate walks the producer DAG from root in reverse topological order.
//
// staged holds, for every tensor reached so far in this pass, the sum of the
// gradient contributions that flowed into it. A node's producer runs its
// backward transform once, after every consumer of the node has contributed,
// with that sum as upstream gradient. Backward transforms are linear in the
// upstream gradient, so the result is the same as recursing once per edge.
//
// Nothing is added into any grad until every transform has succeeded; then
// each staged sum, and rootDelta for the root when non-nil, is committed.
//
// propagate takes ownership of seed and rootDelta. It returns the number of
// operations whose backward ran.
func (g *Graph) propagate(root TensorID, seed, rootDelta tensor.Buffer) (int, error) {
	backwardPasses.Inc()

	order := g.reverseTopo(root)
	staged := make(map[TensorID]tensor.Buffer)
	defer func() {
		seed.Release()
		if rootDelta != nil {
			rootDelta.Release()
		}
		for _, b := range staged {
			b.Release()
		}
	}()

	visited := 0
	for _, id := range order {
		up := seed
		if id != root {
			var ok bool
			if up, ok = staged[id]; !ok {
				continue
			}
		}
		if err := g.backwardNode(id, up, staged); err != nil {
			return visited, err
		}
		visited++
	}

	if rootDelta != nil {
		if err := g.commit(root, rootDelta); err != nil {
			return visited, err
		}
	}
	for id, b := range staged {
		if err := g.commit(id, b); err != nil {
			return visited, err
		}
	}
	return visited, nil
}

func (g *Graph) commit(id TensorID, delta tensor.Buffer) error {
	n := &g.tensors[id]
	if err := g.backend.Accumulate(n.grad, delta); err != nil {
		return fmt.Errorf("accumulate gradient of %q: %w", n.name, err)
	}
	gradAccumulations.Inc()
	return nil
}

// backwardNode runs the producer of id with upstream gradient up and adds the
// per-parent gradients into staged. Every gradient is checked before any is
// staged.
func (g *Graph) backwardNode(id TensorID, up tensor.Buffer, staged map[TensorID]tensor.Buffer) error {
	opID := g.tensors[id].producer
	opn := g.ops[opID]
	parents := g.parents[opID]

	grads, err := opn.op.Backward(up)
	defer func() {
		for _, gb := range grads {
			if gb != nil {
				gb.Release()
			}
		}
	}()
	if err != nil {
		return fmt.Errorf("%s: backward: %w", opn.name, err)
	}
	if len(grads) != len(parents) {
		return fmt.Errorf("%s: %w: got %d for %d inputs", opn.name, ErrArity, len(grads), len(parents))
	}
	for j, pid := range parents {
		p := &g.tensors[pid]
		if !p.requiresGrad {
			continue
		}
		if grads[j] == nil {
			return fmt.Errorf("%s: %w: input %d has no gradient", opn.name, ErrArity, j)
		}
		if err := tensor.CheckSameLayout(fmt.Sprintf("%s: gradient of input %d", opn.name, j), p.storage, grads[j]); err != nil {
			return err
		}
	}

	for j, pid := range parents {
		if !g.tensors[pid].requiresGrad {
			continue
		}
		gj := grads[j]
		if sum, ok := staged[pid]; ok {
			if err := g.backend.Accumulate(sum, gj); err != nil {
				return fmt.Errorf("%s: accumulate input %d: %w", opn.name, j, err)
			}
			continue
		}
		sum, err := g.backend.Clone(gj)
		if err != nil {
			return fmt.Errorf("%s: %w", opn.name, err)
		}
		staged[pid] = sum
	}
	return nil
}

// reverseTopo returns the non-leaf tensors reachable from root through
// parents that require gradients, every tensor before all of its ancestors.
func (g *Graph) reverseTopo(root TensorID) []TensorID {
	visited := make(map[TensorID]bool)
	post := make([]TensorID, 0, 16)

	var visit func(id TensorID)
	visit = func(id TensorID) {
		if visited[id] {
			return
		}
		visited[id] = true

		n := &g.tensors[id]
		if n.producer == NoOp {
			return
		}
		for _, pid := range g.parents[n.producer] {
			if g.tensors[pid].requiresGrad {
				visit(pid)
			}
		}
		post = append(post, id)
	}
	visit(root)

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}
