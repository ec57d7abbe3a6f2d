// Package autograd implements eager reverse-mode automatic differentiation.
//
// A Graph is an arena of tensor and operation nodes addressed by integer IDs.
// The edges of the computation DAG are stored as a relation from each
// operation to the ordered IDs of its parent tensors; tensors only record the
// ID of the operation that produced them. Nothing points back from a parent to
// its consumers, so the arena never holds reference cycles.
//
// Every operation runs immediately on the Graph's backend:
//
//	g := autograd.NewGraph(backend, registry)
//	x, _ := g.NewTensor(arr, true, "x")
//	y, _ := x.ReLU()
//	z, _ := y.Add(1.0)
//	_ = z.Backward()   // x.Grad() now holds dz/dx
//
// A Graph is not safe for concurrent use.
package autograd

import (
	"fmt"

	"github.com/born-ml/grad/internal/tensor"
)

// TensorID identifies a tensor node within its Graph.
type TensorID int

// OpID identifies an operation node within its Graph.
type OpID int

// NoOp is the producer of leaf tensors.
const NoOp OpID = -1

type tensorNode struct {
	serial       uint64
	name         string
	storage      tensor.Buffer
	grad         tensor.Buffer // nil iff !requiresGrad
	requiresGrad bool
	producer     OpID
}

type opNode struct {
	name string
	op   Operation
}

// Graph owns every tensor and operation created through it, together with
// their buffers.
type Graph struct {
	backend  tensor.Backend
	registry *Registry

	tensors []tensorNode
	ops     []opNode
	parents [][]TensorID // indexed by OpID

	nextSerial uint64
	released   bool
}

// NewGraph creates an empty graph that allocates on backend and dispatches
// named operations through registry.
func NewGraph(backend tensor.Backend, registry *Registry) *Graph {
	return &Graph{
		backend:  backend,
		registry: registry,
		tensors:  make([]tensorNode, 0, 64),
		ops:      make([]opNode, 0, 64),
		parents:  make([][]TensorID, 0, 64),
	}
}

// Backend returns the backend all buffers of this graph live on.
func (g *Graph) Backend() tensor.Backend {
	return g.backend
}

// Registry returns the operation registry.
func (g *Graph) Registry() *Registry {
	return g.registry
}

// NumTensors returns the number of live tensor nodes.
func (g *Graph) NumTensors() int {
	return len(g.tensors)
}

// NumOps returns the number of recorded operations.
func (g *Graph) NumOps() int {
	return len(g.ops)
}

// NewTensor uploads a host array and wraps it in a leaf tensor. This is the
// only way outside data enters the graph.
func (g *Graph) NewTensor(a *tensor.Array, requiresGrad bool, name string) (*Tensor, error) {
	if g.released {
		return nil, ErrGraphReleased
	}
	storage, err := g.backend.FromHost(a)
	if err != nil {
		return nil, fmt.Errorf("new tensor %q: %w", name, err)
	}
	t, err := g.addTensor(storage, requiresGrad, NoOp, name)
	if err != nil {
		storage.Release()
		return nil, fmt.Errorf("new tensor %q: %w", name, err)
	}
	return t, nil
}

// FromFloat32 is a shorthand for NewTensor over a float32 slice.
func (g *Graph) FromFloat32(data []float32, shape tensor.Shape, requiresGrad bool, name string) (*Tensor, error) {
	a, err := tensor.ArrayFromFloat32(data, shape)
	if err != nil {
		return nil, err
	}
	return g.NewTensor(a, requiresGrad, name)
}

// FromFloat64 is a shorthand for NewTensor over a float64 slice.
func (g *Graph) FromFloat64(data []float64, shape tensor.Shape, requiresGrad bool, name string) (*Tensor, error) {
	a, err := tensor.ArrayFromFloat64(data, shape)
	if err != nil {
		return nil, err
	}
	return g.NewTensor(a, requiresGrad, name)
}

// addTensor appends a node that takes over the caller's reference to storage.
func (g *Graph) addTensor(storage tensor.Buffer, requiresGrad bool, producer OpID, name string) (*Tensor, error) {
	var grad tensor.Buffer
	if requiresGrad {
		var err error
		grad, err = g.backend.Full(storage.Shape(), storage.DType(), 0)
		if err != nil {
			return nil, fmt.Errorf("allocate gradient: %w", err)
		}
	}

	g.nextSerial++
	id := TensorID(len(g.tensors))
	g.tensors = append(g.tensors, tensorNode{
		serial:       g.nextSerial,
		name:         name,
		storage:      storage,
		grad:         grad,
		requiresGrad: requiresGrad,
		producer:     producer,
	})
	return &Tensor{g: g, id: id, serial: g.nextSerial}, nil
}

// Parents returns the parent tensor IDs of an operation, in input order.
func (g *Graph) Parents(op OpID) []TensorID {
	if op < 0 || int(op) >= len(g.parents) {
		return nil
	}
	return g.parents[op]
}

// OpName returns the registered name of an operation.
func (g *Graph) OpName(op OpID) string {
	if op < 0 || int(op) >= len(g.ops) {
		return ""
	}
	return g.ops[op].name
}

// Mark records the current size of the arena.
type Mark struct {
	tensors int
	ops     int
}

// Mark returns a position that Rewind can return to.
func (g *Graph) Mark() Mark {
	return Mark{tensors: len(g.tensors), ops: len(g.ops)}
}

// Rewind drops every tensor and operation created after m and releases their
// buffers. Handles to dropped tensors report ErrStaleTensor afterwards.
//
// Typical use is one Mark after the parameters are created and one Rewind at
// the end of every step, so per-step intermediates do not pile up.
func (g *Graph) Rewind(m Mark) {
	for i := len(g.tensors) - 1; i >= m.tensors && i >= 0; i-- {
		g.releaseTensor(&g.tensors[i])
	}
	for i := len(g.ops) - 1; i >= m.ops && i >= 0; i-- {
		releaseOp(g.ops[i].op)
	}
	if m.tensors < len(g.tensors) {
		g.tensors = g.tensors[:m.tensors]
	}
	if m.ops < len(g.ops) {
		g.ops = g.ops[:m.ops]
		g.parents = g.parents[:m.ops]
	}
}

// Release drops every node and buffer. The graph cannot be used afterwards.
func (g *Graph) Release() {
	if g.released {
		return
	}
	g.Rewind(Mark{})
	g.released = true
}

func (g *Graph) releaseTensor(n *tensorNode) {
	if n.storage != nil {
		n.storage.Release()
		n.storage = nil
	}
	if n.grad != nil {
		n.grad.Release()
		n.grad = nil
	}
}

// node resolves a handle, rejecting handles from other graphs and handles
// whose node was dropped.
func (g *Graph) node(t *Tensor) (*tensorNode, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil tensor", ErrBadArgument)
	}
	if t.g != g {
		return nil, ErrForeignTensor
	}
	if int(t.id) >= len(g.tensors) || g.tensors[t.id].serial != t.serial {
		return nil, ErrStaleTensor
	}
	return &g.tensors[t.id], nil
}
