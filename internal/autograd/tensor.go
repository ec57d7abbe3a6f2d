package autograd

import (
	"fmt"

	"github.com/born-ml/grad/internal/tensor"
)

// Tensor is a handle to a tensor node in a Graph.
//
// The node owns a storage buffer, a gradient buffer when it requires
// gradients, and the ID of the operation that produced it (NoOp for leaves).
// Handles are cheap values; copying one does not copy the node.
type Tensor struct {
	g      *Graph
	id     TensorID
	serial uint64
}

// mustNode resolves the handle and panics on misuse, like an out-of-range
// index would.
func (t *Tensor) mustNode() *tensorNode {
	n, err := t.g.node(t)
	if err != nil {
		panic(fmt.Sprintf("autograd: %v", err))
	}
	return n
}

// ID returns the node ID.
func (t *Tensor) ID() TensorID {
	return t.id
}

// Graph returns the graph that owns this tensor.
func (t *Tensor) Graph() *Graph {
	return t.g
}

// Shape returns the storage shape.
func (t *Tensor) Shape() tensor.Shape {
	return t.mustNode().storage.Shape()
}

// DType returns the storage data type.
func (t *Tensor) DType() tensor.DataType {
	return t.mustNode().storage.DType()
}

// Name returns the diagnostic label.
func (t *Tensor) Name() string {
	return t.mustNode().name
}

// SetName changes the diagnostic label.
func (t *Tensor) SetName(name string) {
	t.mustNode().name = name
}

// RequiresGrad reports whether gradients are tracked for this tensor.
func (t *Tensor) RequiresGrad() bool {
	return t.mustNode().requiresGrad
}

// Producer returns the operation that created this tensor, or NoOp.
func (t *Tensor) Producer() OpID {
	return t.mustNode().producer
}

// IsLeaf reports whether the tensor has no producing operation.
func (t *Tensor) IsLeaf() bool {
	return t.Producer() == NoOp
}

// Storage returns the storage buffer without adding a reference.
// The buffer stays valid until the tensor is assigned, rewound or released.
func (t *Tensor) Storage() tensor.Buffer {
	return t.mustNode().storage
}

// GradBuffer returns the gradient buffer without adding a reference, or nil
// when the tensor does not require gradients.
func (t *Tensor) GradBuffer() tensor.Buffer {
	return t.mustNode().grad
}

// Value copies the storage to the host.
func (t *Tensor) Value() (*tensor.Array, error) {
	n, err := t.g.node(t)
	if err != nil {
		return nil, err
	}
	return n.storage.ToHost()
}

// Grad copies the accumulated gradient to the host.
// It returns ErrNotDifferentiable when the tensor does not track gradients.
func (t *Tensor) Grad() (*tensor.Array, error) {
	n, err := t.g.node(t)
	if err != nil {
		return nil, err
	}
	if !n.requiresGrad {
		return nil, fmt.Errorf("grad of %q: %w", n.name, ErrNotDifferentiable)
	}
	return n.grad.ToHost()
}

// ZeroGrad resets the accumulated gradient to zeros. It is a no-op for
// tensors that do not require gradients.
func (t *Tensor) ZeroGrad() error {
	n, err := t.g.node(t)
	if err != nil {
		return err
	}
	if !n.requiresGrad {
		return nil
	}
	zeros, err := t.g.backend.Full(n.storage.Shape(), n.storage.DType(), 0)
	if err != nil {
		return fmt.Errorf("zero grad of %q: %w", n.name, err)
	}
	n.grad.Release()
	n.grad = zeros
	return nil
}

// Assign replaces this tensor's storage with a copy of other's storage.
//
// Identity, gradient and producer are untouched, so existing gradients may be
// stale with respect to the new values. Assign is meant for parameter updates
// outside the autograd record. Shapes and dtypes must match.
func (t *Tensor) Assign(other *Tensor) error {
	src, err := t.g.node(other)
	if err != nil {
		return fmt.Errorf("assign: %w", err)
	}
	return t.assignBuffer(src.storage)
}

// AssignArray replaces this tensor's storage with an upload of a.
func (t *Tensor) AssignArray(a *tensor.Array) error {
	buf, err := t.g.backend.FromHost(a)
	if err != nil {
		return fmt.Errorf("assign: %w", err)
	}
	defer buf.Release()
	return t.assignBuffer(buf)
}

func (t *Tensor) assignBuffer(src tensor.Buffer) error {
	n, err := t.g.node(t)
	if err != nil {
		return fmt.Errorf("assign: %w", err)
	}
	if err := tensor.CheckSameLayout("assign", n.storage, src); err != nil {
		return err
	}
	copied, err := t.g.backend.Clone(src)
	if err != nil {
		return fmt.Errorf("assign: %w", err)
	}
	n.storage.Release()
	n.storage = copied
	return nil
}

// String returns a short description of the tensor.
func (t *Tensor) String() string {
	n, err := t.g.node(t)
	if err != nil {
		return fmt.Sprintf("Tensor(<%v>)", err)
	}
	label := n.name
	if label == "" {
		label = fmt.Sprintf("#%d", t.id)
	}
	return fmt.Sprintf("Tensor(%s, %s%v on %s, requires_grad=%t)",
		label, n.storage.DType(), n.storage.Shape(), n.storage.Device(), n.requiresGrad)
}
