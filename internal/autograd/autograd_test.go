package autograd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/backend/cpu"
	"github.com/born-ml/grad/internal/tensor"
)

func newGraph(t *testing.T) *autograd.Graph {
	t.Helper()
	b := cpu.New()
	g := autograd.NewGraph(b, autograd.MustRegistry(cpu.Ops(b)...))
	t.Cleanup(g.Release)
	return g
}

func leaf(t *testing.T, g *autograd.Graph, data []float32, shape tensor.Shape, requiresGrad bool) *autograd.Tensor {
	t.Helper()
	x, err := g.FromFloat32(data, shape, requiresGrad, "x")
	require.NoError(t, err)
	return x
}

func value(t *testing.T, x *autograd.Tensor) []float32 {
	t.Helper()
	a, err := x.Value()
	require.NoError(t, err)
	return a.AsFloat32()
}

func grad(t *testing.T, x *autograd.Tensor) []float32 {
	t.Helper()
	a, err := x.Grad()
	require.NoError(t, err)
	return a.AsFloat32()
}

func TestReLU_Forward(t *testing.T) {
	g := newGraph(t)
	x := leaf(t, g, []float32{-2, 0, 3}, tensor.Shape{3}, true)

	y, err := x.ReLU()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 3}, value(t, y))
	assert.True(t, y.RequiresGrad())
	assert.False(t, y.IsLeaf())
	assert.Equal(t, "relu", g.OpName(y.Producer()))
	assert.Equal(t, []autograd.TensorID{x.ID()}, g.Parents(y.Producer()))
}

func TestReLU_BackwardGateIsZeroAtZero(t *testing.T) {
	g := newGraph(t)
	x := leaf(t, g, []float32{-2, 0, 3}, tensor.Shape{3}, true)
	y := autograd.Must(x.ReLU())

	require.NoError(t, y.Backward())
	assert.Equal(t, []float32{0, 0, 1}, grad(t, x))
}

func TestBackward_SeedsRootWithOnes(t *testing.T) {
	g := newGraph(t)
	x := leaf(t, g, []float32{1, 2, 3, 4}, tensor.Shape{2, 2}, true)
	y := autograd.Must(x.ReLU())

	require.NoError(t, y.Backward())
	assert.Equal(t, []float32{1, 1, 1, 1}, grad(t, y))
}

func TestBackward_LeafIsNoOp(t *testing.T) {
	g := newGraph(t)
	x := leaf(t, g, []float32{1, 2}, tensor.Shape{2}, true)
	y := autograd.Must(x.Add(1.0))
	require.NoError(t, y.Backward())
	before := grad(t, x)

	require.NoError(t, x.Backward())
	assert.Equal(t, before, grad(t, x))
	assert.Equal(t, []float32{1, 1}, before)
}

func TestBackward_NotDifferentiable(t *testing.T) {
	g := newGraph(t)
	x := leaf(t, g, []float32{1}, tensor.Shape{1}, false)

	assert.ErrorIs(t, x.Backward(), autograd.ErrNotDifferentiable)
	_, err := x.Grad()
	assert.ErrorIs(t, err, autograd.ErrNotDifferentiable)
}

func TestBackward_AccumulatesAcrossConsumers(t *testing.T) {
	for _, order := range []string{"add first", "mul first"} {
		t.Run(order, func(t *testing.T) {
			g := newGraph(t)
			x := leaf(t, g, []float32{1, 2, 3}, tensor.Shape{3}, true)
			b := autograd.Must(x.Add(1.0))
			c := autograd.Must(x.Mul(3.0))

			first, second := b, c
			if order == "mul first" {
				first, second = c, b
			}
			require.NoError(t, first.Backward())
			require.NoError(t, second.Backward())

			assert.Equal(t, []float32{4, 4, 4}, grad(t, x))
		})
	}
}

func TestBackward_DiamondRunsEachOpOnce(t *testing.T) {
	g := newGraph(t)
	x := leaf(t, g, []float32{-1, 2}, tensor.Shape{2}, true)
	y := autograd.Must(x.ReLU())
	z := autograd.Must(y.Add(y))

	require.NoError(t, z.Backward())
	assert.Equal(t, []float32{2, 2}, grad(t, y))
	assert.Equal(t, []float32{0, 2}, grad(t, x))
}

func TestBackwardWith_ExplicitSeed(t *testing.T) {
	g := newGraph(t)
	x := leaf(t, g, []float32{-2, 0, 3}, tensor.Shape{3}, true)
	y := autograd.Must(x.ReLU())

	seed, err := tensor.ArrayFromFloat32([]float32{1, 2, 3}, tensor.Shape{3})
	require.NoError(t, err)
	require.NoError(t, y.BackwardWith(seed))
	assert.Equal(t, []float32{0, 0, 3}, grad(t, x))
	assert.Equal(t, []float32{0, 0, 0}, grad(t, y))

	bad, err := tensor.ArrayFromFloat32([]float32{1, 2}, tensor.Shape{2})
	require.NoError(t, err)
	assert.ErrorIs(t, y.BackwardWith(bad), autograd.ErrShapeMismatch)
}

func TestAdd_ScalarKeepsRequiresGrad(t *testing.T) {
	for _, requiresGrad := range []bool{true, false} {
		g := newGraph(t)
		x := leaf(t, g, []float32{1, 2, 3}, tensor.Shape{3}, requiresGrad)

		y, err := x.Add(1.0)
		require.NoError(t, err)
		assert.Equal(t, requiresGrad, y.RequiresGrad())
		assert.Equal(t, []float32{2, 3, 4}, value(t, y))
	}
}

func TestRequiresGrad_Propagation(t *testing.T) {
	g := newGraph(t)
	a := leaf(t, g, []float32{1, 2}, tensor.Shape{2}, false)
	b := leaf(t, g, []float32{3, 4}, tensor.Shape{2}, false)
	c := leaf(t, g, []float32{5, 6}, tensor.Shape{2}, true)

	ab := autograd.Must(a.Add(b))
	assert.False(t, ab.RequiresGrad())
	assert.True(t, ab.IsLeaf())
	assert.Equal(t, autograd.NoOp, ab.Producer())
	assert.Equal(t, []float32{4, 6}, value(t, ab))
	assert.Equal(t, 0, g.NumOps())

	ac := autograd.Must(a.Add(c))
	assert.True(t, ac.RequiresGrad())
	assert.False(t, ac.IsLeaf())
	assert.Equal(t, 1, g.NumOps())
}

func TestMatMulSum_Gradients(t *testing.T) {
	g := newGraph(t)
	a := leaf(t, g, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, true)
	b := leaf(t, g, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2}, true)

	c := autograd.Must(a.MatMul(b))
	assert.Equal(t, []float32{58, 64, 139, 154}, value(t, c))

	s := autograd.Must(c.Sum())
	require.NoError(t, s.Backward())
	assert.Equal(t, []float32{15, 19, 23, 15, 19, 23}, grad(t, a))
	assert.Equal(t, []float32{5, 5, 7, 7, 9, 9}, grad(t, b))
}

func TestPowSub_Gradients(t *testing.T) {
	g := newGraph(t)
	x := leaf(t, g, []float32{1, 2, 3}, tensor.Shape{3}, true)
	target := leaf(t, g, []float32{0, 0, 0}, tensor.Shape{3}, true)

	diff := autograd.Must(x.Sub(target))
	loss := autograd.Must(autograd.Must(diff.Pow(2)).Sum())
	assert.InDeltaSlice(t, []float32{14}, value(t, loss), 1e-5)

	require.NoError(t, loss.Backward())
	assert.InDeltaSlice(t, []float32{2, 4, 6}, grad(t, x), 1e-5)
	assert.InDeltaSlice(t, []float32{-2, -4, -6}, grad(t, target), 1e-5)
}

func TestAdd_BroadcastGradientReduces(t *testing.T) {
	g := newGraph(t)
	x := leaf(t, g, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, true)
	bias := leaf(t, g, []float32{1, 1, 1}, tensor.Shape{3}, true)

	y := autograd.Must(x.Add(bias))
	require.NoError(t, y.Backward())
	assert.Equal(t, []float32{2, 2, 2}, grad(t, bias))
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1}, grad(t, x))
}

func TestCall_Errors(t *testing.T) {
	g := newGraph(t)
	x := leaf(t, g, []float32{1}, tensor.Shape{1}, true)

	_, err := x.Call("softmax")
	assert.ErrorIs(t, err, autograd.ErrUnknownOp)

	_, err = x.Add("one")
	assert.ErrorIs(t, err, autograd.ErrBadArgument)

	_, err = x.Call("pow")
	assert.ErrorIs(t, err, autograd.ErrMissingAttr)

	_, err = x.Call("relu", 1.0)
	assert.ErrorIs(t, err, autograd.ErrWrongNumInputs)

	other := newGraph(t)
	y := leaf(t, other, []float32{1}, tensor.Shape{1}, true)
	_, err = x.Add(y)
	assert.ErrorIs(t, err, autograd.ErrForeignTensor)
}

func TestCall_CaseInsensitive(t *testing.T) {
	g := newGraph(t)
	x := leaf(t, g, []float32{-1, 1}, tensor.Shape{2}, true)

	y, err := x.Call("ReLU")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, value(t, y))
}

func TestRewind_InvalidatesHandles(t *testing.T) {
	g := newGraph(t)
	x := leaf(t, g, []float32{1, 2}, tensor.Shape{2}, true)
	m := g.Mark()

	y := autograd.Must(x.ReLU())
	g.Rewind(m)
	assert.Equal(t, 1, g.NumTensors())
	assert.Equal(t, 0, g.NumOps())

	_, err := y.Value()
	assert.ErrorIs(t, err, autograd.ErrStaleTensor)

	// The slot is reused, the old handle stays stale.
	z := autograd.Must(x.Add(1.0))
	_, err = y.Value()
	assert.ErrorIs(t, err, autograd.ErrStaleTensor)
	assert.Equal(t, []float32{2, 3}, value(t, z))
}

func TestRelease_RejectsNewWork(t *testing.T) {
	b := cpu.New()
	g := autograd.NewGraph(b, autograd.MustRegistry(cpu.Ops(b)...))
	x, err := g.FromFloat32([]float32{1}, tensor.Shape{1}, true, "x")
	require.NoError(t, err)

	g.Release()
	_, err = g.FromFloat32([]float32{1}, tensor.Shape{1}, true, "y")
	assert.ErrorIs(t, err, autograd.ErrGraphReleased)
	_, err = x.Value()
	assert.ErrorIs(t, err, autograd.ErrStaleTensor)
}

func TestAssign_ReplacesValueKeepsGrad(t *testing.T) {
	g := newGraph(t)
	w := leaf(t, g, []float32{1, 2}, tensor.Shape{2}, true)
	y := autograd.Must(w.Mul(2.0))
	require.NoError(t, y.Backward())

	update, err := tensor.ArrayFromFloat32([]float32{5, 6}, tensor.Shape{2})
	require.NoError(t, err)
	require.NoError(t, w.AssignArray(update))
	assert.Equal(t, []float32{5, 6}, value(t, w))
	assert.Equal(t, []float32{2, 2}, grad(t, w))

	require.NoError(t, w.ZeroGrad())
	assert.Equal(t, []float32{0, 0}, grad(t, w))

	wrong := leaf(t, g, []float32{1, 2, 3}, tensor.Shape{3}, false)
	assert.ErrorIs(t, w.Assign(wrong), autograd.ErrShapeMismatch)
}

func TestValue_RoundTrip(t *testing.T) {
	g := newGraph(t)
	a, err := tensor.ArrayFromFloat64([]float64{1.5, -2, 3.25, 0}, tensor.Shape{2, 2})
	require.NoError(t, err)

	x, err := g.NewTensor(a, false, "x")
	require.NoError(t, err)
	back, err := x.Value()
	require.NoError(t, err)
	assert.True(t, a.Equal(back))
	assert.Equal(t, tensor.Float64, x.DType())
}

func TestAdd_IntegerTensorRejectsFractionalNumber(t *testing.T) {
	g := newGraph(t)
	arr, err := tensor.ArrayOf([]float64{1, 2}, tensor.Shape{2}, tensor.Int32)
	require.NoError(t, err)
	x, err := g.NewTensor(arr, false, "counts")
	require.NoError(t, err)

	_, err = x.Add(0.5)
	assert.ErrorIs(t, err, autograd.ErrBadArgument)
	_, err = x.Add([]float64{1, 2.25})
	assert.ErrorIs(t, err, autograd.ErrBadArgument)

	y, err := x.Add(2)
	require.NoError(t, err)
	v, err := y.Value()
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 4}, v.AsInt32())
}
