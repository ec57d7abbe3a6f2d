package ops_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/autograd/ops"
	"github.com/born-ml/grad/internal/backend/cpu"
	"github.com/born-ml/grad/internal/tensor"
)

func buffer(t *testing.T, b tensor.Backend, data []float32, shape tensor.Shape) tensor.Buffer {
	t.Helper()
	a, err := tensor.ArrayFromFloat32(data, shape)
	require.NoError(t, err)
	buf, err := b.FromHost(a)
	require.NoError(t, err)
	return buf
}

func floats(t *testing.T, buf tensor.Buffer) []float32 {
	t.Helper()
	a, err := buf.ToHost()
	require.NoError(t, err)
	return a.AsFloat32()
}

// TestReLUOp_Backward checks the gate against the saved input.
func TestReLUOp_Backward(t *testing.T) {
	b := cpu.New()
	made, err := ops.Library(b)[0].New(nil)
	require.NoError(t, err)
	op, ok := made.(*ops.ReLUOp)
	require.True(t, ok)

	x := buffer(t, b, []float32{-2, 0, 3}, tensor.Shape{3})
	out, err := op.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 3}, floats(t, out))

	up := buffer(t, b, []float32{1, 1, 1}, tensor.Shape{3})
	grads, err := op.Backward(up)
	require.NoError(t, err)
	require.Len(t, grads, 1)
	assert.Equal(t, []float32{0, 0, 1}, floats(t, grads[0]))

	wrong := buffer(t, b, []float32{1, 1}, tensor.Shape{2})
	_, err = op.Backward(wrong)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	op.ReleaseSaved()
	assert.Empty(t, op.SavedValues())
}

// TestAddOp_BroadcastBackward reduces the gradient to each input shape.
func TestAddOp_BroadcastBackward(t *testing.T) {
	b := cpu.New()
	made, err := ops.Library(b)[1].New(nil)
	require.NoError(t, err)

	x := buffer(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	y := buffer(t, b, []float32{1}, tensor.Shape{1})
	_, err = made.Forward(x, y)
	require.NoError(t, err)

	up := buffer(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	grads, err := made.Backward(up)
	require.NoError(t, err)
	require.Len(t, grads, 2)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, floats(t, grads[0]))
	assert.Equal(t, []float32{21}, floats(t, grads[1]))
}

func TestForward_WrongNumInputs(t *testing.T) {
	b := cpu.New()
	for _, typ := range ops.Library(b) {
		if typ.Name == "Pow" {
			continue
		}
		op, err := typ.New(nil)
		require.NoError(t, err)
		_, err = op.Forward()
		assert.ErrorIs(t, err, autograd.ErrWrongNumInputs, typ.Name)
	}
}

// reluOnly is a backend that only provides the required kernels.
type reluOnly struct {
	ops.Kernels
}

func TestLibrary_ArithmeticIsOptional(t *testing.T) {
	lib := ops.Library(reluOnly{cpu.New()})
	require.Len(t, lib, 2)
	assert.Equal(t, "ReLU", lib[0].Name)
	assert.Equal(t, "Add", lib[1].Name)
}

// loss computes sum((relu(x @ w) - 1)^2) in a fresh graph and returns the
// value and the gradient with respect to x.
func loss(t *testing.T, x, w []float64) (float64, []float64) {
	t.Helper()
	b := cpu.New()
	g := autograd.NewGraph(b, autograd.MustRegistry(ops.Library(b)...))
	defer g.Release()

	xt, err := g.FromFloat64(x, tensor.Shape{2, 2}, true, "x")
	require.NoError(t, err)
	wt, err := g.FromFloat64(w, tensor.Shape{2, 2}, false, "w")
	require.NoError(t, err)

	h := autograd.Must(autograd.Must(xt.MatMul(wt)).ReLU())
	d := autograd.Must(h.Sub(1.0))
	l := autograd.Must(autograd.Must(d.Pow(2)).Sum())
	require.NoError(t, l.Backward())

	v, err := l.Value()
	require.NoError(t, err)
	gx, err := xt.Grad()
	require.NoError(t, err)
	return v.AsFloat64()[0], gx.AsFloat64()
}

func TestNumericalGradient_Composite(t *testing.T) {
	x := []float64{0.5, -1.2, 2.0, 0.7}
	w := []float64{1.1, 0.3, -0.4, 0.9}
	const eps = 1e-6

	_, analytic := loss(t, x, w)
	for i := range x {
		plus := append([]float64(nil), x...)
		minus := append([]float64(nil), x...)
		plus[i] += eps
		minus[i] -= eps
		fp, _ := loss(t, plus, w)
		fm, _ := loss(t, minus, w)
		numeric := (fp - fm) / (2 * eps)
		assert.InDelta(t, numeric, analytic[i], 1e-4, "element %d", i)
		assert.False(t, math.IsNaN(analytic[i]))
	}
}

func TestBackward_RejectsWrongUpstreamShape(t *testing.T) {
	b := cpu.New()
	r := autograd.MustRegistry(ops.Library(b)...)

	tests := []struct {
		name  string
		attrs autograd.Attrs
		in    []tensor.Shape
		up    tensor.Shape
	}{
		{"mul", nil, []tensor.Shape{{3}, {3}}, tensor.Shape{1}},
		{"pow", autograd.Attrs{"exponent": 2.0}, []tensor.Shape{{3}}, tensor.Shape{1}},
		{"sum", nil, []tensor.Shape{{3}}, tensor.Shape{3}},
		{"add", nil, []tensor.Shape{{3}, {3}}, tensor.Shape{1}},
		{"sub", nil, []tensor.Shape{{3}, {1}}, tensor.Shape{1}},
		{"matmul", nil, []tensor.Shape{{2, 3}, {3, 1}}, tensor.Shape{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, ok := r.Lookup(tt.name)
			require.True(t, ok)
			op, err := typ.New(tt.attrs)
			require.NoError(t, err)

			inputs := make([]tensor.Buffer, len(tt.in))
			for i, s := range tt.in {
				data := make([]float32, s.NumElements())
				for j := range data {
					data[j] = float32(j + 1)
				}
				inputs[i] = buffer(t, b, data, s)
			}
			_, err = op.Forward(inputs...)
			require.NoError(t, err)

			up := buffer(t, b, make([]float32, tt.up.NumElements()), tt.up)
			grads, err := op.Backward(up)
			assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
			assert.Nil(t, grads)
		})
	}
}
