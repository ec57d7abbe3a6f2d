package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/grad/internal/tensor"
)

func upload(t *testing.T, b *CPUBackend, data []float32, shape tensor.Shape) tensor.Buffer {
	t.Helper()
	a, err := tensor.ArrayFromFloat32(data, shape)
	require.NoError(t, err)
	buf, err := b.FromHost(a)
	require.NoError(t, err)
	return buf
}

func host32(t *testing.T, buf tensor.Buffer) []float32 {
	t.Helper()
	a, err := buf.ToHost()
	require.NoError(t, err)
	return a.AsFloat32()
}

func TestCPUBackend_New(t *testing.T) {
	b := New()
	assert.Equal(t, "CPU", b.Name())
	assert.Equal(t, tensor.CPU, b.Device())
}

func TestFromHost_CopiesInput(t *testing.T) {
	b := New()
	a, err := tensor.ArrayFromFloat32([]float32{1, 2, 3}, tensor.Shape{3})
	require.NoError(t, err)

	buf, err := b.FromHost(a)
	require.NoError(t, err)
	a.AsFloat32()[0] = 99

	assert.Equal(t, []float32{1, 2, 3}, host32(t, buf))
}

func TestFull(t *testing.T) {
	b := New()
	buf, err := b.Full(tensor.Shape{2, 2}, tensor.Float64, 1.5)
	require.NoError(t, err)

	a, err := buf.ToHost()
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 1.5, 1.5, 1.5}, a.AsFloat64())
}

func TestAccumulate(t *testing.T) {
	b := New()
	dst := upload(t, b, []float32{1, 2, 3}, tensor.Shape{3})
	src := upload(t, b, []float32{10, 20, 30}, tensor.Shape{3})

	require.NoError(t, b.Accumulate(dst, src))
	assert.Equal(t, []float32{11, 22, 33}, host32(t, dst))
	assert.Equal(t, []float32{10, 20, 30}, host32(t, src))
}

func TestAccumulate_ShapeMismatch(t *testing.T) {
	b := New()
	dst := upload(t, b, []float32{1, 2, 3}, tensor.Shape{3})
	src := upload(t, b, []float32{1, 2}, tensor.Shape{2})

	err := b.Accumulate(dst, src)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestRelease_FreesStorage(t *testing.T) {
	b := New()
	buf := upload(t, b, []float32{1}, tensor.Shape{1})
	buf.Retain()
	buf.Release()

	_, err := buf.ToHost()
	require.NoError(t, err)

	buf.Release()
	_, err = buf.ToHost()
	assert.ErrorIs(t, err, tensor.ErrReleased)
}

func TestReLU(t *testing.T) {
	b := New()
	x := upload(t, b, []float32{-2, 0, 3}, tensor.Shape{3})

	y, err := b.ReLU(x)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 3}, host32(t, y))

	g := upload(t, b, []float32{5, 5, 5}, tensor.Shape{3})
	gx, err := b.ReLUBackward(x, g)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 5}, host32(t, gx))
}

func TestAdd_Broadcast(t *testing.T) {
	b := New()
	x := upload(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	y := upload(t, b, []float32{10, 20, 30}, tensor.Shape{3})
	s := upload(t, b, []float32{1}, tensor.Shape{1})

	z, err := b.Add(x, y)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, z.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, host32(t, z))

	z, err = b.Add(x, s)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3, 4, 5, 6, 7}, host32(t, z))
}

func TestAdd_Incompatible(t *testing.T) {
	b := New()
	x := upload(t, b, []float32{1, 2, 3}, tensor.Shape{3})
	y := upload(t, b, []float32{1, 2}, tensor.Shape{2})

	_, err := b.Add(x, y)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestSubMulScalePow(t *testing.T) {
	b := New()
	x := upload(t, b, []float32{1, 2, 3}, tensor.Shape{3})
	y := upload(t, b, []float32{4, 5, 6}, tensor.Shape{3})

	d, err := b.Sub(x, y)
	require.NoError(t, err)
	assert.Equal(t, []float32{-3, -3, -3}, host32(t, d))

	p, err := b.Mul(x, y)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 10, 18}, host32(t, p))

	s, err := b.Scale(x, -2)
	require.NoError(t, err)
	assert.Equal(t, []float32{-2, -4, -6}, host32(t, s))

	sq, err := b.Pow(x, 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1, 4, 9}, host32(t, sq), 1e-6)
}

func TestMatMul(t *testing.T) {
	b := New()
	a := upload(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	m := upload(t, b, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	c, err := b.MatMul(a, m, false, false)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2}, c.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, host32(t, c))

	// a^T @ a is 3x3.
	ata, err := b.MatMul(a, a, true, false)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 3}, ata.Shape())
	assert.Equal(t, []float32{17, 22, 27, 22, 29, 36, 27, 36, 45}, host32(t, ata))

	_, err = b.MatMul(a, a, false, false)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestSumBroadcastReduce(t *testing.T) {
	b := New()
	x := upload(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	s, err := b.Sum(x)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1}, s.Shape())
	assert.Equal(t, []float32{21}, host32(t, s))

	e, err := b.BroadcastTo(s, tensor.Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float32{21, 21, 21, 21, 21, 21}, host32(t, e))

	r, err := b.ReduceTo(x, tensor.Shape{3})
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 7, 9}, host32(t, r))

	r, err = b.ReduceTo(x, tensor.Shape{2, 1})
	require.NoError(t, err)
	assert.Equal(t, []float32{6, 15}, host32(t, r))
}

func TestOps_RegistersLibrary(t *testing.T) {
	names := make([]string, 0)
	for _, op := range Ops(New()) {
		names = append(names, op.Name)
	}
	assert.ElementsMatch(t, []string{"ReLU", "Add", "Sub", "Mul", "Pow", "MatMul", "Sum"}, names)
}
