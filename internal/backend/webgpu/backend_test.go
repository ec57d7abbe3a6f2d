//go:build windows

package webgpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/tensor"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	ctx, err := NewContext(Config{})
	if errors.Is(err, ErrUnavailable) {
		t.Skipf("webgpu not available: %v", err)
	}
	require.NoError(t, err)
	t.Cleanup(ctx.Release)
	return New(ctx)
}

func upload(t *testing.T, b *Backend, data []float32, shape tensor.Shape) tensor.Buffer {
	t.Helper()
	a, err := tensor.ArrayFromFloat32(data, shape)
	require.NoError(t, err)
	buf, err := b.FromHost(a)
	require.NoError(t, err)
	t.Cleanup(buf.Release)
	return buf
}

func host(t *testing.T, buf tensor.Buffer) []float32 {
	t.Helper()
	a, err := buf.ToHost()
	require.NoError(t, err)
	return a.AsFloat32()
}

func TestConfig_OnlyDefaultAdapter(t *testing.T) {
	_, err := NewContext(Config{DeviceIndex: 1})
	assert.ErrorIs(t, err, ErrInvalidDevice)
}

func TestRoundTrip(t *testing.T) {
	b := newTestBackend(t)
	x := upload(t, b, []float32{1.5, -2, 0, 7}, tensor.Shape{2, 2})
	assert.Equal(t, []float32{1.5, -2, 0, 7}, host(t, x))
}

func TestFromHost_RejectsFloat64(t *testing.T) {
	b := newTestBackend(t)
	a, err := tensor.ArrayFromFloat64([]float64{1}, tensor.Shape{1})
	require.NoError(t, err)
	_, err = b.FromHost(a)
	assert.ErrorIs(t, err, tensor.ErrUnsupportedDType)
}

func TestKernels(t *testing.T) {
	b := newTestBackend(t)
	x := upload(t, b, []float32{-2, 0, 3}, tensor.Shape{3})

	y, err := b.ReLU(x)
	require.NoError(t, err)
	defer y.Release()
	assert.Equal(t, []float32{0, 0, 3}, host(t, y))

	ones, err := b.Full(tensor.Shape{3}, tensor.Float32, 1)
	require.NoError(t, err)
	defer ones.Release()
	gx, err := b.ReLUBackward(x, ones)
	require.NoError(t, err)
	defer gx.Release()
	assert.Equal(t, []float32{0, 0, 1}, host(t, gx))

	s, err := b.Add(x, upload(t, b, []float32{1}, tensor.Shape{1}))
	require.NoError(t, err)
	defer s.Release()
	assert.Equal(t, []float32{-1, 1, 4}, host(t, s))

	require.NoError(t, b.Accumulate(ones, x))
	assert.Equal(t, []float32{-1, 1, 4}, host(t, ones))
}

func TestGraph_ReLUBackward(t *testing.T) {
	b := newTestBackend(t)
	g := autograd.NewGraph(b, autograd.MustRegistry(Ops(b)...))
	defer g.Release()

	x, err := g.FromFloat32([]float32{-2, 0, 3}, tensor.Shape{3}, true, "x")
	require.NoError(t, err)
	y := autograd.Must(autograd.Must(x.ReLU()).Add(1.0))
	require.NoError(t, y.Backward())

	gx, err := x.Grad()
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 1}, gx.AsFloat32())
}
