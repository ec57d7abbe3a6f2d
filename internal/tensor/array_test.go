package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArrayZeroFilled(t *testing.T) {
	a, err := NewArray(Shape{2, 3}, Float32)
	require.NoError(t, err)

	assert.Equal(t, 6, a.NumElements())
	assert.Equal(t, 24, a.ByteSize())
	assert.Equal(t, []float32{0, 0, 0, 0, 0, 0}, a.AsFloat32())
}

func TestNewArrayRejectsBadShape(t *testing.T) {
	_, err := NewArray(Shape{2, 0}, Float32)
	require.ErrorIs(t, err, ErrInvalidShape)

	_, err = NewArray(Shape{2}, DataType(42))
	require.ErrorIs(t, err, ErrUnsupportedDType)
}

func TestArrayFromFloat32LengthMismatch(t *testing.T) {
	_, err := ArrayFromFloat32([]float32{1, 2, 3}, Shape{2, 2})
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestArrayZeroCopyViews(t *testing.T) {
	a, err := NewArray(Shape{3}, Int64)
	require.NoError(t, err)

	a.AsInt64()[1] = 42
	assert.Equal(t, int64(42), a.AsInt64()[1])

	assert.Panics(t, func() { a.AsFloat32() })
}

func TestArrayCloneIsDeep(t *testing.T) {
	a, err := ArrayFromFloat64([]float64{1, 2, 3}, Shape{3})
	require.NoError(t, err)

	b := a.Clone()
	require.True(t, a.Equal(b))

	b.AsFloat64()[0] = 100
	assert.False(t, a.Equal(b))
	assert.Equal(t, 1.0, a.AsFloat64()[0])
}

func TestFullArray(t *testing.T) {
	a, err := FullArray(Shape{2, 2}, Float32, 1)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 1, 1}, a.AsFloat32())

	b, err := FullArray(Shape{2}, Int32, 7)
	require.NoError(t, err)
	assert.Equal(t, []int32{7, 7}, b.AsInt32())
}

func TestArrayOfConvertsDType(t *testing.T) {
	a, err := ArrayOf([]float64{1.5, -2}, Shape{2}, Float32)
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2}, a.AsFloat32())
	assert.Equal(t, []float64{1.5, -2}, a.Float64s())
}

func TestReduceTo(t *testing.T) {
	a, err := ArrayFromFloat32([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)

	rows, err := ReduceTo(a, Shape{2, 1})
	require.NoError(t, err)
	assert.Equal(t, []float32{6, 15}, rows.AsFloat32())

	cols, err := ReduceTo(a, Shape{3})
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 7, 9}, cols.AsFloat32())

	all, err := ReduceTo(a, Shape{1})
	require.NoError(t, err)
	assert.Equal(t, []float32{21}, all.AsFloat32())

	same, err := ReduceTo(a, Shape{2, 3})
	require.NoError(t, err)
	assert.True(t, same.Equal(a))

	_, err = ReduceTo(a, Shape{4})
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestParseDataType(t *testing.T) {
	for _, dt := range []DataType{Float32, Float64, Int32, Int64} {
		got, err := ParseDataType(dt.String())
		require.NoError(t, err)
		assert.Equal(t, dt, got)
	}

	_, err := ParseDataType("bfloat16")
	require.ErrorIs(t, err, ErrUnsupportedDType)
}

func TestRefCountFreesOnLastRelease(t *testing.T) {
	freed := 0
	var rc RefCount
	rc.Init(func() { freed++ })

	rc.Inc()
	rc.Dec()
	assert.Equal(t, 0, freed)
	assert.True(t, rc.Alive())

	rc.Dec()
	assert.Equal(t, 1, freed)
	assert.False(t, rc.Alive())
}
