package tensor

import "fmt"

// ArrayOf builds an array of the given dtype from float64 values.
func ArrayOf(values []float64, shape Shape, dtype DataType) (*Array, error) {
	if shape.NumElements() != len(values) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, got %d",
			ErrShapeMismatch, shape, shape.NumElements(), len(values))
	}
	a, err := NewArray(shape, dtype)
	if err != nil {
		return nil, err
	}
	switch dtype {
	case Float32:
		d := a.AsFloat32()
		for i, v := range values {
			d[i] = float32(v)
		}
	case Float64:
		copy(a.AsFloat64(), values)
	case Int32:
		d := a.AsInt32()
		for i, v := range values {
			d[i] = int32(v)
		}
	case Int64:
		d := a.AsInt64()
		for i, v := range values {
			d[i] = int64(v)
		}
	}
	return a, nil
}

// ReduceTo sums a over the dimensions that broadcasting expanded, producing an
// array of shape target. It is the adjoint of broadcasting target up to
// a.Shape(), used to bring gradients back to an input's shape.
//
//	a[3,4] -> target[3,1]: sum along dim 1
//	a[2,3] -> target[1]:   sum everything
func ReduceTo(a *Array, target Shape) (*Array, error) {
	if a.Shape().Equal(target) {
		return a.Clone(), nil
	}
	out, needs, err := BroadcastShapes(a.Shape(), target)
	if err != nil {
		return nil, err
	}
	if !needs || !out.Equal(a.Shape()) {
		return nil, fmt.Errorf("%w: %v does not broadcast to %v", ErrShapeMismatch, target, a.Shape())
	}

	result, err := NewArray(target, a.DType())
	if err != nil {
		return nil, err
	}
	bc := NewBroadcaster(a.Shape(), target)
	switch a.DType() {
	case Float32:
		src, dst := a.AsFloat32(), result.AsFloat32()
		for i, v := range src {
			dst[bc.Index(i)] += v
		}
	case Float64:
		src, dst := a.AsFloat64(), result.AsFloat64()
		for i, v := range src {
			dst[bc.Index(i)] += v
		}
	default:
		return nil, fmt.Errorf("reduce: %w: %s", ErrUnsupportedDType, a.DType())
	}
	return result, nil
}
