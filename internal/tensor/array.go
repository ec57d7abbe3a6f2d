package tensor

import (
	"bytes"
	"fmt"
	"unsafe"
)

// Device represents the compute device a buffer lives on.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	WebGPU
	OpenCL
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case WebGPU:
		return "WebGPU"
	case OpenCL:
		return "OpenCL"
	default:
		return "Unknown"
	}
}

// Array is a host-resident, contiguous, row-major numeric array.
// It is the ingestion and egress format of every Backend.
type Array struct {
	data  []byte
	shape Shape
	dtype DataType
}

// NewArray allocates a zero-filled array with the given shape and type.
func NewArray(shape Shape, dtype DataType) (*Array, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if dtype < Float32 || dtype > Int64 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDType, int(dtype))
	}
	return &Array{
		data:  make([]byte, shape.NumElements()*dtype.Size()),
		shape: shape.Clone(),
		dtype: dtype,
	}, nil
}

// ArrayFromFloat32 copies data into a new Float32 array.
func ArrayFromFloat32(data []float32, shape Shape) (*Array, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, got %d",
			ErrShapeMismatch, shape, shape.NumElements(), len(data))
	}
	a, err := NewArray(shape, Float32)
	if err != nil {
		return nil, err
	}
	copy(a.AsFloat32(), data)
	return a, nil
}

// ArrayFromFloat64 copies data into a new Float64 array.
func ArrayFromFloat64(data []float64, shape Shape) (*Array, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, got %d",
			ErrShapeMismatch, shape, shape.NumElements(), len(data))
	}
	a, err := NewArray(shape, Float64)
	if err != nil {
		return nil, err
	}
	copy(a.AsFloat64(), data)
	return a, nil
}

// FullArray returns an array with every element set to v.
func FullArray(shape Shape, dtype DataType, v float64) (*Array, error) {
	a, err := NewArray(shape, dtype)
	if err != nil {
		return nil, err
	}
	if v == 0 {
		return a, nil
	}
	switch dtype {
	case Float32:
		d := a.AsFloat32()
		for i := range d {
			d[i] = float32(v)
		}
	case Float64:
		d := a.AsFloat64()
		for i := range d {
			d[i] = v
		}
	case Int32:
		d := a.AsInt32()
		for i := range d {
			d[i] = int32(v)
		}
	case Int64:
		d := a.AsInt64()
		for i := range d {
			d[i] = int64(v)
		}
	}
	return a, nil
}

// Shape returns the array's shape.
func (a *Array) Shape() Shape {
	return a.shape
}

// DType returns the array's data type.
func (a *Array) DType() DataType {
	return a.dtype
}

// NumElements returns the total number of elements.
func (a *Array) NumElements() int {
	return a.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (a *Array) ByteSize() int {
	return len(a.data)
}

// Bytes returns the raw little-endian bytes backing the array.
// WARNING: Direct access to underlying memory.
func (a *Array) Bytes() []byte {
	return a.data
}

// AsFloat32 interprets the data as []float32.
// Panics if the array's dtype is not Float32.
func (a *Array) AsFloat32() []float32 {
	if a.dtype != Float32 {
		panic(fmt.Sprintf("array dtype is %s, not float32", a.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&a.data[0])), a.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the array's dtype is not Float64.
func (a *Array) AsFloat64() []float64 {
	if a.dtype != Float64 {
		panic(fmt.Sprintf("array dtype is %s, not float64", a.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&a.data[0])), a.NumElements())
}

// AsInt32 interprets the data as []int32.
// Panics if the array's dtype is not Int32.
func (a *Array) AsInt32() []int32 {
	if a.dtype != Int32 {
		panic(fmt.Sprintf("array dtype is %s, not int32", a.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*int32)(unsafe.Pointer(&a.data[0])), a.NumElements())
}

// AsInt64 interprets the data as []int64.
// Panics if the array's dtype is not Int64.
func (a *Array) AsInt64() []int64 {
	if a.dtype != Int64 {
		panic(fmt.Sprintf("array dtype is %s, not int64", a.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*int64)(unsafe.Pointer(&a.data[0])), a.NumElements())
}

// Float64s returns a copy of the contents converted to float64.
func (a *Array) Float64s() []float64 {
	out := make([]float64, a.NumElements())
	switch a.dtype {
	case Float32:
		for i, v := range a.AsFloat32() {
			out[i] = float64(v)
		}
	case Float64:
		copy(out, a.AsFloat64())
	case Int32:
		for i, v := range a.AsInt32() {
			out[i] = float64(v)
		}
	case Int64:
		for i, v := range a.AsInt64() {
			out[i] = float64(v)
		}
	}
	return out
}

// Clone returns a deep copy of the array.
func (a *Array) Clone() *Array {
	data := make([]byte, len(a.data))
	copy(data, a.data)
	return &Array{data: data, shape: a.shape.Clone(), dtype: a.dtype}
}

// Equal reports whether two arrays match in shape, dtype and contents.
func (a *Array) Equal(other *Array) bool {
	return a.dtype == other.dtype && a.shape.Equal(other.shape) && bytes.Equal(a.data, other.data)
}

// String returns a short description including the values.
func (a *Array) String() string {
	return fmt.Sprintf("Array[%s]%v%v", a.dtype, a.shape, a.Float64s())
}
