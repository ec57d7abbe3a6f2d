// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/grad/internal/tensor"
)

// DataType represents the element type of a buffer.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
)

// Device represents the compute device a buffer lives on.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	WebGPU Device = tensor.WebGPU
	OpenCL Device = tensor.OpenCL
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Array is a host-resident, contiguous, row-major numeric array.
type Array = tensor.Array

// Buffer is reference-counted device storage.
type Buffer = tensor.Buffer

// Backend creates and combines Buffers on one compute device.
//
// Implementations:
//   - backend/cpu: gonum BLAS on host memory
//   - internal/backend/webgpu: WGSL compute shaders (windows)
//   - internal/backend/opencl: OpenCL C kernels (opencl build tag)
type Backend = tensor.Backend

// Errors reported by buffers and backends.
var (
	ErrInvalidShape     = tensor.ErrInvalidShape
	ErrShapeMismatch    = tensor.ErrShapeMismatch
	ErrDTypeMismatch    = tensor.ErrDTypeMismatch
	ErrUnsupportedDType = tensor.ErrUnsupportedDType
	ErrDeviceMismatch   = tensor.ErrDeviceMismatch
	ErrReleased         = tensor.ErrReleased
)

// ParseDataType converts a name such as "float32" to a DataType.
func ParseDataType(name string) (DataType, error) {
	return tensor.ParseDataType(name)
}

// NewArray allocates a zero-filled host array.
func NewArray(shape Shape, dtype DataType) (*Array, error) {
	return tensor.NewArray(shape, dtype)
}

// ArrayFromFloat32 copies data into a float32 array of the given shape.
func ArrayFromFloat32(data []float32, shape Shape) (*Array, error) {
	return tensor.ArrayFromFloat32(data, shape)
}

// ArrayFromFloat64 copies data into a float64 array of the given shape.
func ArrayFromFloat64(data []float64, shape Shape) (*Array, error) {
	return tensor.ArrayFromFloat64(data, shape)
}

// ArrayOf converts float64 values into an array of any supported dtype.
func ArrayOf(values []float64, shape Shape, dtype DataType) (*Array, error) {
	return tensor.ArrayOf(values, shape, dtype)
}

// FullArray returns a host array with every element set to v.
func FullArray(shape Shape, dtype DataType, v float64) (*Array, error) {
	return tensor.FullArray(shape, dtype, v)
}

// BroadcastShapes returns the broadcast of a and b. The boolean reports
// whether broadcasting was needed.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}

// ReduceTo sums a over the dimensions that were broadcast to reach its shape
// from target.
func ReduceTo(a *Array, target Shape) (*Array, error) {
	return tensor.ReduceTo(a, target)
}
