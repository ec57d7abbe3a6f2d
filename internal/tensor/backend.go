package tensor

// Backend creates and combines Buffers on one compute device.
//
// Implementations:
//   - cpu: host-resident arrays, gonum kernels
//   - webgpu: WGSL compute kernels on a WebGPU device
//   - opencl: OpenCL C kernels on an OpenCL device
//
// Every method allocates fresh output storage; nothing is pooled across calls.
// Operation kernels are not part of this interface: each backend package ships
// its own operation library for the autograd registry.
type Backend interface {
	// Name returns a human-readable backend name.
	Name() string

	// Device returns the compute device this backend allocates on.
	Device() Device

	// FromHost uploads a copy of a host array.
	FromHost(a *Array) (Buffer, error)

	// Empty allocates uninitialised storage without any host transfer.
	Empty(shape Shape, dtype DataType) (Buffer, error)

	// Full allocates storage with every element set to v.
	Full(shape Shape, dtype DataType, v float64) (Buffer, error)

	// Clone returns a new buffer holding a copy of b.
	Clone(b Buffer) (Buffer, error)

	// Accumulate adds src into dst in place. Shapes and dtypes must match
	// exactly; no broadcasting.
	Accumulate(dst, src Buffer) error
}
