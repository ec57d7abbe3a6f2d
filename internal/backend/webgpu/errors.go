package webgpu

import "errors"

// Common errors.
var (
	// ErrUnavailable is returned when no WebGPU runtime can be loaded on this
	// platform or machine.
	ErrUnavailable   = errors.New("webgpu: not available")
	ErrInvalidDevice = errors.New("webgpu: invalid device")
	ErrContextClosed = errors.New("webgpu: context released")
	ErrKernel        = errors.New("webgpu: kernel compile failed")
)
