package opencl

import "errors"

// Common errors.
var (
	// ErrUnavailable is returned when the binary was built without OpenCL
	// support or no platform is installed.
	ErrUnavailable   = errors.New("opencl: not available")
	ErrInvalidDevice = errors.New("opencl: invalid device")
	ErrKernel        = errors.New("opencl: kernel failure")
)
