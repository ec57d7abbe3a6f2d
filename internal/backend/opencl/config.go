package opencl

import "fmt"

// Config selects the OpenCL device a Context opens.
type Config struct {
	// DeviceIndex indexes the devices reported by the platform, in
	// enumeration order.
	DeviceIndex int
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.DeviceIndex < 0 {
		return fmt.Errorf("%w: index %d", ErrInvalidDevice, c.DeviceIndex)
	}
	return nil
}

// Info describes an opened device.
type Info struct {
	Index int
	Name  string
}

// checkDeviceCount maps an enumeration of n devices onto the configured index.
// No devices at all means OpenCL is unavailable rather than misconfigured.
func (c Config) checkDeviceCount(n int) error {
	if n == 0 {
		return fmt.Errorf("%w: no devices enumerated", ErrUnavailable)
	}
	if c.DeviceIndex >= n {
		return fmt.Errorf("%w: index %d, %d devices present", ErrInvalidDevice, c.DeviceIndex, n)
	}
	return nil
}
