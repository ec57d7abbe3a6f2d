package webgpu

import "fmt"

// Config selects the device a Context opens.
type Config struct {
	// DeviceIndex picks the adapter. WebGPU exposes only the default adapter,
	// so 0 is the only valid value.
	DeviceIndex int
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.DeviceIndex != 0 {
		return fmt.Errorf("%w: index %d (only the default adapter, 0, is exposed)", ErrInvalidDevice, c.DeviceIndex)
	}
	return nil
}

// Info describes an opened adapter.
type Info struct {
	Name       string
	VendorName string
}
