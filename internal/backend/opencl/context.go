//go:build opencl

// Package opencl runs the autograd kernels on an OpenCL device through
// blackcl. Only float32 buffers are supported.
package opencl

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"gitlab.com/microo8/blackcl"
)

//go:embed kernels.cl
var kernelSrc string

const localGroupSize = 64

// Context owns one OpenCL device with the kernel program loaded.
// Create it once and share it between backends.
type Context struct {
	device *blackcl.Device
	info   Info

	mu      sync.Mutex
	kernels map[string]*blackcl.Kernel
}

// NewContext opens the device at cfg.DeviceIndex and builds the kernel
// program on it.
func NewContext(cfg Config) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	devices, err := blackcl.GetDevices(blackcl.DeviceTypeAll)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := cfg.checkDeviceCount(len(devices)); err != nil {
		for _, d := range devices {
			d.Release()
		}
		return nil, err
	}
	for i, d := range devices {
		if i != cfg.DeviceIndex {
			d.Release()
		}
	}

	c := &Context{
		device:  devices[cfg.DeviceIndex],
		info:    Info{Index: cfg.DeviceIndex, Name: devices[cfg.DeviceIndex].Name()},
		kernels: make(map[string]*blackcl.Kernel),
	}
	if err := c.build(); err != nil {
		c.device.Release()
		return nil, err
	}
	log.Info().Int("index", c.info.Index).Str("device", c.info.Name).Msg("opencl context ready")
	return c, nil
}

// Probe opens and releases a context, returning its device info.
func Probe(cfg Config) (Info, error) {
	c, err := NewContext(cfg)
	if err != nil {
		return Info{}, err
	}
	defer c.Release()
	return c.Info(), nil
}

// build compiles the program. blackcl panics on compile errors.
func (c *Context) build() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: build program: %v", ErrKernel, r)
		}
	}()
	c.device.AddProgram(kernelSrc)
	return nil
}

// Info returns the device description.
func (c *Context) Info() Info {
	return c.info
}

// Release frees the device.
func (c *Context) Release() {
	if err := c.device.Release(); err != nil {
		log.Warn().Err(err).Msg("opencl: release device")
	}
}

// kernel returns the named kernel, looking it up once.
func (c *Context) kernel(name string) (k *blackcl.Kernel, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if k, ok := c.kernels[name]; ok {
		return k, nil
	}
	defer func() {
		if r := recover(); r != nil {
			k, err = nil, fmt.Errorf("%w: %s: %v", ErrKernel, name, r)
		}
	}()
	k = c.device.Kernel(name)
	c.kernels[name] = k
	return k, nil
}

// run launches kernel name over n work items and waits for it.
func (c *Context) run(name string, n int, args ...interface{}) error {
	k, err := c.kernel(name)
	if err != nil {
		return err
	}
	local := 1
	if n%localGroupSize == 0 {
		local = localGroupSize
	}
	if err := <-k.Global(n).Local(local).Run(args...); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrKernel, name, err)
	}
	kernelLaunches.WithLabelValues(name).Inc()
	return nil
}

// vector allocates an uninitialised device vector of n floats.
func (c *Context) vector(n int) (*blackcl.Vector, error) {
	v, err := c.device.NewVector(n)
	if err != nil {
		return nil, fmt.Errorf("opencl: allocate %d floats: %w", n, err)
	}
	return v, nil
}
