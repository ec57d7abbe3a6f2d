// Package config holds the settings that choose and set up a compute backend.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Backend names.
const (
	BackendCPU    = "cpu"
	BackendWebGPU = "webgpu"
	BackendOpenCL = "opencl"
)

// Environment variables read by FromEnv.
const (
	EnvBackend  = "GRAD_BACKEND"
	EnvDevice   = "GRAD_DEVICE"
	EnvLogLevel = "GRAD_LOG_LEVEL"
	EnvTrace    = "GRAD_TRACE"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config selects the backend and device a Graph runs on.
type Config struct {
	Backend     string
	DeviceIndex int
	LogLevel    string
	Trace       bool
}

// Default returns the CPU configuration with info logging.
func Default() Config {
	return Config{
		Backend:  BackendCPU,
		LogLevel: zerolog.InfoLevel.String(),
	}
}

// Validate checks every field.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendCPU, BackendWebGPU, BackendOpenCL:
	default:
		return fmt.Errorf("%w: backend %q (want cpu, webgpu or opencl)", ErrInvalid, c.Backend)
	}
	if c.DeviceIndex < 0 {
		return fmt.Errorf("%w: device index %d", ErrInvalid, c.DeviceIndex)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("%w: log level %q", ErrInvalid, c.LogLevel)
	}
	return lvl, nil
}

// FromEnv overlays the GRAD_* environment variables on Default.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	if v, ok := lookup(EnvBackend); ok && v != "" {
		c.Backend = strings.ToLower(v)
	}
	if v, ok := lookup(EnvDevice); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("%w: %s=%q", ErrInvalid, EnvDevice, v)
		}
		c.DeviceIndex = n
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvTrace); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, fmt.Errorf("%w: %s=%q", ErrInvalid, EnvTrace, v)
		}
		c.Trace = b
	}
	return c, c.Validate()
}
