//go:build !windows

package webgpu

// Probe reports the adapter a Context would open. WebGPU support is only
// built on windows.
func Probe(cfg Config) (Info, error) {
	if err := cfg.Validate(); err != nil {
		return Info{}, err
	}
	return Info{}, ErrUnavailable
}
