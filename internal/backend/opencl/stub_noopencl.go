//go:build !opencl

package opencl

// Probe reports the device a Context would open. Build with -tags opencl
// to enable the backend.
func Probe(cfg Config) (Info, error) {
	if err := cfg.Validate(); err != nil {
		return Info{}, err
	}
	return Info{}, ErrUnavailable
}
