package opencl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{DeviceIndex: 3}.Validate())
	assert.ErrorIs(t, Config{DeviceIndex: -1}.Validate(), ErrInvalidDevice)
}

func TestProbe_InvalidIndex(t *testing.T) {
	_, err := Probe(Config{DeviceIndex: -1})
	assert.ErrorIs(t, err, ErrInvalidDevice)
}

func TestConfig_CheckDeviceCount(t *testing.T) {
	assert.ErrorIs(t, Config{}.checkDeviceCount(0), ErrUnavailable)
	assert.ErrorIs(t, Config{DeviceIndex: 2}.checkDeviceCount(2), ErrInvalidDevice)
	assert.NoError(t, Config{DeviceIndex: 1}.checkDeviceCount(2))
}
