//go:build !windows

package engine

import (
	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/backend/webgpu"
	"github.com/born-ml/grad/internal/config"
	"github.com/born-ml/grad/internal/tensor"
)

func openWebGPU(index int) (tensor.Backend, []autograd.OpType, func(), error) {
	_, err := webgpu.Probe(webgpu.Config{DeviceIndex: index})
	return nil, nil, nil, err
}

func probeWebGPU(index int) DeviceInfo {
	_, err := webgpu.Probe(webgpu.Config{DeviceIndex: index})
	return DeviceInfo{Backend: config.BackendWebGPU, Err: err}
}
