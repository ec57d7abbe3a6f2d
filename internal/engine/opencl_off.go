//go:build !opencl

package engine

import (
	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/backend/opencl"
	"github.com/born-ml/grad/internal/config"
	"github.com/born-ml/grad/internal/tensor"
)

func openOpenCL(index int) (tensor.Backend, []autograd.OpType, func(), error) {
	_, err := opencl.Probe(opencl.Config{DeviceIndex: index})
	return nil, nil, nil, err
}

func probeOpenCL(index int) DeviceInfo {
	_, err := opencl.Probe(opencl.Config{DeviceIndex: index})
	return DeviceInfo{Backend: config.BackendOpenCL, Err: err}
}
