//go:build opencl

package engine

import (
	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/backend/opencl"
	"github.com/born-ml/grad/internal/config"
	"github.com/born-ml/grad/internal/tensor"
)

func openOpenCL(index int) (tensor.Backend, []autograd.OpType, func(), error) {
	ctx, err := opencl.NewContext(opencl.Config{DeviceIndex: index})
	if err != nil {
		return nil, nil, nil, err
	}
	b := opencl.New(ctx)
	return b, opencl.Ops(b), ctx.Release, nil
}

func probeOpenCL(index int) DeviceInfo {
	info, err := opencl.Probe(opencl.Config{DeviceIndex: index})
	return DeviceInfo{Backend: config.BackendOpenCL, Name: info.Name, Err: err}
}
