//go:build windows

package engine

import (
	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/backend/webgpu"
	"github.com/born-ml/grad/internal/config"
	"github.com/born-ml/grad/internal/tensor"
)

func openWebGPU(index int) (tensor.Backend, []autograd.OpType, func(), error) {
	ctx, err := webgpu.NewContext(webgpu.Config{DeviceIndex: index})
	if err != nil {
		return nil, nil, nil, err
	}
	b := webgpu.New(ctx)
	return b, webgpu.Ops(b), ctx.Release, nil
}

func probeWebGPU(index int) DeviceInfo {
	info, err := webgpu.Probe(webgpu.Config{DeviceIndex: index})
	return DeviceInfo{Backend: config.BackendWebGPU, Name: info.Name, Err: err}
}
