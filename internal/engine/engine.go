// Package engine opens a Graph on the backend a config.Config selects.
package engine

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/backend/cpu"
	"github.com/born-ml/grad/internal/config"
	"github.com/born-ml/grad/internal/tensor"
)

// Engine is an opened backend with its operation registry.
type Engine struct {
	backend  tensor.Backend
	registry *autograd.Registry
	release  func()
}

// Open validates cfg and opens the selected backend. Device contexts are
// created here, once, and freed by Close.
func Open(cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		b       tensor.Backend
		types   []autograd.OpType
		release = func() {}
		err     error
	)
	switch cfg.Backend {
	case config.BackendCPU:
		c := cpu.New()
		b, types = c, cpu.Ops(c)
	case config.BackendWebGPU:
		b, types, release, err = openWebGPU(cfg.DeviceIndex)
	case config.BackendOpenCL:
		b, types, release, err = openOpenCL(cfg.DeviceIndex)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}

	registry, err := autograd.NewRegistry(types...)
	if err != nil {
		release()
		return nil, err
	}
	log.Debug().Str("backend", b.Name()).Strs("ops", registry.Names()).Msg("engine opened")
	return &Engine{backend: b, registry: registry, release: release}, nil
}

// Backend returns the opened backend.
func (e *Engine) Backend() tensor.Backend {
	return e.backend
}

// Registry returns the operation registry for the backend.
func (e *Engine) Registry() *autograd.Registry {
	return e.registry
}

// NewGraph creates an empty graph on the engine's backend.
func (e *Engine) NewGraph() *autograd.Graph {
	return autograd.NewGraph(e.backend, e.registry)
}

// Close frees the device context. Graphs created by the engine must be
// released first.
func (e *Engine) Close() {
	e.release()
}

// DeviceInfo describes one backend for listing.
type DeviceInfo struct {
	Backend string
	Name    string
	Err     error
}

// Devices probes every backend at device index.
func Devices(index int) []DeviceInfo {
	out := []DeviceInfo{{Backend: config.BackendCPU, Name: cpu.New().Name()}}
	out = append(out, probeWebGPU(index), probeOpenCL(index))
	return out
}
