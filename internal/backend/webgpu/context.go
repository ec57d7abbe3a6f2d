//go:build windows

// Package webgpu runs the autograd kernels as WGSL compute shaders through
// go-webgpu. Only float32 buffers are supported.
package webgpu

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/rs/zerolog/log"
)

// Context owns one WebGPU device and its queue. Create it once at startup
// and pass it to every Backend that should share the device.
type Context struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	info     Info

	mu        sync.Mutex
	pipelines map[string]*wgpu.ComputePipeline
	released  bool
}

// NewContext opens the configured adapter and device.
// It returns an error wrapping ErrUnavailable when the native runtime or an
// adapter is missing.
func NewContext(cfg Config) (ctx *Context, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// The native library panics on load failure.
	defer func() {
		if r := recover(); r != nil {
			ctx = nil
			err = fmt.Errorf("%w: native library: %v", ErrUnavailable, r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: request adapter: %v", ErrUnavailable, err)
	}
	info := adapter.GetInfo()

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %v", ErrUnavailable, err)
	}
	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: no queue", ErrUnavailable)
	}

	ctx = &Context{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		info:      Info{Name: info.Name, VendorName: info.VendorName},
		pipelines: make(map[string]*wgpu.ComputePipeline),
	}
	log.Info().Str("adapter", ctx.info.Name).Str("vendor", ctx.info.VendorName).Msg("webgpu context ready")
	return ctx, nil
}

// Probe opens and immediately releases a context, returning its adapter info.
func Probe(cfg Config) (Info, error) {
	ctx, err := NewContext(cfg)
	if err != nil {
		return Info{}, err
	}
	defer ctx.Release()
	return ctx.Info(), nil
}

// Info returns the adapter description.
func (c *Context) Info() Info {
	return c.info
}

// Release frees the cached pipelines, the device and the adapter.
// Buffers created on the context must be released first.
func (c *Context) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return
	}
	c.released = true
	for name, p := range c.pipelines {
		p.Release()
		delete(c.pipelines, name)
	}
	c.queue.Release()
	c.device.Release()
	c.adapter.Release()
	c.instance.Release()
}

// pipeline compiles the named kernel on first use and caches it.
func (c *Context) pipeline(name string) (*wgpu.ComputePipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil, ErrContextClosed
	}
	if p, ok := c.pipelines[name]; ok {
		return p, nil
	}
	src, ok := shaderSources[name]
	if !ok {
		return nil, fmt.Errorf("webgpu: no kernel %q", name)
	}

	shader := c.device.CreateShaderModuleWGSL(src)
	if shader == nil {
		return nil, fmt.Errorf("%w: shader module %q", ErrKernel, name)
	}
	defer shader.Release()
	p := c.device.CreateComputePipelineSimple(nil, shader, "main")
	if err := checkPipeline(name, p); err != nil {
		return nil, err
	}
	c.pipelines[name] = p
	pipelineCompiles.Inc()
	log.Debug().Str("kernel", name).Msg("webgpu pipeline compiled")
	return p, nil
}

// checkPipeline rejects a pipeline the driver failed to create, so it is
// never cached.
func checkPipeline(name string, p *wgpu.ComputePipeline) error {
	if p == nil {
		return fmt.Errorf("%w: pipeline %q", ErrKernel, name)
	}
	return nil
}

const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// upload creates a storage buffer initialised with data.
func (c *Context) upload(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	buf := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            storageUsage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mapped := unsafe.Slice((*byte)(buf.GetMappedRange(0, size)), size)
	copy(mapped, data)
	buf.Unmap()
	bytesTransferred.WithLabelValues("to_device").Add(float64(size))
	return buf
}

// alloc creates a zero-initialised storage buffer.
func (c *Context) alloc(size uint64) *wgpu.Buffer {
	return c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: storageUsage,
		Size:  size,
	})
}

// uniform packs u32 parameters into a 16-byte aligned uniform buffer.
func (c *Context) uniform(params ...uint32) *wgpu.Buffer {
	size := uint64((len(params)*4 + 15) &^ 15)
	buf := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mapped := unsafe.Slice((*byte)(buf.GetMappedRange(0, size)), size)
	for i, p := range params {
		binary.LittleEndian.PutUint32(mapped[i*4:], p)
	}
	buf.Unmap()
	return buf
}

// read copies size bytes of src back to the host through a staging buffer.
func (c *Context) read(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := c.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	c.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(c.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("webgpu: map staging buffer: %w", err)
	}
	mapped := unsafe.Slice((*byte)(staging.GetMappedRange(0, size)), size)
	out := make([]byte, size)
	copy(out, mapped)
	staging.Unmap()
	bytesTransferred.WithLabelValues("to_host").Add(float64(size))
	return out, nil
}

// copyBuffer copies size bytes from src into a new storage buffer.
func (c *Context) copyBuffer(src *wgpu.Buffer, size uint64) *wgpu.Buffer {
	dst := c.alloc(size)
	encoder := c.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, dst, 0, size)
	c.queue.Submit(encoder.Finish(nil))
	return dst
}

// binding is one buffer bound to a kernel, in binding order.
type binding struct {
	buf  *wgpu.Buffer
	size uint64
}

// dispatch runs kernel name over n elements with the given bindings.
func (c *Context) dispatch(name string, n int, bindings ...binding) error {
	pipeline, err := c.pipeline(name)
	if err != nil {
		return err
	}

	entries := make([]wgpu.BindGroupEntry, len(bindings))
	for i, b := range bindings {
		entries[i] = wgpu.BufferBindingEntry(uint32(i), b.buf, 0, b.size)
	}
	bindGroup := c.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), entries)
	defer bindGroup.Release()

	encoder := c.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(uint32((n+workgroupSize-1)/workgroupSize), 1, 1)
	pass.End()
	c.queue.Submit(encoder.Finish(nil))

	kernelLaunches.WithLabelValues(name).Inc()
	return nil
}
