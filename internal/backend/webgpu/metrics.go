package webgpu

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineCompiles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grad",
		Subsystem: "webgpu",
		Name:      "pipeline_compiles_total",
		Help:      "WGSL compute pipelines compiled.",
	})

	kernelLaunches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grad",
		Subsystem: "webgpu",
		Name:      "kernel_launches_total",
		Help:      "Compute dispatches, by kernel.",
	}, []string{"kernel"})

	bytesTransferred = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grad",
		Subsystem: "webgpu",
		Name:      "transfer_bytes_total",
		Help:      "Bytes copied between host and device.",
	}, []string{"direction"})
)
