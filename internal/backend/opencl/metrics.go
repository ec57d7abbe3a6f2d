package opencl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	kernelLaunches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grad",
		Subsystem: "opencl",
		Name:      "kernel_launches_total",
		Help:      "Kernel runs, by kernel.",
	}, []string{"kernel"})

	bytesTransferred = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grad",
		Subsystem: "opencl",
		Name:      "transfer_bytes_total",
		Help:      "Bytes copied between host and device.",
	}, []string{"direction"})
)
