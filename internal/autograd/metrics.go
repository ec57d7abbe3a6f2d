package autograd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grad",
		Subsystem: "autograd",
		Name:      "ops_applied_total",
		Help:      "Forward operations applied, by registered name.",
	}, []string{"op"})

	backwardPasses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grad",
		Subsystem: "autograd",
		Name:      "backward_passes_total",
		Help:      "Reverse passes started from a non-leaf tensor.",
	})

	gradAccumulations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grad",
		Subsystem: "autograd",
		Name:      "grad_accumulations_total",
		Help:      "Gradient contributions added into tensor grads.",
	})
)
