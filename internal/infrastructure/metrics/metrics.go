package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NewCounter registers userregistry_general_counters on the default registry.
// Call it once per process.
func NewCounter() *prometheus.CounterVec {
	return promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "userregistry",
			Name:      "general_counters",
			Help:      "Request, user lifecycle and file storage counters.",
		},
		[]string{"result"})
}
