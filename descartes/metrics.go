package descartes

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rony4d/descartes-rollups/inter"
)

const namespace = "descartes"

type metrics struct {
	claims      *prometheus.CounterVec
	disputes    prometheus.Counter
	resolutions prometheus.Counter
	finalized   prometheus.Counter
	rejected    *prometheus.CounterVec
	phase       prometheus.Gauge
	validators  prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_total",
			Help:      "Accepted claims by the result they produced.",
		}, []string{"result"}),
		disputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disputes_total",
			Help:      "Conflicts handed to the arbiter.",
		}),
		resolutions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Arbitration results applied.",
		}),
		finalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finalized_epochs_total",
			Help:      "Epochs handed to the output collaborator.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_operations_total",
			Help:      "Aborted operations by operation and error kind.",
		}, []string{"op", "kind"}),
		phase: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase",
			Help:      "Stored phase: 0 input accumulation, 1 awaiting consensus, 2 awaiting dispute.",
		}),
		validators: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_validators",
			Help:      "Size of the active validator set.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.claims, m.disputes, m.resolutions, m.finalized, m.rejected, m.phase, m.validators)
	}
	return m
}

func (m *metrics) reject(op string, err error) {
	kind := "internal"
	if e, ok := err.(*inter.Error); ok {
		kind = e.Kind.String()
	}
	m.rejected.WithLabelValues(op, kind).Inc()
}
