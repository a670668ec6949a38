package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	EvaluationsTotal    *prometheus.CounterVec
	EvaluationDuration  prometheus.Histogram
	DeviceWarningsTotal prometheus.Counter
	SubmitsTotal        *prometheus.CounterVec
	SessionsStored      prometheus.Gauge
	ExportsTotal        prometheus.Counter
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medai_evaluations_total",
			Help: "Total rule evaluations by resulting urgency.",
		}, []string{"urgency"}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "medai_evaluation_duration_seconds",
			Help:    "Duration of rule evaluations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8), // 10us .. ~160ms
		}),
		DeviceWarningsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medai_device_warnings_total",
			Help: "Total device threshold warnings raised during evaluation.",
		}),
		SubmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medai_submits_total",
			Help: "Total session submissions by outcome.",
		}, []string{"outcome"}),
		SessionsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "medai_sessions_stored",
			Help: "Sessions currently held in the bounded history.",
		}),
		ExportsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medai_exports_total",
			Help: "Total session history exports.",
		}),
	}

	reg.MustRegister(
		m.EvaluationsTotal,
		m.EvaluationDuration,
		m.DeviceWarningsTotal,
		m.SubmitsTotal,
		m.SessionsStored,
		m.ExportsTotal,
	)

	return m
}

// Hooks returns an EngineHooks that increments the corresponding metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnEvaluate: func(urgency Urgency, deviceWarnings int, duration float64) {
			m.EvaluationsTotal.WithLabelValues(string(urgency)).Inc()
			m.EvaluationDuration.Observe(duration)
			m.DeviceWarningsTotal.Add(float64(deviceWarnings))
		},
	}
}
