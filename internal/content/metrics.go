package content

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the coordinator's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	ready    prometheus.Gauge
	progress prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clipgen",
			Name:      "runs_total",
			Help:      "Generation runs by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clipgen",
			Name:      "artifact_generate_seconds",
			Help:      "Time to generate one artifact.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"artifact"}),
		ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clipgen",
			Name:      "artifacts_registered",
			Help:      "Artifacts currently held in the registry.",
		}),
		progress: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clipgen",
			Name:      "progress_events_total",
			Help:      "Progress events emitted by generation runs.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.duration, m.ready, m.progress)
	}
	return m
}

func (m *Metrics) runDone(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.runs.WithLabelValues(result).Inc()
}

func (m *Metrics) observeArtifact(name string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(name).Observe(d.Seconds())
}

func (m *Metrics) setRegistered(n int) {
	if m == nil {
		return
	}
	m.ready.Set(float64(n))
}

func (m *Metrics) progressEvent() {
	if m == nil {
		return
	}
	m.progress.Inc()
}
