package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "abstat/internal/errors"
)

// Calculation kinds used as the "kind" label
const (
	KindSignificance = "significance"
	KindSampleSize   = "sample_size"
	KindBatch        = "batch"
)

// Recorder tracks calculation counts and latency
type Recorder struct {
	registry     *prometheus.Registry
	calculations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// NewRecorder registers the collectors on a fresh registry
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	return &Recorder{
		registry: registry,
		calculations: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "abstat",
			Name:      "calculations_total",
			Help:      "Calculations by kind and outcome (ok or error code)",
		}, []string{"kind", "outcome"}),
		duration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "abstat",
			Name:      "calculation_duration_seconds",
			Help:      "Calculation latency by kind",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"kind"}),
	}
}

// Observe records one calculation. A nil receiver is a no-op.
func (r *Recorder) Observe(kind string, started time.Time, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = apperrors.GetCode(err)
	}
	r.calculations.WithLabelValues(kind, outcome).Inc()
	r.duration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// Calculations exposes the counter vector
func (r *Recorder) Calculations() *prometheus.CounterVec {
	return r.calculations
}

// Registry exposes the underlying registry for tests and custom handlers
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
