package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "itemtranslate"
	subsystem = "dispatch"
)

// Recorder holds the dispatcher instruments. It satisfies
// translation.Recorder.
type Recorder struct {
	// AttemptsTotal counts provider calls labeled by outcome, "success" or an error kind.
	AttemptsTotal *prometheus.CounterVec

	// FallbacksTotal counts translations rescued by a fallback provider.
	FallbacksTotal *prometheus.CounterVec

	// AttemptDurationSeconds is the wall time of one provider call.
	AttemptDurationSeconds *prometheus.HistogramVec

	// BreakerOpen is 1 while a provider's circuit breaker is open.
	BreakerOpen *prometheus.GaugeVec
}

// NewRecorder creates the instruments and registers them with reg.
// A nil reg leaves them unregistered.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		AttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "attempts_total",
			Help:      "Total number of provider translation attempts, labeled by provider and result.",
		}, []string{"provider", "result"}),

		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fallbacks_total",
			Help:      "Total number of translations served by a fallback provider.",
		}, []string{"requested", "actual"}),

		AttemptDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "attempt_duration_seconds",
			Help:      "Time spent waiting for one provider translation.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"provider"}),

		BreakerOpen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "breaker_open",
			Help:      "Whether the provider circuit breaker is currently open.",
		}, []string{"provider"}),
	}

	if reg != nil {
		reg.MustRegister(r.AttemptsTotal, r.FallbacksTotal, r.AttemptDurationSeconds, r.BreakerOpen)
	}
	return r
}

// ObserveAttempt records one provider call
func (r *Recorder) ObserveAttempt(provider, outcome string, elapsed time.Duration) {
	r.AttemptsTotal.WithLabelValues(provider, outcome).Inc()
	r.AttemptDurationSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveFallback records a translation served by actual instead of requested
func (r *Recorder) ObserveFallback(requested, actual string) {
	r.FallbacksTotal.WithLabelValues(requested, actual).Inc()
}

// BreakerStateChanged tracks breaker transitions, suitable as
// translation.BreakerSettings.OnStateChange.
func (r *Recorder) BreakerStateChanged(provider, _, to string) {
	open := 0.0
	if to == "open" {
		open = 1
	}
	r.BreakerOpen.WithLabelValues(provider).Set(open)
}
