package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	outcomes       *prom.CounterVec
	absorbDuration *prom.HistogramVec
	hookFailures   *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		outcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "cushion",
			Name:      "responses_total",
			Help:      "Intercepted responses by matched pattern and outcome",
		}, []string{"pattern", "outcome"}),
		absorbDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "cushion",
			Name:      "absorb_duration_seconds",
			Help:      "Time spent decoding, absorbing and re-encoding a response body",
			Buckets:   prom.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"pattern"}),
		hookFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "cushion",
			Name:      "hook_failures_total",
			Help:      "Hooks that returned an error or panicked, by hook kind",
		}, []string{"hook"}),
	}
	reg.MustRegister(pr.outcomes, pr.absorbDuration, pr.hookFailures)
	return pr
}

func (p *PrometheusRecorder) IncOutcome(pattern string, outcome Outcome) {
	if p == nil || p.outcomes == nil {
		return
	}
	p.outcomes.WithLabelValues(pattern, string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveAbsorbDuration(pattern string, d time.Duration) {
	if p == nil || p.absorbDuration == nil {
		return
	}
	p.absorbDuration.WithLabelValues(pattern).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncHookFailure(kind string) {
	if p == nil || p.hookFailures == nil {
		return
	}
	p.hookFailures.WithLabelValues(kind).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prom.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
