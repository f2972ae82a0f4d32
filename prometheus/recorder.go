// Package prometheus records analytics delivery metrics with Prometheus.
package prometheus

import (
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/fwojciec/docsite/analytics"
)

const namespace = "docsite_analytics"

var _ analytics.Recorder = (*Recorder)(nil)

// Recorder implements analytics.Recorder using Prometheus counters.
type Recorder struct {
	queued      *prom.CounterVec
	rateLimited *prom.CounterVec
	evicted     prom.Counter
	flushed     prom.Counter
	retried     prom.Counter
	dropped     prom.Counter
}

// NewRecorder constructs the collectors and registers them with reg.
// A nil reg gets a private registry.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		queued: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "events_queued_total",
			Help:      "Events accepted into the queue by type",
		}, []string{"event_type"}),
		rateLimited: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "events_rate_limited_total",
			Help:      "Events discarded by the per-key rate limiter",
		}, []string{"event_type"}),
		evicted: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "events_evicted_total",
			Help:      "Events discarded because the queue was full",
		}),
		flushed: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "events_flushed_total",
			Help:      "Events delivered to the ingest endpoint",
		}),
		retried: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "events_retried_total",
			Help:      "Events scheduled for another delivery attempt",
		}),
		dropped: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events abandoned after failed delivery",
		}),
	}
	reg.MustRegister(r.queued, r.rateLimited, r.evicted, r.flushed, r.retried, r.dropped)
	return r
}

func (r *Recorder) Queued(eventType string) {
	r.queued.WithLabelValues(eventType).Inc()
}

func (r *Recorder) RateLimited(eventType string) {
	r.rateLimited.WithLabelValues(eventType).Inc()
}

func (r *Recorder) Evicted(n int) { r.evicted.Add(float64(n)) }
func (r *Recorder) Flushed(n int) { r.flushed.Add(float64(n)) }
func (r *Recorder) Retried(n int) { r.retried.Add(float64(n)) }
func (r *Recorder) Dropped(n int) { r.dropped.Add(float64(n)) }
