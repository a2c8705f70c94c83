// Package metrics exposes addon host counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/napi-host/resource"
)

const namespace = "napihost"

// Addon load outcomes.
const (
	LoadLoaded = "loaded"
	LoadCached = "cached"
	LoadFailed = "failed"
)

// Recorder receives host events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	AddonLoad(outcome string)
	Instantiation(ok bool)
	RequireCache(hit bool)
	AsyncTransition(state string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) AddonLoad(string)       {}
func (Nop) Instantiation(bool)     {}
func (Nop) RequireCache(bool)      {}
func (Nop) AsyncTransition(string) {}

// Prometheus records host events as Prometheus collectors.
// It also implements resource.Observer to track live async handles.
type Prometheus struct {
	addonLoads     *prometheus.CounterVec
	instantiations *prometheus.CounterVec
	requireCache   *prometheus.CounterVec
	asyncJobs      *prometheus.CounterVec
	liveHandles    prometheus.Gauge
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		addonLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "addon_loads_total",
			Help:      "Addon load attempts by outcome",
		}, []string{"outcome"}),
		instantiations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "instantiations_total",
			Help:      "Addon instantiations by result",
		}, []string{"result"}),
		requireCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "cache_lookups_total",
			Help:      "Per-engine require cache lookups by result",
		}, []string{"result"}),
		asyncJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "async",
			Name:      "transitions_total",
			Help:      "Async job state transitions by target state",
		}, []string{"state"}),
		liveHandles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "async",
			Name:      "live_handles",
			Help:      "Async jobs and contexts currently in the handle table",
		}),
	}

	for _, c := range []prometheus.Collector{
		p.addonLoads, p.instantiations, p.requireCache, p.asyncJobs, p.liveHandles,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) AddonLoad(outcome string) {
	p.addonLoads.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) Instantiation(ok bool) {
	p.instantiations.WithLabelValues(result(ok, "ok", "error")).Inc()
}

func (p *Prometheus) RequireCache(hit bool) {
	p.requireCache.WithLabelValues(result(hit, "hit", "miss")).Inc()
}

func (p *Prometheus) AsyncTransition(state string) {
	p.asyncJobs.WithLabelValues(state).Inc()
}

// OnResourceEvent tracks handle table occupancy.
func (p *Prometheus) OnResourceEvent(e resource.Event) {
	switch e.Type {
	case resource.EventCreated:
		p.liveHandles.Inc()
	case resource.EventDropped:
		p.liveHandles.Dec()
	}
}

func result(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
