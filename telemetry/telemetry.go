package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector captures telemetry events emitted by the poll loop and the
// control handlers. Implementations must be cheap: hooks run inline with
// every tick and every user action.
type Collector interface {
	PollSucceeded(duration time.Duration)
	PollFailed()
	TickSkipped()
	SetStale(stale bool)
	WriteResult(kind string, ok bool)
}

type noopCollector struct{}

// Noop returns a collector that discards all metrics.
func Noop() Collector {
	return noopCollector{}
}

func (noopCollector) PollSucceeded(time.Duration) {}
func (noopCollector) PollFailed()                 {}
func (noopCollector) TickSkipped()                {}
func (noopCollector) SetStale(bool)               {}
func (noopCollector) WriteResult(string, bool)    {}

// PrometheusCollector exposes poll and write telemetry via Prometheus.
type PrometheusCollector struct {
	polls        *prometheus.CounterVec
	pollDuration prometheus.Gauge
	skippedTicks prometheus.Counter
	stale        prometheus.Gauge
	writes       *prometheus.CounterVec
}

// NewPrometheusCollector registers the required metrics with the provided
// registerer, reusing collectors that are already registered.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	polls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poolview_poll_total",
		Help: "Number of poll attempts against the controller, by outcome.",
	}, []string{"outcome"})
	if err := register(reg, &polls); err != nil {
		return nil, err
	}

	pollDuration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "poolview_poll_duration_seconds",
		Help: "Duration of the last successful poll.",
	})
	if err := register(reg, &pollDuration); err != nil {
		return nil, err
	}

	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poolview_poll_skipped_ticks_total",
		Help: "Number of poll ticks skipped because a fetch was still in flight.",
	})
	if err := register(reg, &skipped); err != nil {
		return nil, err
	}

	stale := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "poolview_snapshot_stale",
		Help: "1 when the last successful poll is older than the staleness threshold.",
	})
	if err := register(reg, &stale); err != nil {
		return nil, err
	}

	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poolview_control_write_total",
		Help: "Number of controller write calls issued by control handlers, by kind and outcome.",
	}, []string{"kind", "outcome"})
	if err := register(reg, &writes); err != nil {
		return nil, err
	}

	return &PrometheusCollector{
		polls:        polls,
		pollDuration: pollDuration,
		skippedTicks: skipped,
		stale:        stale,
		writes:       writes,
	}, nil
}

// register adds the collector pointed to by target, swapping in the existing
// instance when the registerer already carries one.
func register[C prometheus.Collector](reg prometheus.Registerer, target *C) error {
	if err := reg.Register(*target); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		existing, ok := already.ExistingCollector.(C)
		if !ok {
			return err
		}
		*target = existing
	}
	return nil
}

// PollSucceeded records a successful poll and its duration.
func (p *PrometheusCollector) PollSucceeded(duration time.Duration) {
	if p == nil {
		return
	}
	p.polls.WithLabelValues("success").Inc()
	p.pollDuration.Set(duration.Seconds())
}

// PollFailed records a failed poll attempt.
func (p *PrometheusCollector) PollFailed() {
	if p == nil {
		return
	}
	p.polls.WithLabelValues("failure").Inc()
}

// TickSkipped records a tick dropped due to an in-flight fetch.
func (p *PrometheusCollector) TickSkipped() {
	if p == nil {
		return
	}
	p.skippedTicks.Inc()
}

// SetStale updates the staleness gauge.
func (p *PrometheusCollector) SetStale(stale bool) {
	if p == nil {
		return
	}
	if stale {
		p.stale.Set(1)
		return
	}
	p.stale.Set(0)
}

// WriteResult records the outcome of one controller write call.
func (p *PrometheusCollector) WriteResult(kind string, ok bool) {
	if p == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	p.writes.WithLabelValues(kind, outcome).Inc()
}
