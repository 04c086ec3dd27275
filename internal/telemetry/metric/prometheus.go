package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/rediminute/internal/core/domain"
	"github.com/yndnr/rediminute/internal/pubsub"
)

const namespace = "rediminute"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	DeliveriesTotal *prometheus.CounterVec
	PrunedTotal     prometheus.Counter

	ConnectionsActive *prometheus.GaugeVec
	ConnectionsTotal  *prometheus.CounterVec
}

// NewRegistry creates a registry with all instruments registered, plus the
// Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "commands_total",
			Help:      "Commands executed, by action and result.",
		}, []string{"action", "result"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "command_duration_seconds",
			Help:      "Command execution latency.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"action"}),
		DeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pubsub",
			Name:      "deliveries_total",
			Help:      "Per-subscriber delivery attempts, by outcome.",
		}, []string{"outcome"}),
		PrunedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pubsub",
			Name:      "pruned_subscribers_total",
			Help:      "Subscribers removed after reporting an invalid handle.",
		}),
		ConnectionsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "connections_active",
			Help:      "Open client connections, by protocol.",
		}, []string{"protocol"}),
		ConnectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "connections_total",
			Help:      "Accepted client connections, by protocol.",
		}, []string{"protocol"}),
	}

	r.reg.MustRegister(
		r.CommandsTotal,
		r.CommandDuration,
		r.DeliveriesTotal,
		r.PrunedTotal,
		r.ConnectionsActive,
		r.ConnectionsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveCommand records one dispatched command.
func (r *Registry) ObserveCommand(action domain.Action, resp domain.Response, d time.Duration) {
	label := string(action)
	if !action.Known() {
		label = "unknown"
	}
	result := "ok"
	if resp.IsError() && resp.Err != nil {
		result = string(resp.Err.Kind)
	}
	r.CommandsTotal.WithLabelValues(label, result).Inc()
	r.CommandDuration.WithLabelValues(label).Observe(d.Seconds())
}

// ObserveDelivery implements pubsub.Observer.
func (r *Registry) ObserveDelivery(_ string, outcome pubsub.Outcome) {
	r.DeliveriesTotal.WithLabelValues(outcome.String()).Inc()
}

// ObservePrune implements pubsub.Observer.
func (r *Registry) ObservePrune(string) {
	r.PrunedTotal.Inc()
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened(protocol string) {
	r.ConnectionsTotal.WithLabelValues(protocol).Inc()
	r.ConnectionsActive.WithLabelValues(protocol).Inc()
}

// ConnClosed records a closed connection.
func (r *Registry) ConnClosed(protocol string) {
	r.ConnectionsActive.WithLabelValues(protocol).Dec()
}

// MustRegister registers additional collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
