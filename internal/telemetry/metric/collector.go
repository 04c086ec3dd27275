package metric

import "github.com/prometheus/client_golang/prometheus"

// StatsSource reports engine state. Implemented by the dispatcher.
type StatsSource interface {
	Keys() int
	Namespaces() int
	Channels() int
	Subscriptions() int
}

// Collector samples a StatsSource at scrape time.
type Collector struct {
	src StatsSource

	keys          *prometheus.Desc
	namespaces    *prometheus.Desc
	channels      *prometheus.Desc
	subscriptions *prometheus.Desc
}

// NewCollector creates a collector over src.
func NewCollector(src StatsSource) *Collector {
	return &Collector{
		src: src,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "keys"),
			"Entries held across all namespaces.", nil, nil),
		namespaces: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "namespaces"),
			"Namespaces holding at least one entry.", nil, nil),
		channels: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pubsub", "channels"),
			"Channels with at least one subscriber.", nil, nil),
		subscriptions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pubsub", "subscriptions"),
			"Channel subscriptions across all clients.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.namespaces
	ch <- c.channels
	ch <- c.subscriptions
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(c.src.Keys()))
	ch <- prometheus.MustNewConstMetric(c.namespaces, prometheus.GaugeValue, float64(c.src.Namespaces()))
	ch <- prometheus.MustNewConstMetric(c.channels, prometheus.GaugeValue, float64(c.src.Channels()))
	ch <- prometheus.MustNewConstMetric(c.subscriptions, prometheus.GaugeValue, float64(c.src.Subscriptions()))
}
