// Package metric provides Prometheus metrics for rediminute.
//
//   - prometheus.go: the registry, command and delivery instruments, and
//     the HTTP handler
//   - collector.go: a collector that samples engine state at scrape time
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
