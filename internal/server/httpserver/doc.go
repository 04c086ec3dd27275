// Package httpserver provides the HTTP side server.
//
// It exposes operational endpoints only; the key-value and pub/sub
// protocol lives on the line and RESP listeners.
//
//   - GET /health: liveness
//   - GET /ready: readiness, 503 until every listener is bound
//   - GET /stats: keys, namespaces, channels, subscriptions, connections
//   - GET /metrics: Prometheus exposition
//
// Middleware chain: Recover, RequestID (ULID), AccessLog.
package httpserver
