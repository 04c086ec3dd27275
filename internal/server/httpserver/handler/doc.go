// Package handler provides the HTTP handlers of the side server:
//
//   - health.go: liveness and readiness checks
//   - stats.go: engine and connection counters
//
// Every JSON body uses the Response envelope and is encoded with sonic.
// /metrics is mounted by the router and bypasses the envelope.
package handler
