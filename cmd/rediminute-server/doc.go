// Package main provides the entry point for rediminute-server.
//
// The server keeps namespaced key-value pairs and pub/sub channels in
// memory and serves them over:
//
//   - a JSON line protocol (default 127.0.0.1:6379)
//   - the Redis serialization protocol (default 127.0.0.1:6380)
//   - an HTTP side port for health, stats and metrics (default 127.0.0.1:8080)
//
// Usage:
//
//	rediminute-server [flags]
//	rediminute-server --config /etc/rediminute/config.yaml
//	rediminute-server --host 0.0.0.0 --port 7000 --timeout 60 --debug
//
// Precedence is flag, then environment (REDIMINUTE_*), then config file,
// then built-in defaults. Editing the config file while the server runs
// applies a new log.level without a restart.
package main
