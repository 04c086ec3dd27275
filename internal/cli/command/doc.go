// Package command provides CLI command definitions for rediminute-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: App, global flags, client and formatter setup
//   - kv.go: ping, set, get, del, exists
//   - pubsub.go: publish, subscribe
//
// Each command opens a connection.Client against the server's RESP
// listener, runs one request and prints the result through the selected
// output.Formatter.
package command
