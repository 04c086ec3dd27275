// Package connection wraps a go-redis client for rediminute-cli.
//
// The CLI speaks RESP to the server's Redis listener. Keys are sent in
// the composite "namespace^key" form when a namespace is selected.
package connection
