// Package main provides the entry point for rediminute-cli.
//
// Usage:
//
//	rediminute-cli set greeting hello
//	rediminute-cli --namespace app1 get greeting
//	rediminute-cli subscribe news
//	rediminute-cli publish news "hello world"
//
// The client talks to the server's RESP listener (default
// 127.0.0.1:6380, override with --server or REDIMINUTE_SERVER).
package main
