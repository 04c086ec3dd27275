// Package buildinfo exposes version information injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/rediminute/internal/infra/buildinfo.Version=v0.1.0"
package buildinfo
