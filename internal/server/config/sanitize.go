package config

import (
	"net"
	"strings"
)

// Sanitize returns a copy of the config suitable for logging at startup.
// Listener addresses with wildcard hosts are spelled out so that the log
// shows which interfaces are exposed.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Server.Line.Addr = describeAddr(cfg.Server.Line.Addr)
	sanitized.Server.Redis.Addr = describeAddr(cfg.Server.Redis.Addr)
	sanitized.Server.HTTP.Addr = describeAddr(cfg.Server.HTTP.Addr)
	sanitized.Log.Level = strings.ToLower(cfg.Log.Level)
	sanitized.Log.Format = strings.ToLower(cfg.Log.Format)
	return &sanitized
}

func describeAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		return net.JoinHostPort("*", port)
	}
	return addr
}
