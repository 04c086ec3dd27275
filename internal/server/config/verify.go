package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Verify validates the configuration and reports every problem found.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("server config is nil")
	}

	var errs []error
	errs = append(errs, verifyServer(&cfg.Server)...)
	errs = append(errs, verifyPubSub(&cfg.PubSub)...)
	errs = append(errs, verifyStorage(&cfg.Storage)...)
	errs = append(errs, verifyLog(&cfg.Log)...)
	return errors.Join(errs...)
}

func verifyServer(cfg *ServerSection) []error {
	var errs []error

	listeners := []struct {
		name string
		l    ListenerConfig
	}{
		{"server.line", cfg.Line},
		{"server.redis", cfg.Redis},
		{"server.http", cfg.HTTP},
	}

	enabled := 0
	seen := make(map[string]string)
	for _, ln := range listeners {
		if !ln.l.Enabled {
			continue
		}
		enabled++
		if _, _, err := net.SplitHostPort(ln.l.Addr); err != nil {
			errs = append(errs, fmt.Errorf("%s.addr %q: %w", ln.name, ln.l.Addr, err))
			continue
		}
		if other, dup := seen[ln.l.Addr]; dup {
			errs = append(errs, fmt.Errorf("%s.addr %q conflicts with %s.addr", ln.name, ln.l.Addr, other))
		}
		seen[ln.l.Addr] = ln.name
	}
	if enabled == 0 {
		errs = append(errs, errors.New("at least one of server.line, server.redis, server.http must be enabled"))
	}

	if cfg.IdleTimeout < 0 {
		errs = append(errs, errors.New("server.idle_timeout must not be negative"))
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 {
		errs = append(errs, errors.New("server.read_timeout and server.write_timeout must not be negative"))
	}
	if cfg.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	if cfg.RateBurst < 0 {
		errs = append(errs, errors.New("server.rate_burst must not be negative"))
	}
	if cfg.MaxConnections < 0 {
		errs = append(errs, errors.New("server.max_connections must not be negative"))
	}
	return errs
}

func verifyPubSub(cfg *PubSubSection) []error {
	var errs []error
	if cfg.MailboxSize < 1 {
		errs = append(errs, errors.New("pubsub.mailbox_size must be at least 1"))
	}
	if cfg.DeliveryTimeout <= 0 {
		errs = append(errs, errors.New("pubsub.delivery_timeout must be positive"))
	}
	return errs
}

func verifyStorage(cfg *StorageSection) []error {
	n := cfg.ShardCount
	if n < 1 || n&(n-1) != 0 {
		return []error{fmt.Errorf("storage.shard_count %d must be a power of two", n)}
	}
	return nil
}

func verifyLog(cfg *LogSection) []error {
	var errs []error
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", cfg.Format))
	}
	return errs
}
