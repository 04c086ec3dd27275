package config

import "time"

// Default configuration values.
const (
	DefaultLineAddr  = "127.0.0.1:6379"
	DefaultRedisAddr = "127.0.0.1:6380"
	DefaultHTTPAddr  = "127.0.0.1:8080"

	DefaultIdleTimeout    = 300 * time.Second
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 10 * time.Second
	DefaultMaxConnections = 10000

	DefaultMailboxSize     = 256
	DefaultDeliveryTimeout = 50 * time.Millisecond

	DefaultShardCount = 32

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Line:           ListenerConfig{Enabled: true, Addr: DefaultLineAddr},
			Redis:          ListenerConfig{Enabled: true, Addr: DefaultRedisAddr},
			HTTP:           ListenerConfig{Enabled: true, Addr: DefaultHTTPAddr},
			IdleTimeout:    DefaultIdleTimeout,
			ReadTimeout:    DefaultReadTimeout,
			WriteTimeout:   DefaultWriteTimeout,
			MaxConnections: DefaultMaxConnections,
		},
		PubSub: PubSubSection{
			MailboxSize:     DefaultMailboxSize,
			DeliveryTimeout: DefaultDeliveryTimeout,
		},
		Storage: StorageSection{
			ShardCount: DefaultShardCount,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
