package config

import "time"

// ServerConfig is the root configuration for rediminute-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	PubSub  PubSubSection  `koanf:"pubsub"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the listeners and per-connection limits.
type ServerSection struct {
	Line  ListenerConfig `koanf:"line"`
	Redis ListenerConfig `koanf:"redis"`
	HTTP  ListenerConfig `koanf:"http"`

	// IdleTimeout closes client connections that send nothing for this
	// long. Zero disables it.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// ReadTimeout bounds reading one command once its first byte arrived.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writing one reply or push.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// RateLimit is the sustained commands per second allowed on one
	// connection. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the limiter bucket size; defaults to RateLimit.
	RateBurst int `koanf:"rate_burst"`

	// MaxConnections caps concurrent client connections per listener.
	MaxConnections int `koanf:"max_connections"`
}

// ListenerConfig configures one listener.
type ListenerConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// PubSubSection configures message fan-out.
type PubSubSection struct {
	// MailboxSize is the number of undelivered pushes a connection may
	// queue before further messages are dropped for it.
	MailboxSize int `koanf:"mailbox_size"`

	// DeliveryTimeout bounds one hand-off to one subscriber.
	DeliveryTimeout time.Duration `koanf:"delivery_timeout"`
}

// StorageSection configures the in-memory store.
type StorageSection struct {
	ShardCount int `koanf:"shard_count"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
