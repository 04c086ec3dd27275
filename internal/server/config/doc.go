// Package config defines the rediminute-server configuration.
//
// ServerConfig is populated by confloader from YAML, REDIMINUTE_* variables
// and flags. Default supplies every value, Verify rejects unusable ones, and
// Sanitize produces a copy that is safe to log.
//
// Example file:
//
//	server:
//	  idle_timeout: 300s
//	  rate_limit: 0
//	  line:
//	    enabled: true
//	    addr: 127.0.0.1:6379
//	  redis:
//	    enabled: true
//	    addr: 127.0.0.1:6380
//	  http:
//	    enabled: true
//	    addr: 127.0.0.1:8080
//	pubsub:
//	  mailbox_size: 256
//	  delivery_timeout: 50ms
//	storage:
//	  shard_count: 32
//	log:
//	  level: info
//	  format: json
package config
