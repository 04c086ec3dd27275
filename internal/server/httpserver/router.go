package httpserver

import (
	"log/slog"
	"net/http"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// API serves /health, /ready and /stats.
	API http.Handler

	// Metrics serves /metrics. Nil leaves the route unregistered.
	Metrics http.Handler

	Logger *slog.Logger
}

// NewRouter builds the mux with the middleware chain
// Recover -> RequestID -> AccessLog -> handler.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	middlewares := []Middleware{Recover(log), RequestID(), AccessLog(log)}

	mux := http.NewServeMux()
	api := Chain(cfg.API, middlewares...)
	mux.Handle("GET /health", api)
	mux.Handle("GET /ready", api)
	mux.Handle("GET /stats", api)

	if cfg.Metrics != nil {
		// Scrapes are frequent; keep them out of the access log.
		mux.Handle("GET /metrics", Chain(cfg.Metrics, Recover(log)))
	}
	return mux
}
