package handler

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/bytedance/sonic"

	"github.com/yndnr/rediminute/internal/core/domain"
	"github.com/yndnr/rediminute/internal/telemetry/logger"
)

// StatsSource reports engine state.
type StatsSource interface {
	Keys() int
	Namespaces() int
	Channels() int
	Subscriptions() int
}

// ConnCounter reports the open connections of one listener.
type ConnCounter interface {
	ActiveConnections() int64
}

// Config holds the handler dependencies.
type Config struct {
	Stats StatsSource

	// Listeners maps a protocol name to its server. Disabled listeners
	// are left out.
	Listeners map[string]ConnCounter

	Logger *slog.Logger
}

// Handler serves the health and stats endpoints.
type Handler struct {
	stats     StatsSource
	listeners map[string]ConnCounter
	logger    *slog.Logger
	ready     atomic.Bool
	mux       *http.ServeMux
}

// New creates a Handler. It reports not ready until SetReady(true).
func New(cfg Config) *Handler {
	h := &Handler{
		stats:     cfg.Stats,
		listeners: cfg.Listeners,
		logger:    cfg.Logger,
		mux:       http.NewServeMux(),
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// SetReady flips the readiness reported by /ready.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /stats", h.handleStats)
}

// writeJSON writes a success envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	h.write(w, status, NewResponse(getRequestID(r), data))
}

// writeError writes an error envelope carrying the domain error code.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, de *domain.DomainError) {
	w.Header().Set("X-Error-Code", de.Code)
	h.write(w, status, NewErrorResponse(getRequestID(r), de.Code, de.Message, de.Details))
}

func (h *Handler) write(w http.ResponseWriter, status int, resp *Response) {
	body, err := sonic.Marshal(resp)
	if err != nil {
		h.logger.Error("failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// getRequestID reads the ID stored by the RequestID middleware.
func getRequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}
