package handler

import (
	"net/http"

	"github.com/yndnr/rediminute/internal/infra/buildinfo"
)

// handleStats handles GET /stats.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Version:     buildinfo.Version,
		Connections: make(map[string]int64, len(h.listeners)),
	}
	if h.stats != nil {
		resp.Keys = h.stats.Keys()
		resp.Namespaces = h.stats.Namespaces()
		resp.Channels = h.stats.Channels()
		resp.Subscriptions = h.stats.Subscriptions()
	}
	for name, l := range h.listeners {
		n := l.ActiveConnections()
		resp.Connections[name] = n
		resp.TotalConnections += n
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}
