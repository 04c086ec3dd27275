package httpserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/rediminute/internal/server/httpserver/handler"
	"github.com/yndnr/rediminute/internal/telemetry/metric"
)

type staticStats struct{}

func (staticStats) Keys() int          { return 1 }
func (staticStats) Namespaces() int    { return 1 }
func (staticStats) Channels() int      { return 0 }
func (staticStats) Subscriptions() int { return 0 }

func startServer(t *testing.T) (*Server, *handler.Handler) {
	t.Helper()

	log := quietLogger()
	reg := metric.NewRegistry()
	api := handler.New(handler.Config{Stats: staticStats{}, Logger: log})
	router := NewRouter(&RouterConfig{API: api, Metrics: reg.Handler(), Logger: log})

	s := New("127.0.0.1:0", router, log)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	s.Serve(ln)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s, api
}

func get(t *testing.T, s *Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get("http://" + s.Addr().String() + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestServer_Routes(t *testing.T) {
	s, api := startServer(t)
	api.SetReady(true)

	tests := []struct {
		path   string
		status int
		substr string
	}{
		{"/health", http.StatusOK, `"healthy"`},
		{"/ready", http.StatusOK, `"ready"`},
		{"/stats", http.StatusOK, `"keys":1`},
		{"/metrics", http.StatusOK, "go_goroutines"},
		{"/sessions", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		resp, body := get(t, s, tt.path)
		if resp.StatusCode != tt.status {
			t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.status)
		}
		if !strings.Contains(body, tt.substr) {
			t.Errorf("GET %s body missing %q: %s", tt.path, tt.substr, body)
		}
	}
}

func TestServer_RequestIDHeader(t *testing.T) {
	s, _ := startServer(t)

	resp, body := get(t, s, "/health")
	id := resp.Header.Get("X-Request-ID")
	if id == "" {
		t.Fatal("X-Request-ID header missing")
	}
	if !strings.Contains(body, id) {
		t.Errorf("body does not carry request ID %q: %s", id, body)
	}
}

func TestServer_Shutdown(t *testing.T) {
	s := New("127.0.0.1:0", http.NotFoundHandler(), quietLogger())
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	addr := s.Addr().String()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if _, err := http.Get("http://" + addr + "/health"); err == nil {
		t.Error("server still accepting after Shutdown")
	}
}

func TestServer_AddrBeforeStart(t *testing.T) {
	if New("127.0.0.1:0", http.NotFoundHandler(), nil).Addr() != nil {
		t.Error("Addr() before Start should be nil")
	}
}
