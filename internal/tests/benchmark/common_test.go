package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"testing"

	"github.com/yndnr/rediminute/internal/core/domain"
	"github.com/yndnr/rediminute/internal/core/service"
	"github.com/yndnr/rediminute/internal/pubsub"
	"github.com/yndnr/rediminute/internal/storage/memory"
)

// KeyCounts defines the preloaded key counts for benchmarking.
var KeyCounts = []int{1000, 10000, 100000}

// SubscriberCounts defines the fan-out sizes for publish benchmarks.
var SubscriberCounts = []int{1, 10, 100, 1000}

func newDispatcher(store *memory.Store) (*service.Dispatcher, *pubsub.Registry) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := pubsub.NewRegistry()
	notifier := pubsub.NewNotifier(registry, pubsub.WithLogger(logger))
	return service.NewDispatcher(store, registry, notifier, service.WithLogger(logger)), registry
}

func keyName(i int) string {
	return fmt.Sprintf("key-%d", i)
}

// prefillStore loads count keys spread over 16 namespaces.
func prefillStore(store *memory.Store, count int) {
	value := []byte("value")
	for i := 0; i < count; i++ {
		store.Set(fmt.Sprintf("ns-%d", i%16), keyName(i), value)
	}
}

func setCommand(ns, key string, value []byte) domain.Command {
	return domain.Command{
		Action:    domain.ActionSet,
		Namespace: domain.String(ns),
		Key:       domain.String(key),
		Value:     value,
		HasValue:  true,
	}
}

func getCommand(ns, key string) domain.Command {
	return domain.Command{
		Action:    domain.ActionGet,
		Namespace: domain.String(ns),
		Key:       domain.String(key),
	}
}

// drain empties a mailbox until ctx ends.
func drain(ctx context.Context, mb *pubsub.Mailbox) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-mb.C():
		}
	}
}

// reportMemory reports heap usage after a forced GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithKeyCounts runs benchFn once per preload size.
func runWithKeyCounts(b *testing.B, benchFn func(b *testing.B, count int)) {
	for _, count := range KeyCounts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
