package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/rediminute/internal/core/domain"
	"github.com/yndnr/rediminute/internal/pubsub"
	"github.com/yndnr/rediminute/internal/storage/memory"
)

type commandLog struct {
	mu      sync.Mutex
	actions []domain.Action
}

func (c *commandLog) ObserveCommand(action domain.Action, _ domain.Response, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, action)
}

func newTestDispatcher(t *testing.T, opts ...Option) *Dispatcher {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := pubsub.NewRegistry()
	notifier := pubsub.NewNotifier(registry, pubsub.WithLogger(logger))
	return NewDispatcher(memory.New(), registry, notifier, append([]Option{WithLogger(logger)}, opts...)...)
}

func newCaller() *Caller {
	return &Caller{Subscriber: pubsub.NewMailbox(8), RemoteAddr: "test"}
}

func set(ns *string, key, value string) domain.Command {
	return domain.Command{Action: domain.ActionSet, Namespace: ns, Key: domain.String(key), Value: []byte(value), HasValue: true}
}

func get(ns *string, key string) domain.Command {
	return domain.Command{Action: domain.ActionGet, Namespace: ns, Key: domain.String(key)}
}

func del(ns *string, key string) domain.Command {
	return domain.Command{Action: domain.ActionDel, Namespace: ns, Key: domain.String(key)}
}

func expectKind(t *testing.T, resp domain.Response, kind domain.ResponseKind) {
	t.Helper()
	if resp.Kind != kind {
		t.Fatalf("response kind = %q (err %v), want %q", resp.Kind, resp.Err, kind)
	}
}

func expectError(t *testing.T, resp domain.Response, target *domain.DomainError) {
	t.Helper()
	if !resp.IsError() {
		t.Fatalf("response kind = %q, want error %s", resp.Kind, target.Code)
	}
	if !errors.Is(resp.Err, target) {
		t.Fatalf("error = %v, want %s", resp.Err, target.Code)
	}
}

func TestDispatcher_Ping(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Execute(context.Background(), domain.Command{Action: domain.ActionPing}, newCaller())
	expectKind(t, resp, domain.RespPong)

	resp = d.Execute(context.Background(), domain.Command{Action: domain.ActionPing, Value: []byte("hi")}, newCaller())
	if string(resp.Value) != "hi" {
		t.Errorf("echo = %q, want \"hi\"", resp.Value)
	}
	if d.Keys() != 0 {
		t.Error("PING must not touch the store")
	}
}

func TestDispatcher_EndToEnd(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()
	caller := newCaller()

	expectKind(t, d.Execute(ctx, set(nil, "k1", "v1"), caller), domain.RespOK)

	resp := d.Execute(ctx, get(nil, "k1"), caller)
	expectKind(t, resp, domain.RespResult)
	if string(resp.Value) != "v1" {
		t.Errorf("GET k1 = %q, want v1", resp.Value)
	}

	resp = d.Execute(ctx, del(nil, "k1"), caller)
	expectKind(t, resp, domain.RespDeleted)
	if !resp.Flag {
		t.Error("first DEL existed = false")
	}

	expectKind(t, d.Execute(ctx, get(nil, "k1"), caller), domain.RespAbsent)

	resp = d.Execute(ctx, del(nil, "k1"), caller)
	if resp.Kind != domain.RespDeleted || resp.Flag {
		t.Errorf("second DEL = %+v, want existed=false", resp)
	}

	resp = d.Execute(ctx, domain.Command{Action: domain.ActionSubscribe, Channel: domain.String("ch1")}, caller)
	expectKind(t, resp, domain.RespSubscribed)
	if resp.Count != 1 || resp.Channel != "ch1" {
		t.Errorf("SUBSCRIBE = %+v", resp)
	}

	resp = d.Execute(ctx, domain.Command{
		Action:     domain.ActionPublish,
		Channel:    domain.String("ch1"),
		Message:    []byte("hello"),
		HasMessage: true,
	}, newCaller())
	expectKind(t, resp, domain.RespPublished)
	if resp.Count != 1 {
		t.Errorf("PUBLISH delivered = %d, want 1", resp.Count)
	}

	mb := caller.Subscriber.(*pubsub.Mailbox)
	select {
	case msg := <-mb.C():
		if msg.Channel != "ch1" || string(msg.Payload) != "hello" {
			t.Errorf("received %+v", msg)
		}
	default:
		t.Fatal("subscriber queue is empty")
	}
}

func TestDispatcher_DefaultNamespace(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()
	caller := newCaller()

	d.Execute(ctx, set(nil, "k", "v"), caller)

	resp := d.Execute(ctx, get(domain.String(domain.GlobalNamespace), "k"), caller)
	expectKind(t, resp, domain.RespResult)
	if string(resp.Value) != "v" {
		t.Errorf("explicit global GET = %q, want v", resp.Value)
	}

	expectKind(t, d.Execute(ctx, get(domain.String("other"), "k"), caller), domain.RespAbsent)
}

func TestDispatcher_NamespaceIsolation(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()
	caller := newCaller()

	d.Execute(ctx, set(domain.String("a"), "k", "v1"), caller)
	d.Execute(ctx, set(domain.String("b"), "k", "v2"), caller)

	if got := d.Execute(ctx, get(domain.String("a"), "k"), caller); string(got.Value) != "v1" {
		t.Errorf("a^k = %q, want v1", got.Value)
	}
	if got := d.Execute(ctx, get(domain.String("b"), "k"), caller); string(got.Value) != "v2" {
		t.Errorf("b^k = %q, want v2", got.Value)
	}
	if d.Namespaces() != 2 {
		t.Errorf("Namespaces() = %d, want 2", d.Namespaces())
	}
}

func TestDispatcher_Exists(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()
	caller := newCaller()

	cmd := domain.Command{Action: domain.ActionExists, Key: domain.String("k")}
	if resp := d.Execute(ctx, cmd, caller); resp.Kind != domain.RespExists || resp.Flag {
		t.Errorf("EXISTS before SET = %+v", resp)
	}
	d.Execute(ctx, set(nil, "k", ""), caller)
	if resp := d.Execute(ctx, cmd, caller); !resp.Flag {
		t.Errorf("EXISTS after SET of empty value = %+v", resp)
	}
}

func TestDispatcher_Errors(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()
	caller := newCaller()

	tests := []struct {
		name string
		cmd  domain.Command
		want *domain.DomainError
	}{
		{"unknown action", domain.Command{Action: "FLUSHALL"}, domain.ErrUnknownAction},
		{"empty action", domain.Command{}, domain.ErrUnknownAction},
		{"garbage action", domain.Command{Action: "\x00^%$"}, domain.ErrUnknownAction},
		{"set without key", domain.Command{Action: domain.ActionSet, Value: []byte("v")}, domain.ErrMissingField},
		{"set without value", domain.Command{Action: domain.ActionSet, Key: domain.String("k")}, domain.ErrMissingField},
		{"get without key", domain.Command{Action: domain.ActionGet}, domain.ErrMissingField},
		{"del without key", domain.Command{Action: domain.ActionDel}, domain.ErrMissingField},
		{"subscribe without channel", domain.Command{Action: domain.ActionSubscribe}, domain.ErrMissingField},
		{"unsubscribe without channel", domain.Command{Action: domain.ActionUnsubscribe}, domain.ErrMissingField},
		{"publish without channel", domain.Command{Action: domain.ActionPublish, Message: []byte("m")}, domain.ErrMissingField},
		{"publish without message", domain.Command{Action: domain.ActionPublish, Channel: domain.String("c")}, domain.ErrMissingField},
		{"separator in key", set(nil, "a^b", "v"), domain.ErrNamespaceSyntax},
		{"separator in namespace", get(domain.String("x^y"), "k"), domain.ErrNamespaceSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, d.Execute(ctx, tt.cmd, caller), tt.want)
		})
	}

	// Errors never leave partial state behind.
	if d.Keys() != 0 {
		t.Errorf("Keys() = %d after failed commands, want 0", d.Keys())
	}

	// The dispatcher keeps working after errors.
	expectKind(t, d.Execute(ctx, set(nil, "k", "v"), caller), domain.RespOK)
}

func TestDispatcher_NilCaller(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Execute(context.Background(), set(nil, "k", "v"), nil)
	expectError(t, resp, domain.ErrInternal)
	if d.Keys() != 0 {
		t.Error("command with nil caller must not reach the store")
	}
}

func TestDispatcher_SubscribeWithoutHandle(t *testing.T) {
	d := newTestDispatcher(t)
	caller := &Caller{RemoteAddr: "no-handle"}

	resp := d.Execute(context.Background(), domain.Command{Action: domain.ActionSubscribe, Channel: domain.String("c")}, caller)
	expectError(t, resp, domain.ErrInternal)

	resp = d.Execute(context.Background(), domain.Command{Action: domain.ActionUnsubscribe, Channel: domain.String("c")}, caller)
	expectKind(t, resp, domain.RespUnsubscribed)
}

func TestDispatcher_UnsubscribeNeverJoined(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Execute(context.Background(), domain.Command{Action: domain.ActionUnsubscribe, Channel: domain.String("nope")}, newCaller())
	expectKind(t, resp, domain.RespUnsubscribed)
	if resp.Count != 0 {
		t.Errorf("Count = %d, want 0", resp.Count)
	}
}

func TestDispatcher_PublishNoSubscribers(t *testing.T) {
	d := newTestDispatcher(t)

	resp := d.Execute(context.Background(), domain.Command{
		Action:     domain.ActionPublish,
		Channel:    domain.String("empty"),
		HasMessage: true,
	}, newCaller())
	expectKind(t, resp, domain.RespPublished)
	if resp.Count != 0 {
		t.Errorf("delivered = %d, want 0", resp.Count)
	}
}

func TestDispatcher_Disconnect(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()
	sub := newCaller()
	other := newCaller()

	for _, ch := range []string{"a", "b"} {
		d.Execute(ctx, domain.Command{Action: domain.ActionSubscribe, Channel: domain.String(ch)}, sub)
	}
	d.Execute(ctx, domain.Command{Action: domain.ActionSubscribe, Channel: domain.String("a")}, other)

	d.Disconnect(sub)
	d.Disconnect(sub)
	d.Disconnect(nil)

	if d.Subscriptions() != 1 {
		t.Errorf("Subscriptions() = %d, want 1", d.Subscriptions())
	}

	resp := d.Execute(ctx, domain.Command{Action: domain.ActionPublish, Channel: domain.String("a"), Message: []byte("x")}, other)
	if resp.Count != 1 {
		t.Errorf("delivered = %d, want 1", resp.Count)
	}
	if sub.Subscriber.(*pubsub.Mailbox).Len() != 0 {
		t.Error("disconnected subscriber received a message")
	}
}

func TestDispatcher_Observer(t *testing.T) {
	obs := &commandLog{}
	d := newTestDispatcher(t, WithObserver(obs))
	ctx := context.Background()

	d.Execute(ctx, domain.Command{Action: domain.ActionPing}, newCaller())
	d.Execute(ctx, domain.Command{Action: "NOPE"}, newCaller())
	d.Execute(ctx, domain.Command{Action: domain.ActionPing}, nil)

	if len(obs.actions) != 3 {
		t.Errorf("observed %d commands, want 3", len(obs.actions))
	}
}

type panickingStore struct{ KeyValueStore }

func (panickingStore) Get(string, string) ([]byte, bool) { panic("corrupt store") }

func TestDispatcher_RecoversPanics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := pubsub.NewRegistry()
	d := NewDispatcher(panickingStore{memory.New()}, registry, pubsub.NewNotifier(registry), WithLogger(logger))

	resp := d.Execute(context.Background(), get(nil, "k"), newCaller())
	expectError(t, resp, domain.ErrInternal)
}

func TestDispatcher_ConcurrentSets(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := 0; i < 1000; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			d.Execute(ctx, set(nil, fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i)), newCaller())
		}(i)
		go func(i int) {
			defer wg.Done()
			d.Execute(ctx, set(domain.String("hot"), "same", fmt.Sprintf("v%d", i)), newCaller())
		}(i)
	}
	wg.Wait()

	for i := 0; i < 1000; i++ {
		resp := d.Execute(ctx, get(nil, fmt.Sprintf("k%d", i)), newCaller())
		if string(resp.Value) != fmt.Sprintf("v%d", i) {
			t.Fatalf("k%d = %q", i, resp.Value)
		}
	}

	resp := d.Execute(ctx, get(domain.String("hot"), "same"), newCaller())
	var n int
	if _, err := fmt.Sscanf(string(resp.Value), "v%d", &n); err != nil || n < 0 || n >= 1000 {
		t.Errorf("hot^same = %q, not one of the attempted values", resp.Value)
	}
}
