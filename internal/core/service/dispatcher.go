package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yndnr/rediminute/internal/core/domain"
	"github.com/yndnr/rediminute/internal/pubsub"
)

// KeyValueStore is the storage contract the dispatcher needs. Components
// passed in are already validated.
type KeyValueStore interface {
	Set(ns, key string, value []byte)
	Get(ns, key string) ([]byte, bool)
	Delete(ns, key string) bool
	Exists(ns, key string) bool
	Len() int
	Namespaces() int
}

// CommandObserver is told about every executed command.
type CommandObserver interface {
	ObserveCommand(action domain.Action, resp domain.Response, d time.Duration)
}

// Caller identifies the connection a command arrived on.
type Caller struct {
	// Subscriber is the connection's handle for pub/sub attribution.
	Subscriber pubsub.Subscriber
	// RemoteAddr is used for logging only.
	RemoteAddr string
}

// Dispatcher turns Commands into Responses.
type Dispatcher struct {
	store    KeyValueStore
	registry *pubsub.Registry
	notifier *pubsub.Notifier
	logger   *slog.Logger
	observer CommandObserver
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithObserver reports every command, e.g. to metrics.
func WithObserver(o CommandObserver) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// NewDispatcher creates a dispatcher over the given store and pub/sub layer.
func NewDispatcher(store KeyValueStore, registry *pubsub.Registry, notifier *pubsub.Notifier, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		registry: registry,
		notifier: notifier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Execute runs one command on behalf of caller.
func (d *Dispatcher) Execute(ctx context.Context, cmd domain.Command, caller *Caller) (resp domain.Response) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "command handler panicked",
				"action", cmd.Action,
				"panic", r)
			resp = domain.ErrorResponse(domain.ErrInternal.WithDetails(fmt.Sprint(r)))
		}
		if d.observer != nil {
			d.observer.ObserveCommand(cmd.Action, resp, time.Since(start))
		}
	}()

	if caller == nil {
		d.logger.ErrorContext(ctx, "command executed without caller", "action", cmd.Action)
		return domain.ErrorResponse(domain.ErrInternal.WithDetails("missing caller context"))
	}

	switch cmd.Action {
	case domain.ActionPing:
		return domain.Response{Kind: domain.RespPong, Value: cmd.Value}
	case domain.ActionSet:
		return d.handleSet(ctx, cmd, caller)
	case domain.ActionGet:
		return d.handleGet(cmd)
	case domain.ActionDel:
		return d.handleDel(ctx, cmd, caller)
	case domain.ActionExists:
		return d.handleExists(cmd)
	case domain.ActionSubscribe:
		return d.handleSubscribe(ctx, cmd, caller)
	case domain.ActionUnsubscribe:
		return d.handleUnsubscribe(ctx, cmd, caller)
	case domain.ActionPublish:
		return d.handlePublish(ctx, cmd)
	default:
		return domain.ErrorResponse(domain.ErrUnknownAction.WithDetails("'" + string(cmd.Action) + "'"))
	}
}

// Disconnect drops every subscription held by caller. Connection handlers
// call it exactly once on teardown.
func (d *Dispatcher) Disconnect(caller *Caller) {
	if caller == nil || caller.Subscriber == nil {
		return
	}
	if removed := d.registry.UnsubscribeAll(caller.Subscriber); len(removed) > 0 {
		d.logger.Debug("released subscriptions on disconnect",
			"remote", caller.RemoteAddr,
			"subscriber", caller.Subscriber.ID(),
			"channels", len(removed))
	}
}

// resolveKey applies the default namespace and validates both components.
func resolveKey(cmd domain.Command) (domain.Key, error) {
	if cmd.Key == nil {
		return domain.Key{}, domain.ErrMissingField.WithDetails("key")
	}
	ns := domain.GlobalNamespace
	if cmd.Namespace != nil {
		ns = *cmd.Namespace
	}
	return domain.NewKey(ns, *cmd.Key)
}

func (d *Dispatcher) handleSet(ctx context.Context, cmd domain.Command, caller *Caller) domain.Response {
	key, err := resolveKey(cmd)
	if err != nil {
		return domain.ErrorResponse(err)
	}
	if !cmd.HasValue && cmd.Value == nil {
		return domain.ErrorResponse(domain.ErrMissingField.WithDetails("value"))
	}

	d.store.Set(key.Namespace, key.Name, cmd.Value)
	d.logger.DebugContext(ctx, "key set",
		"key", key.String(),
		"value", cmd.Value,
		"remote", caller.RemoteAddr)
	return domain.Response{Kind: domain.RespOK}
}

func (d *Dispatcher) handleGet(cmd domain.Command) domain.Response {
	key, err := resolveKey(cmd)
	if err != nil {
		return domain.ErrorResponse(err)
	}

	value, ok := d.store.Get(key.Namespace, key.Name)
	if !ok {
		return domain.Response{Kind: domain.RespAbsent}
	}
	return domain.Response{Kind: domain.RespResult, Value: value}
}

func (d *Dispatcher) handleDel(ctx context.Context, cmd domain.Command, caller *Caller) domain.Response {
	key, err := resolveKey(cmd)
	if err != nil {
		return domain.ErrorResponse(err)
	}

	existed := d.store.Delete(key.Namespace, key.Name)
	d.logger.DebugContext(ctx, "key deleted",
		"key", key.String(),
		"existed", existed,
		"remote", caller.RemoteAddr)
	return domain.Response{Kind: domain.RespDeleted, Flag: existed}
}

func (d *Dispatcher) handleExists(cmd domain.Command) domain.Response {
	key, err := resolveKey(cmd)
	if err != nil {
		return domain.ErrorResponse(err)
	}
	return domain.Response{Kind: domain.RespExists, Flag: d.store.Exists(key.Namespace, key.Name)}
}

func (d *Dispatcher) handleSubscribe(ctx context.Context, cmd domain.Command, caller *Caller) domain.Response {
	if cmd.Channel == nil {
		return domain.ErrorResponse(domain.ErrMissingField.WithDetails("channel"))
	}
	if caller.Subscriber == nil {
		d.logger.ErrorContext(ctx, "subscribe without subscriber handle", "remote", caller.RemoteAddr)
		return domain.ErrorResponse(domain.ErrInternal.WithDetails("caller has no subscriber handle"))
	}

	count := d.registry.Subscribe(*cmd.Channel, caller.Subscriber)
	d.logger.DebugContext(ctx, "subscribed",
		"channel", *cmd.Channel,
		"subscriber", caller.Subscriber.ID(),
		"remote", caller.RemoteAddr)
	return domain.Response{Kind: domain.RespSubscribed, Channel: *cmd.Channel, Count: count}
}

func (d *Dispatcher) handleUnsubscribe(ctx context.Context, cmd domain.Command, caller *Caller) domain.Response {
	if cmd.Channel == nil {
		return domain.ErrorResponse(domain.ErrMissingField.WithDetails("channel"))
	}
	if caller.Subscriber == nil {
		// Nothing can have been joined without a handle.
		return domain.Response{Kind: domain.RespUnsubscribed, Channel: *cmd.Channel}
	}

	count := d.registry.Unsubscribe(*cmd.Channel, caller.Subscriber)
	d.logger.DebugContext(ctx, "unsubscribed",
		"channel", *cmd.Channel,
		"subscriber", caller.Subscriber.ID())
	return domain.Response{Kind: domain.RespUnsubscribed, Channel: *cmd.Channel, Count: count}
}

func (d *Dispatcher) handlePublish(ctx context.Context, cmd domain.Command) domain.Response {
	if cmd.Channel == nil {
		return domain.ErrorResponse(domain.ErrMissingField.WithDetails("channel"))
	}
	if !cmd.HasMessage && cmd.Message == nil {
		return domain.ErrorResponse(domain.ErrMissingField.WithDetails("message"))
	}

	delivered := d.notifier.Publish(ctx, *cmd.Channel, cmd.Message)
	return domain.Response{Kind: domain.RespPublished, Channel: *cmd.Channel, Count: delivered}
}

// Keys returns the number of stored entries.
func (d *Dispatcher) Keys() int { return d.store.Len() }

// Namespaces returns the number of non-empty namespaces.
func (d *Dispatcher) Namespaces() int { return d.store.Namespaces() }

// Channels returns the number of channels with subscribers.
func (d *Dispatcher) Channels() int { return d.registry.Channels() }

// Subscriptions returns the number of channel subscriptions.
func (d *Dispatcher) Subscriptions() int { return d.registry.Subscriptions() }
