package pubsub

import (
	"context"
	"log/slog"
	"time"
)

// DefaultDeliveryTimeout bounds a single delivery attempt.
const DefaultDeliveryTimeout = 50 * time.Millisecond

// Observer receives per-delivery results. It is called synchronously from
// Publish and must be cheap.
type Observer interface {
	ObserveDelivery(channel string, outcome Outcome)
	ObservePrune(channel string)
}

// Notifier publishes messages to the subscribers held by a Registry.
type Notifier struct {
	registry *Registry
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithDeliveryTimeout bounds each delivery attempt. Non-positive values
// keep the default.
func WithDeliveryTimeout(d time.Duration) NotifierOption {
	return func(n *Notifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithLogger sets the notifier's logger.
func WithLogger(logger *slog.Logger) NotifierOption {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithObserver reports delivery outcomes, e.g. to metrics.
func WithObserver(o Observer) NotifierOption {
	return func(n *Notifier) {
		n.observer = o
	}
}

// NewNotifier creates a Notifier over registry.
func NewNotifier(registry *Registry, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		registry: registry,
		timeout:  DefaultDeliveryTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Publish delivers payload to every current subscriber of channel and
// returns how many deliveries succeeded.
//
// Membership is snapshotted up front: subscribe or unsubscribe calls that
// race this publish do not change its delivery set.
func (n *Notifier) Publish(ctx context.Context, channel string, payload []byte) int {
	subs := n.registry.Snapshot(channel)
	if len(subs) == 0 {
		n.logger.DebugContext(ctx, "no subscribers for channel", "channel", channel)
		return 0
	}

	msg := Message{Channel: channel, Payload: payload}
	delivered := 0
	for _, sub := range subs {
		outcome := n.deliver(ctx, sub, msg)
		if n.observer != nil {
			n.observer.ObserveDelivery(channel, outcome)
		}

		switch outcome {
		case Delivered:
			delivered++
		case TemporarilyFull:
			n.logger.DebugContext(ctx, "subscriber congested, message dropped",
				"channel", channel,
				"subscriber", sub.ID())
		case HandleInvalid:
			if n.registry.prune(channel, sub) {
				n.logger.DebugContext(ctx, "pruned invalid subscriber",
					"channel", channel,
					"subscriber", sub.ID())
				if n.observer != nil {
					n.observer.ObservePrune(channel)
				}
			}
		}
	}
	return delivered
}

// deliver makes one bounded attempt. A timed-out or panicking delivery is
// treated as congestion.
func (n *Notifier) deliver(ctx context.Context, sub Subscriber, msg Message) (outcome Outcome) {
	dctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			n.logger.ErrorContext(ctx, "subscriber delivery panicked",
				"channel", msg.Channel,
				"subscriber", sub.ID(),
				"panic", r)
			outcome = TemporarilyFull
		}
	}()

	return sub.Deliver(dctx, msg)
}
