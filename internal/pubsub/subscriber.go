package pubsub

import "context"

// Outcome is the result of a single delivery attempt.
type Outcome int

const (
	// Delivered means the message was queued for the subscriber.
	Delivered Outcome = iota
	// TemporarilyFull means the subscriber's outbound path is congested;
	// the message is dropped for this subscriber only.
	TemporarilyFull
	// HandleInvalid means the subscriber is gone and should be pruned.
	HandleInvalid
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case TemporarilyFull:
		return "full"
	case HandleInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Message is one published payload. Payload is shared between all
// recipients and must be treated as read-only.
type Message struct {
	Channel string
	Payload []byte
}

// Subscriber is an externally-owned handle able to receive messages.
//
// Deliver must not block past ctx's deadline. Implementations are compared
// by identity, so they should be pointer types.
type Subscriber interface {
	ID() string
	Deliver(ctx context.Context, msg Message) Outcome
}
