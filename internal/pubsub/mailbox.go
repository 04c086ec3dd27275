package pubsub

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
)

// DefaultMailboxSize is the default number of queued messages per mailbox.
const DefaultMailboxSize = 256

// Mailbox is a bounded outbound queue owned by one connection.
//
// Deliver never blocks: a full queue yields TemporarilyFull and a closed
// mailbox yields HandleInvalid.
type Mailbox struct {
	id string
	ch chan Message

	mu     sync.RWMutex
	closed bool

	dropped atomic.Uint64
}

// NewMailbox creates a mailbox with a fresh ULID identity.
func NewMailbox(size int) *Mailbox {
	if size <= 0 {
		size = DefaultMailboxSize
	}
	return &Mailbox{
		id: ulid.Make().String(),
		ch: make(chan Message, size),
	}
}

// ID implements Subscriber.
func (m *Mailbox) ID() string {
	return m.id
}

// Deliver implements Subscriber.
func (m *Mailbox) Deliver(_ context.Context, msg Message) Outcome {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return HandleInvalid
	}
	select {
	case m.ch <- msg:
		return Delivered
	default:
		m.dropped.Add(1)
		return TemporarilyFull
	}
}

// C returns the receive side of the queue. It is closed by Close.
func (m *Mailbox) C() <-chan Message {
	return m.ch
}

// Close marks the mailbox invalid and closes C. It is idempotent.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.ch)
	}
}

// Dropped returns how many messages were refused because the queue was full.
func (m *Mailbox) Dropped() uint64 {
	return m.dropped.Load()
}

// Len returns the number of queued messages.
func (m *Mailbox) Len() int {
	return len(m.ch)
}
