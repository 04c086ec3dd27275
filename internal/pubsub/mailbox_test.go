package pubsub

import (
	"context"
	"testing"
)

func TestMailbox_Deliver(t *testing.T) {
	m := NewMailbox(2)
	ctx := context.Background()

	if m.ID() == "" {
		t.Fatal("ID() is empty")
	}
	if NewMailbox(1).ID() == m.ID() {
		t.Error("mailbox IDs should be unique")
	}

	for i := 0; i < 2; i++ {
		if got := m.Deliver(ctx, Message{Channel: "c", Payload: []byte{byte(i)}}); got != Delivered {
			t.Fatalf("Deliver() #%d = %v, want delivered", i, got)
		}
	}
	if got := m.Deliver(ctx, Message{Channel: "c"}); got != TemporarilyFull {
		t.Errorf("Deliver() into full mailbox = %v, want full", got)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestMailbox_Close(t *testing.T) {
	m := NewMailbox(4)
	m.Deliver(context.Background(), Message{Channel: "c", Payload: []byte("queued")})

	m.Close()
	m.Close()

	if got := m.Deliver(context.Background(), Message{Channel: "c"}); got != HandleInvalid {
		t.Errorf("Deliver() after Close = %v, want invalid", got)
	}

	// Queued messages are still drained before the channel reports closed.
	msg, ok := <-m.C()
	if !ok || string(msg.Payload) != "queued" {
		t.Errorf("first receive = (%v, %v)", msg, ok)
	}
	if _, ok := <-m.C(); ok {
		t.Error("C() should be closed")
	}
}

func TestMailbox_DefaultSize(t *testing.T) {
	m := NewMailbox(0)
	if cap(m.ch) != DefaultMailboxSize {
		t.Errorf("capacity = %d, want %d", cap(m.ch), DefaultMailboxSize)
	}
}

func TestOutcome_String(t *testing.T) {
	tests := map[Outcome]string{
		Delivered:       "delivered",
		TemporarilyFull: "full",
		HandleInvalid:   "invalid",
		Outcome(42):     "unknown",
	}
	for o, want := range tests {
		if o.String() != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", o, o.String(), want)
		}
	}
}
