package logger

import (
	"context"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	l, buf := newJSONLogger(t, "info")

	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("test message")

	if buf.Len() == 0 {
		t.Error("logger from context should produce output")
	}
}

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Error("FromContext should return default logger, got nil")
	}
}

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	if RequestIDFromContext(ctx) != "" || ConnIDFromContext(ctx) != "" {
		t.Fatal("empty context should carry no IDs")
	}

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithConnID(ctx, "conn-1")

	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}
	if got := ConnIDFromContext(ctx); got != "conn-1" {
		t.Errorf("ConnIDFromContext() = %q", got)
	}
}

func TestL_EnrichesWithIDs(t *testing.T) {
	l, buf := newJSONLogger(t, "info")

	ctx := WithLogger(context.Background(), l)
	ctx = WithRequestID(ctx, "req-42")
	ctx = WithConnID(ctx, "conn-7")
	L(ctx).Info("handled")

	entry := decode(t, buf)
	if entry["request_id"] != "req-42" {
		t.Errorf("request_id = %v", entry["request_id"])
	}
	if entry["conn_id"] != "conn-7" {
		t.Errorf("conn_id = %v", entry["conn_id"])
	}
}
