package logger

import (
	"log/slog"
	"testing"
)

func TestRedactSensitive_Payloads(t *testing.T) {
	l, buf := newJSONLogger(t, "info")

	l.Info("key set",
		"key", "app^user",
		"value", []byte("super private"),
		"message", "hello",
		"payload", "")

	entry := decode(t, buf)
	tests := []struct {
		field string
		want  string
	}{
		{"key", "app^user"},
		{"value", "<13 bytes>"},
		{"message", "<5 bytes>"},
		{"payload", "<0 bytes>"},
	}
	for _, tt := range tests {
		if entry[tt.field] != tt.want {
			t.Errorf("%s = %v, want %q", tt.field, entry[tt.field], tt.want)
		}
	}
}

func TestRedactSensitive_Secrets(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"password", slog.String("password", "hunter2"), redactedValue},
		{"mixed case", slog.String("Auth_Header", "Bearer abc"), redactedValue},
		{"empty secret kept", slog.String("client_secret", ""), ""},
		{"channel kept", slog.String("channel", "news"), "news"},
		{"key kept", slog.String("key", "ns^k"), "ns^k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redactSensitive(tt.attr)
			if got.Value.String() != tt.want {
				t.Errorf("redactSensitive(%v) = %q, want %q", tt.attr, got.Value.String(), tt.want)
			}
		})
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	attr := slog.Group("request", slog.String("value", "abc"), slog.Int("count", 2))

	got := redactSensitive(attr).Value.Group()
	if got[0].Value.String() != "<3 bytes>" {
		t.Errorf("nested value = %q", got[0].Value.String())
	}
	if got[1].Value.Int64() != 2 {
		t.Errorf("nested count = %v", got[1].Value)
	}
}

func TestRedactSensitive_NonPayloadKinds(t *testing.T) {
	// Numbers under a payload key are not byte payloads.
	got := redactSensitive(slog.Int("value", 42))
	if got.Value.Int64() != 42 {
		t.Errorf("int value = %v, want 42", got.Value)
	}
}

func TestRedactPayload(t *testing.T) {
	if got := RedactPayload([]byte("hello")); got != "<5 bytes>" {
		t.Errorf("RedactPayload() = %q", got)
	}
}
