package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Attributes that carry client payloads. Their content is never written,
// only the size.
var payloadKeys = map[string]bool{
	"value":   true,
	"payload": true,
	"message": true,
}

// Attribute name fragments that suggest a secret.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"credential",
	"auth",
	"bearer",
}

const redactedValue = "***REDACTED***"

func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	keyLower := strings.ToLower(a.Key)
	if payloadKeys[keyLower] {
		if n, ok := payloadSize(a.Value); ok {
			return slog.String(a.Key, fmt.Sprintf("<%d bytes>", n))
		}
	}

	if a.Value.Kind() == slog.KindString && a.Value.String() != "" && IsSensitiveKey(a.Key) {
		return slog.String(a.Key, redactedValue)
	}
	return a
}

func payloadSize(v slog.Value) (int, bool) {
	switch v.Kind() {
	case slog.KindString:
		return len(v.String()), true
	case slog.KindAny:
		switch p := v.Any().(type) {
		case []byte:
			return len(p), true
		case string:
			return len(p), true
		}
	}
	return 0, false
}

// IsSensitiveKey checks if an attribute name suggests secret content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// RedactPayload renders a payload the way the handlers log it.
func RedactPayload(p []byte) string {
	return fmt.Sprintf("<%d bytes>", len(p))
}
