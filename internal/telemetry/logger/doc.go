// Package logger provides structured logging for rediminute.
//
// It wraps log/slog and adds:
//
//   - JSON and text output formats
//   - a process-wide level that can be changed at runtime (config reload)
//   - redaction of payload bytes and secret-looking attributes
//   - request and connection IDs carried through context.Context
//
// Components that take a *slog.Logger get one via Slog, so every record
// passes through the same redaction.
package logger
