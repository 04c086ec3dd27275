// Package service provides the Command Dispatcher.
//
// Dispatcher is the single synchronous entry point invoked once per parsed
// command. It resolves the default namespace, validates key components,
// routes the command to the Namespace Store or the pub/sub layer and builds
// exactly one Response. Normal error paths (unknown action, missing field,
// illegal separator) become tagged error Responses. A programming error,
// such as a nil caller or a panic inside a handler, is logged and answered
// with an internal-error Response; it never takes the process down.
//
// Storage is consumed through the KeyValueStore interface so the dispatcher
// can be exercised against any store.
package service
