// Package domain defines the core value types of rediminute.
//
// Everything here is pure data without IO dependencies:
//
//   - Key: a fully-qualified (namespace, key) pair and its "ns^key" rendering
//   - Command: the structured request handed to the dispatcher by a codec
//   - Response: the tagged success or error value handed back to the codec
//   - Errors: the error taxonomy and its stable codes
//
// Codecs build Commands, the dispatcher turns each one into exactly one
// Response, and codecs serialize Responses in whatever wire format they speak.
package domain
