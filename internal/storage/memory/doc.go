// Package memory provides the in-memory Namespace Store.
//
// Entries are keyed by a fully-qualified (namespace, key) pair and held in a
// sharded concurrent map. Every operation is computation-only: nothing here
// blocks on I/O, and each Set/Get/Delete/Exists is atomic under its shard's
// lock. There is no atomicity across operations.
//
// Namespaces are implicit. A namespace comes into being with its first
// write, and reading from a namespace that was never written reports
// absence rather than an error.
package memory
