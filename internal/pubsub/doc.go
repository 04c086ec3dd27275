// Package pubsub implements in-process channel subscriptions and
// best-effort message delivery.
//
// Registry tracks which subscribers are interested in which channels. It
// holds non-owning references: the connection layer owns each Subscriber
// and must call UnsubscribeAll exactly once when the connection ends.
//
// Notifier delivers a published message to a snapshot of a channel's
// membership. Delivery is best-effort per subscriber. A subscriber whose
// queue is full is skipped. A subscriber that reports it is no longer valid
// is pruned from the channel during the same pass. Neither outcome affects
// delivery to the remaining subscribers, and neither ever blocks the
// publisher.
//
// Mailbox is the bounded per-connection queue that connection handlers use
// as their Subscriber.
package pubsub
