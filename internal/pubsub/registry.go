package pubsub

import "sync"

// Registry maps channels to their subscribers.
type Registry struct {
	mu sync.RWMutex

	// channel -> subscriber ID -> subscriber
	channels map[string]map[string]Subscriber
	// subscriber ID -> set of channels
	bySubscriber map[string]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		channels:     make(map[string]map[string]Subscriber),
		bySubscriber: make(map[string]map[string]struct{}),
	}
}

// Subscribe adds sub to channel. Subscribing twice has the same effect as
// once. It returns the number of channels sub is now subscribed to.
func (r *Registry) Subscribe(channel string, sub Subscriber) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.channels[channel]
	if !ok {
		members = make(map[string]Subscriber)
		r.channels[channel] = members
	}
	members[sub.ID()] = sub

	joined, ok := r.bySubscriber[sub.ID()]
	if !ok {
		joined = make(map[string]struct{})
		r.bySubscriber[sub.ID()] = joined
	}
	joined[channel] = struct{}{}

	return len(joined)
}

// Unsubscribe removes sub from channel; unknown pairs are a no-op. It
// returns the number of channels sub is still subscribed to.
func (r *Registry) Unsubscribe(channel string, sub Subscriber) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(channel, sub.ID())
	return len(r.bySubscriber[sub.ID()])
}

// UnsubscribeAll removes sub from every channel and returns the channels
// it was removed from.
func (r *Registry) UnsubscribeAll(sub Subscriber) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined := r.bySubscriber[sub.ID()]
	removed := make([]string, 0, len(joined))
	for channel := range joined {
		removed = append(removed, channel)
	}
	for _, channel := range removed {
		r.removeLocked(channel, sub.ID())
	}
	return removed
}

// prune removes id from channel only if the registered subscriber is still
// the one that failed, so a re-subscription racing the publish survives.
func (r *Registry) prune(channel string, sub Subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.channels[channel][sub.ID()]
	if !ok || current != sub {
		return false
	}
	r.removeLocked(channel, sub.ID())
	return true
}

func (r *Registry) removeLocked(channel, id string) {
	if members, ok := r.channels[channel]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(r.channels, channel)
		}
	}
	if joined, ok := r.bySubscriber[id]; ok {
		delete(joined, channel)
		if len(joined) == 0 {
			delete(r.bySubscriber, id)
		}
	}
}

// Snapshot returns a copy of channel's current membership.
func (r *Registry) Snapshot(channel string) []Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.channels[channel]
	out := make([]Subscriber, 0, len(members))
	for _, sub := range members {
		out = append(out, sub)
	}
	return out
}

// Channels returns the number of channels with at least one subscriber.
func (r *Registry) Channels() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// Subscriptions returns the total number of (channel, subscriber) pairs.
func (r *Registry) Subscriptions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, members := range r.channels {
		n += len(members)
	}
	return n
}
