// Package bus provides the synchronous publish/subscribe hub that every
// shop system communicates through. Delivery is immediate and in
// registration order; the simulation is single-threaded, so dispatch
// never races with subscription changes made outside a handler.
package bus

import "log/slog"

// Handler receives the payload published on a topic. Payloads are shared,
// not copied; handlers must treat them as read-only.
type Handler func(payload any)

type subscriber struct {
	id uint64
	fn Handler
}

// Bus routes published payloads to subscribers of a topic.
type Bus struct {
	subs   map[Topic][]subscriber
	nextID uint64
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[Topic][]subscriber)}
}

// Subscribe registers a handler for a topic and returns a function that
// removes exactly that registration.
func (b *Bus) Subscribe(topic Topic, fn Handler) func() {
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscriber{id: id, fn: fn})

	return func() {
		list := b.subs[topic]
		for i, s := range list {
			if s.id == id {
				b.subs[topic] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers payload to every current subscriber of topic, in
// registration order, before returning. A panicking handler is recovered
// and logged; the remaining handlers still run and the publisher never
// sees the fault. Returns whether any handler was registered.
func (b *Bus) Publish(topic Topic, payload any) bool {
	// Snapshot so a handler unsubscribing mid-dispatch cannot skip peers.
	list := b.subs[topic]
	if len(list) == 0 {
		return false
	}
	for _, s := range list {
		invoke(topic, s.fn, payload)
	}
	return true
}

func invoke(topic Topic, fn Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked", "topic", string(topic), "panic", r)
		}
	}()
	fn(payload)
}

// UnsubscribeAll drops every subscriber of a topic.
func (b *Bus) UnsubscribeAll(topic Topic) {
	delete(b.subs, topic)
}

// Reset drops every subscriber of every topic.
func (b *Bus) Reset() {
	b.subs = make(map[Topic][]subscriber)
}

// SubscriberCount reports how many handlers a topic currently has.
func (b *Bus) SubscriberCount(topic Topic) int {
	return len(b.subs[topic])
}
