package service

import "sync"

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Change represents a resource mutation.
type Change struct {
	Resource string // e.g. "layers"
	Action   string // "created", "updated", "deleted"
	ID       string
}

// Bus is a fan-out pub/sub. Slow subscribers miss messages rather than
// block publishers.
type Bus[T any] struct {
	mu     sync.RWMutex
	subs   map[chan T]struct{}
	buffer int
}

// NewBus creates a bus whose subscriber channels hold buffer messages.
func NewBus[T any](buffer int) *Bus[T] {
	return &Bus[T]{subs: make(map[chan T]struct{}), buffer: buffer}
}

// Publish sends v to all subscribers (non-blocking).
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- v:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel that receives messages.
func (b *Bus[T]) Subscribe() chan T {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown
// channels are ignored.
func (b *Bus[T]) Unsubscribe(ch chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; !ok {
		return
	}
	delete(b.subs, ch)
	close(ch)
}

// Close unsubscribes everyone.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

// Len returns the number of subscribers.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
