// Package notify provides the subscribe/unsubscribe fan-out shared by the
// watchlist store, the identity provider and the auth mirror.
package notify

import "sync"

// Hub delivers published values to every subscriber in publish order.
// Listeners run on the publishing goroutine and must not publish on the
// same hub; they may unsubscribe.
type Hub[T any] struct {
	mu        sync.Mutex
	listeners map[uint64]func(T)
	order     []uint64
	next      uint64

	deliverMu sync.Mutex
}

// Subscribe registers fn and returns a handle that removes it. The handle is idempotent.
func (h *Hub[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	h.mu.Lock()
	if h.listeners == nil {
		h.listeners = make(map[uint64]func(T))
	}
	id := h.next
	h.next++
	h.listeners[id] = fn
	h.order = append(h.order, id)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

// Publish delivers v to a snapshot of the current listeners.
func (h *Hub[T]) Publish(v T) {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	for _, fn := range h.snapshot() {
		fn(v)
	}
}

// Len reports the number of active listeners.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}

func (h *Hub[T]) snapshot() []func(T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fns := make([]func(T), 0, len(h.order))
	for _, id := range h.order {
		if fn, ok := h.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

func (h *Hub[T]) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.listeners, id)
	for i, existing := range h.order {
		if existing == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}
