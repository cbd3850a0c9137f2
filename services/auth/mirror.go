package auth

import (
	"sync"

	"optix/internal/notify"
	"optix/models"
)

// State is the mirrored auth state. Loading holds until the provider's first
// notification.
type State struct {
	Loading bool             `json:"loading"`
	User    *models.AuthUser `json:"user"`
}

// Authenticated reports whether a user is signed in.
func (s State) Authenticated() bool {
	return !s.Loading && s.User != nil
}

// UserID returns the signed-in user's id, or "".
func (s State) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.UserID
}

// Transition is delivered to mirror subscribers on every notification.
type Transition struct {
	Prev State
	Next State
}

// Mirror holds the process-wide copy of the provider's auth state. It never
// changes state on its own; sign-in and sign-out go through the provider and
// come back as notifications.
type Mirror struct {
	mu    sync.RWMutex
	state State

	publishMu   sync.Mutex
	subscribers notify.Hub[Transition]

	closeOnce   sync.Once
	unsubscribe func()
}

// NewMirror subscribes to n once for the lifetime of the mirror.
func NewMirror(n Notifier) *Mirror {
	m := &Mirror{state: State{Loading: true}}
	m.unsubscribe = n.Subscribe(m.apply)
	return m
}

// State returns the current mirrored state.
func (m *Mirror) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{Loading: m.state.Loading, User: cloneUser(m.state.User)}
}

// Subscribe registers fn for state transitions. fn must not call back into
// the mirror.
func (m *Mirror) Subscribe(fn func(prev, next State)) (unsubscribe func()) {
	return m.subscribers.Subscribe(func(t Transition) { fn(t.Prev, t.Next) })
}

// Close releases the provider subscription.
func (m *Mirror) Close() {
	m.closeOnce.Do(func() {
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
	})
}

func (m *Mirror) apply(user *models.AuthUser) {
	m.mu.Lock()
	prev := m.state
	next := State{User: cloneUser(user)}
	m.state = next

	m.publishMu.Lock()
	m.mu.Unlock()
	defer m.publishMu.Unlock()

	m.subscribers.Publish(Transition{Prev: prev, Next: State{User: cloneUser(next.User)}})
}
