package reconcile

import (
	"context"
	"log"
	"sync"

	"optix/services/auth"
	"optix/services/watchlist"
)

// AuthSource reports sign-in transitions.
type AuthSource interface {
	Subscribe(fn func(prev, next auth.State)) (unsubscribe func())
}

type jobKind int

const (
	jobPull jobKind = iota
	jobPush
)

type job struct {
	kind   jobKind
	userID string
	gen    uint64
}

// AutoSync runs the overwrite policy in the background: it pulls when a user
// signs in and pushes the full collection after every local mutation while
// signed in. Jobs run one at a time in the order they were queued; queued
// pushes for the same user collapse into one. A push sends the collection as
// it is when the job runs, and a pull never overwrites an edit made after
// sign-in.
type AutoSync struct {
	reconciler *Reconciler
	local      LocalStore

	mu     sync.Mutex
	userID string
	queue  []job
	wake   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	closeOnce    sync.Once
	unsubscribes []func()
}

// NewAutoSync starts the worker and subscribes to local and source.
func NewAutoSync(r *Reconciler, local LocalStore, source AuthSource) *AutoSync {
	ctx, cancel := context.WithCancel(context.Background())
	a := &AutoSync{
		reconciler: r,
		local:      local,
		wake:       make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	go a.run()

	a.unsubscribes = append(a.unsubscribes,
		local.Subscribe(a.onChange),
		source.Subscribe(a.onAuth),
	)
	return a
}

// Close stops the worker. Jobs still queued are dropped.
func (a *AutoSync) Close() {
	a.closeOnce.Do(func() {
		for _, unsubscribe := range a.unsubscribes {
			unsubscribe()
		}
		a.cancel()
		<-a.done
	})
}

func (a *AutoSync) onAuth(prev, next auth.State) {
	// Read before a.mu: store calls must not nest inside it.
	gen := a.local.Generation()

	a.mu.Lock()
	defer a.mu.Unlock()

	if !next.Authenticated() {
		if a.userID != "" {
			log.Printf("[sync] signed out, local watchlist kept")
		}
		a.userID = ""
		a.queue = nil
		return
	}

	userID := next.UserID()
	if userID == a.userID {
		return
	}
	a.userID = userID
	a.queue = []job{{kind: jobPull, userID: userID, gen: gen}}
	a.signal()
}

func (a *AutoSync) onChange(change watchlist.Change) {
	if change.Op == watchlist.OpReplace {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.userID == "" {
		return
	}

	if n := len(a.queue); n > 0 && a.queue[n-1].kind == jobPush && a.queue[n-1].userID == a.userID {
		return
	}
	a.queue = append(a.queue, job{kind: jobPush, userID: a.userID})
	a.signal()
}

func (a *AutoSync) signal() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *AutoSync) next() (job, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.queue) == 0 {
		return job{}, false
	}
	j := a.queue[0]
	a.queue = a.queue[1:]
	return j, true
}

func (a *AutoSync) current(userID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID == userID
}

func (a *AutoSync) run() {
	defer close(a.done)

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.wake:
		}

		for {
			j, ok := a.next()
			if !ok {
				break
			}
			if !a.current(j.userID) {
				continue
			}
			a.execute(j)
			if a.ctx.Err() != nil {
				return
			}
		}
	}
}

func (a *AutoSync) execute(j job) {
	switch j.kind {
	case jobPull:
		if _, err := a.reconciler.PullSince(a.ctx, j.userID, a.local, j.gen); err != nil {
			log.Printf("[sync] pull for %s failed: %v", j.userID, err)
		}
	case jobPush:
		if err := a.reconciler.PushRemote(a.ctx, j.userID, a.local.Items()); err != nil {
			log.Printf("[sync] push for %s failed: %v", j.userID, err)
		}
	}
}
