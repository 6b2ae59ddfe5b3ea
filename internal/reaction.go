package internal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

var reactionIDs atomic.Uint64

type ReactionOptions struct {
	// Autocommit subscribes to the reads of each run as soon as it completes.
	// When false, reads are captured but stay inert until CommitSubscriptions.
	Autocommit bool

	// Inert reactions never subscribe, runs are plain calls.
	Inert bool

	Logger *slog.Logger
}

// Reaction is a trackable computation that records its reads and
// signals OnInvalidate when one of them changes.
type Reaction struct {
	mu sync.Mutex

	id uint64

	onInvalidate func()
	logger       *slog.Logger

	autocommit bool
	inert      bool

	destroyed  bool
	subscribed bool
	running    bool

	// stale is set once OnInvalidate is due, and cleared by the next run
	stale bool

	// a live subscription changed while the reaction was running
	changedWhileRunning bool

	// waiting in a batch queue, delivered at most once per flush
	queued bool

	// reads of the last successful run
	deps []capture

	// live subscriptions
	links map[*Observable]*subscription
}

func NewReaction(onInvalidate func(), opts ReactionOptions) *Reaction {
	return &Reaction{
		id:           reactionIDs.Add(1),
		onInvalidate: onInvalidate,
		logger:       opts.Logger,
		autocommit:   opts.Autocommit,
		inert:        opts.Inert,
	}
}

func (r *Reaction) ID() uint64 { return r.id }

// Run executes fn with dependency tracking active.
// Panics raised by fn propagate unchanged; the reaction then keeps the reads of its last successful run.
func (r *Reaction) Run(fn func()) error {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return fmt.Errorf("%w: reaction %d is destroyed", ErrIllegalState, r.id)
	}
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("%w: reaction %d is already running", ErrIllegalState, r.id)
	}
	r.running = true
	r.stale = false
	r.changedWhileRunning = false
	inert := r.inert
	r.mu.Unlock()

	t, release := Acquire()
	defer release()

	if inert {
		defer r.finishInert()
		t.RunWithFrame(nil, fn)
		return nil
	}

	frame := newFrame(r)
	completed := false
	defer func() { r.finish(frame, completed) }()

	t.RunWithFrame(frame, fn)
	completed = true

	return nil
}

func (r *Reaction) finishInert() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

func (r *Reaction) finish(frame *Frame, completed bool) {
	r.mu.Lock()
	r.running = false

	if r.destroyed {
		r.mu.Unlock()
		return
	}

	invalidate := false
	if completed {
		r.deps = frame.deps
		if r.autocommit || r.subscribed {
			r.reconcileLocked()
			// reads that went stale before their subscription existed
			invalidate = r.changedSinceReadLocked()
		}
	} else {
		invalidate = r.changedWhileRunning
	}
	r.changedWhileRunning = false

	invalidate = invalidate && r.markStaleLocked()
	r.mu.Unlock()

	if invalidate {
		r.dispatch()
	}
}

// reconcileLocked makes the live subscriptions match the captured reads.
func (r *Reaction) reconcileLocked() {
	next := make(map[*Observable]*subscription, len(r.deps))

	for _, c := range r.deps {
		if link, ok := r.links[c.obs]; ok {
			next[c.obs] = link
			delete(r.links, c.obs)
			continue
		}

		next[c.obs] = c.obs.subscribe(r)
	}

	for obs, link := range r.links {
		obs.unsubscribe(link)
	}

	r.links = next
	r.subscribed = true
}

func (r *Reaction) changedSinceReadLocked() bool {
	for _, c := range r.deps {
		if c.obs.Version() != c.version {
			return true
		}
	}

	return false
}

func (r *Reaction) markStaleLocked() bool {
	if r.stale {
		return false
	}

	r.stale = true
	return true
}

// CommitSubscriptions turns the reads captured by the last run into live subscriptions.
// If one of them changed since it was read, the reaction is invalidated right away.
func (r *Reaction) CommitSubscriptions() {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		r.debug("commit on destroyed reaction")
		return
	}
	if r.subscribed || r.inert {
		r.mu.Unlock()
		return
	}

	r.reconcileLocked()
	invalidate := r.changedSinceReadLocked() && r.markStaleLocked()
	r.mu.Unlock()

	if invalidate {
		r.dispatch()
	}
}

func (r *Reaction) SetAutocommit(autocommit bool) {
	r.mu.Lock()
	r.autocommit = autocommit
	r.mu.Unlock()
}

// UnsubscribeFromSubscriptions drops the live subscriptions and keeps the reaction reusable.
func (r *Reaction) UnsubscribeFromSubscriptions() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unsubscribeLocked()
}

func (r *Reaction) unsubscribeLocked() {
	for obs, link := range r.links {
		obs.unsubscribe(link)
	}

	r.links = nil
	r.subscribed = false
	r.stale = false
}

// Destroy removes all subscriptions and makes the reaction terminal. Calling it again is a no-op.
func (r *Reaction) Destroy() {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		r.debug("destroy on destroyed reaction")
		return
	}

	r.destroyed = true
	r.unsubscribeLocked()
	r.deps = nil
	r.mu.Unlock()
}

func (r *Reaction) IsDestroyed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.destroyed
}

func (r *Reaction) IsSubscribed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.subscribed
}

// Dependencies returns the number of observables read during the last successful run.
func (r *Reaction) Dependencies() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.deps)
}

// Subscriptions returns the number of live subscriptions.
func (r *Reaction) Subscriptions() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.links)
}

// invalidate is called by an observable this reaction is subscribed to.
func (r *Reaction) invalidate() {
	r.mu.Lock()
	if r.destroyed || !r.subscribed {
		r.mu.Unlock()
		return
	}
	if r.running {
		// delivered by finish, never concurrently with the run
		r.changedWhileRunning = true
		r.mu.Unlock()
		return
	}
	if !r.markStaleLocked() {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.dispatch()
}

func (r *Reaction) dispatch() {
	if t := Current(); t != nil && t.IsBatching() {
		r.mu.Lock()
		if r.queued {
			r.mu.Unlock()
			return
		}
		r.queued = true
		r.mu.Unlock()

		t.enqueue(r)
		return
	}

	r.deliver()
}

// deliver calls OnInvalidate unless a run since the change made the reaction current again.
func (r *Reaction) deliver() {
	r.mu.Lock()
	r.queued = false
	if r.destroyed || !r.stale {
		r.mu.Unlock()
		return
	}
	onInvalidate := r.onInvalidate
	r.mu.Unlock()

	if onInvalidate != nil {
		onInvalidate()
	}
}

func (r *Reaction) debug(msg string) {
	if r.logger == nil {
		return
	}

	r.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, slog.Uint64("reaction_id", r.id))
}
