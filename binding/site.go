// Package binding drives a reaction through the lifecycle of one
// subscription site: speculative renders, mount and unmount.
//
// A UI layer calls Render from its render function, Mount once the render
// is committed, and Unmount on teardown. Reactions of renders that are
// never mounted are left to the reclaim strategy.
package binding

import (
	"fmt"
	"log/slog"
	"sync"
	"weak"

	"github.com/AnatoleLucet/sigreact"
	"github.com/AnatoleLucet/sigreact/reclaim"
)

// Site owns at most one live reaction over getter.
type Site[T any] struct {
	handle *reclaim.Handle

	getter   func() T
	onChange func()

	engine   *sigreact.Engine
	strategy reclaim.Strategy
	logger   *slog.Logger

	mu        sync.Mutex
	reaction  *sigreact.Reaction[T]
	mounted   bool
	unmounted bool
}

type siteOptions struct {
	engine   *sigreact.Engine
	strategy reclaim.Strategy
	logger   *slog.Logger
}

type SiteOption func(*siteOptions)

// WithEngine creates the site's reactions on e.
func WithEngine(e *sigreact.Engine) SiteOption {
	return func(o *siteOptions) {
		o.engine = e
	}
}

// WithStrategy registers pending reactions on s instead of reclaim.Default().
func WithStrategy(s reclaim.Strategy) SiteOption {
	return func(o *siteOptions) {
		o.strategy = s
	}
}

func WithLogger(logger *slog.Logger) SiteOption {
	return func(o *siteOptions) {
		o.logger = logger
	}
}

// NewSite creates a subscription site. onChange is called when the value
// read by getter changed and the site should be rendered again.
//
// getter and onChange must not reference the returned site strongly,
// otherwise an abandoned site can never be reclaimed.
func NewSite[T any](getter func() T, onChange func(), opts ...SiteOption) (*Site[T], error) {
	if getter == nil {
		return nil, fmt.Errorf("%w: nil site getter", sigreact.ErrInvalidUsage)
	}
	if onChange == nil {
		return nil, fmt.Errorf("%w: nil site change callback", sigreact.ErrInvalidUsage)
	}

	o := siteOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.engine == nil {
		o.engine = sigreact.DefaultEngine()
	}
	if o.strategy == nil {
		o.strategy = reclaim.Default()
	}

	handle := reclaim.NewHandle()

	return &Site[T]{
		handle:   handle,
		getter:   getter,
		onChange: onChange,
		engine:   o.engine,
		strategy: o.strategy,
		logger:   o.logger.With("component", "binding", "site", handle.String()),
	}, nil
}

// Handle returns the owner handle the site registers its pending reactions with.
func (s *Site[T]) Handle() *reclaim.Handle { return s.handle }

// Render runs the site's reaction, creating it if there is none.
// Before Mount, the reaction does not subscribe and is pending reclamation;
// every render registers it again.
func (s *Site[T]) Render() (T, error) {
	s.mu.Lock()
	if s.unmounted {
		s.mu.Unlock()

		var zero T
		return zero, fmt.Errorf("%w: render after unmount", sigreact.ErrIllegalState)
	}

	r := s.reaction
	switch {
	case r == nil || r.IsDestroyed():
		r = s.newReactionLocked()
	case !s.mounted:
		// each speculative render renews the pending entry
		s.strategy.Add(s.handle, r)
	}
	s.mu.Unlock()

	return r.Run()
}

func (s *Site[T]) newReactionLocked() *sigreact.Reaction[T] {
	r := sigreact.NewReaction(s.getter, s.invalidator(),
		sigreact.WithEngine(s.engine),
		sigreact.WithAutocommit(s.mounted),
	)

	if !s.mounted {
		s.strategy.Add(s.handle, r)
	}

	s.reaction = r
	return r
}

// invalidator references the site weakly so that the reaction,
// held by the reclaim strategy, does not keep the site alive.
func (s *Site[T]) invalidator() func() {
	site := weak.Make(s)

	return func() {
		if live := site.Value(); live != nil {
			live.onChange()
		}
	}
}

// Mount confirms the site live: its reaction leaves the reclaimer and starts tracking.
// If the reaction was reclaimed in the meantime, onChange asks for a new render.
func (s *Site[T]) Mount() {
	s.mu.Lock()
	if s.unmounted || s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = true

	r := s.reaction
	if r != nil {
		s.strategy.Remove(s.handle, r)
	}
	s.mu.Unlock()

	if r == nil || r.IsDestroyed() {
		s.logger.Debug("reaction reclaimed before mount")
		s.onChange()
		return
	}

	r.CommitSubscriptions()
	r.SetOptions(sigreact.WithAutocommit(true))

	// a sweep that collected r before Remove can still destroy it
	if r.IsDestroyed() {
		s.logger.Debug("reaction reclaimed during mount")
		s.onChange()
	}
}

// Unmount destroys the site's reaction. The site cannot render afterwards.
func (s *Site[T]) Unmount() {
	s.mu.Lock()
	if s.unmounted {
		s.mu.Unlock()
		return
	}
	s.unmounted = true

	r := s.reaction
	s.reaction = nil
	s.mu.Unlock()

	if r != nil {
		s.strategy.Remove(s.handle, r)
		r.Destroy()
	}
}

// Mounted reports whether Mount was called and Unmount was not.
func (s *Site[T]) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mounted && !s.unmounted
}

// Subscribed reports whether the site currently holds live subscriptions.
func (s *Site[T]) Subscribed() bool {
	s.mu.Lock()
	r := s.reaction
	s.mu.Unlock()

	return r != nil && r.IsSubscribed()
}
