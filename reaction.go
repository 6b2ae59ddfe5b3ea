package sigreact

import (
	"fmt"

	"github.com/AnatoleLucet/sigreact/internal"
)

// Reaction runs a computation, records the observables it reads,
// and calls its invalidation callback once when any of them changes.
type Reaction[T any] struct {
	node   *internal.Reaction
	engine *Engine

	fn func() T
}

type reactionOptions struct {
	autocommit *bool
	engine     *Engine
}

type ReactionOption func(*reactionOptions)

// WithAutocommit controls whether a run subscribes to its reads right away (the default),
// or only after CommitSubscriptions.
func WithAutocommit(autocommit bool) ReactionOption {
	return func(o *reactionOptions) {
		o.autocommit = &autocommit
	}
}

// WithEngine binds the reaction to an engine instead of the default one.
// It has no effect in SetOptions.
func WithEngine(e *Engine) ReactionOption {
	return func(o *reactionOptions) {
		o.engine = e
	}
}

func applyReactionOptions(opts []ReactionOption) reactionOptions {
	var o reactionOptions
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// NewReaction creates a reaction over fn. onInvalidate may be nil.
// It panics with ErrInvalidUsage when fn is nil.
func NewReaction[T any](fn func() T, onInvalidate func(), opts ...ReactionOption) *Reaction[T] {
	if fn == nil {
		panic(fmt.Errorf("%w: nil reaction computation", ErrInvalidUsage))
	}

	o := applyReactionOptions(opts)

	engine := o.engine
	if engine == nil {
		engine = DefaultEngine()
	}

	autocommit := true
	if o.autocommit != nil {
		autocommit = *o.autocommit
	}

	return &Reaction[T]{
		node: internal.NewReaction(onInvalidate, internal.ReactionOptions{
			Autocommit: autocommit,
			Inert:      engine.cfg.SSR,
			Logger:     engine.logger,
		}),
		engine: engine,
		fn:     fn,
	}
}

// NewBoundReaction creates a reaction whose computation receives ctx on every run.
func NewBoundReaction[C, T any](ctx C, fn func(C) T, onInvalidate func(), opts ...ReactionOption) *Reaction[T] {
	if fn == nil {
		panic(fmt.Errorf("%w: nil reaction computation", ErrInvalidUsage))
	}

	return NewReaction(func() T { return fn(ctx) }, onInvalidate, opts...)
}

// ID returns the process-unique identifier of the reaction.
func (r *Reaction[T]) ID() uint64 { return r.node.ID() }

// Run executes the computation with dependency tracking and returns its result.
// It returns ErrIllegalState once the reaction is destroyed.
// Panics raised by the computation propagate unchanged.
func (r *Reaction[T]) Run() (T, error) {
	var result T

	err := r.node.Run(func() { result = r.fn() })
	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}

// CommitSubscriptions makes the reads of the last run live subscriptions.
// It is a no-op if the reaction is already subscribed or destroyed.
func (r *Reaction[T]) CommitSubscriptions() {
	r.node.CommitSubscriptions()
}

// SetOptions changes the behavior flags of the reaction.
// The new autocommit value applies from the next run.
func (r *Reaction[T]) SetOptions(opts ...ReactionOption) {
	o := applyReactionOptions(opts)

	if o.autocommit != nil {
		r.node.SetAutocommit(*o.autocommit)
	}
}

// UnsubscribeFromSubscriptions removes all live subscriptions without destroying the reaction.
func (r *Reaction[T]) UnsubscribeFromSubscriptions() {
	r.node.UnsubscribeFromSubscriptions()
}

// Destroy removes all subscriptions and makes the reaction terminal.
// It can be called any number of times.
func (r *Reaction[T]) Destroy() {
	r.node.Destroy()
}

// Engine returns the engine the reaction was created with.
func (r *Reaction[T]) Engine() *Engine { return r.engine }

func (r *Reaction[T]) IsDestroyed() bool { return r.node.IsDestroyed() }

func (r *Reaction[T]) IsSubscribed() bool { return r.node.IsSubscribed() }

// Dependencies returns the number of observables read during the last successful run.
func (r *Reaction[T]) Dependencies() int { return r.node.Dependencies() }

// Subscriptions returns the number of live subscriptions.
func (r *Reaction[T]) Subscriptions() int { return r.node.Subscriptions() }
