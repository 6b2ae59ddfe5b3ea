// Package sigreact provides trackable reactions over observable values.
//
// A Reaction records the observables its computation reads and signals a
// callback when one of them changes. It never reruns by itself: the owner
// decides when to call Run again.
package sigreact

import (
	"reflect"

	"github.com/AnatoleLucet/sigreact/internal"
)

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

type Observable[T any] struct {
	node *internal.Observable

	equal func(a, b T) bool
}

type ObservableOption[T any] func(*Observable[T])

// WithEquals sets the function used to decide whether a write changed the value.
func WithEquals[T any](equal func(a, b T) bool) ObservableOption[T] {
	return func(o *Observable[T]) {
		o.equal = equal
	}
}

// NewObservable creates a read/write reactive value.
func NewObservable[T any](initial T, opts ...ObservableOption[T]) *Observable[T] {
	o := &Observable[T]{
		node:  internal.NewObservable(initial),
		equal: defaultEquals[T],
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Read the current value, tracking the dependency if a reaction is running.
func (o *Observable[T]) Read() T {
	return as[T](o.node.Read())
}

// Peek reads the current value without tracking it.
func (o *Observable[T]) Peek() T {
	return as[T](o.node.Peek())
}

// Write a new value, invalidating subscribed reactions if it changed.
func (o *Observable[T]) Write(v T) {
	o.Update(func(T) T { return v })
}

// Update derives the next value from the current one.
// fn may read the observable, and is called again if a concurrent write lands first.
func (o *Observable[T]) Update(fn func(T) T) {
	o.node.Update(func(current any) (any, bool) {
		prev := as[T](current)
		next := fn(prev)

		return next, !o.equal(prev, next)
	})
}

// Subscribers returns the number of reactions subscribed to this observable.
func (o *Observable[T]) Subscribers() int {
	return o.node.Subscribers()
}

// Batch groups the writes made by fn so that each invalidated reaction
// is notified once, after the outermost batch completes.
func Batch(fn func()) {
	internal.Batch(fn)
}

// Untrack runs the given function without tracking any reactive reads.
func Untrack[T any](fn func() T) T {
	var result T
	internal.Untracked(func() { result = fn() })
	return result
}

// defaultEquals uses == for comparable types and reflect.DeepEqual otherwise.
func defaultEquals[T any](a, b T) (equal bool) {
	// interface values holding uncomparable dynamic types panic on ==
	defer func() {
		if recover() != nil {
			equal = reflect.DeepEqual(a, b)
		}
	}()

	if reflect.TypeFor[T]().Comparable() {
		return any(a) == any(b)
	}

	return reflect.DeepEqual(a, b)
}
