//go:build !wasm

package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func subscribers(o *Observable) []*Reaction {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var subs []*Reaction
	for link := o.subsHead; link != nil; link = link.nextSub {
		subs = append(subs, link.sub)
	}

	return subs
}

func TestSubscriptionList(t *testing.T) {
	t.Run("keeps registration order", func(t *testing.T) {
		o := NewObservable(0)
		a, b, c := NewReaction(nil, ReactionOptions{}), NewReaction(nil, ReactionOptions{}), NewReaction(nil, ReactionOptions{})

		o.subscribe(a)
		lb := o.subscribe(b)
		o.subscribe(c)

		assert.Equal(t, []*Reaction{a, b, c}, subscribers(o))
		assert.Equal(t, 3, o.Subscribers())

		o.unsubscribe(lb)
		assert.Equal(t, []*Reaction{a, c}, subscribers(o))
		assert.Equal(t, 2, o.Subscribers())
	})

	t.Run("removing head and tail", func(t *testing.T) {
		o := NewObservable(0)
		a, b, c := NewReaction(nil, ReactionOptions{}), NewReaction(nil, ReactionOptions{}), NewReaction(nil, ReactionOptions{})

		la := o.subscribe(a)
		o.subscribe(b)
		lc := o.subscribe(c)

		o.unsubscribe(la)
		o.unsubscribe(lc)
		assert.Equal(t, []*Reaction{b}, subscribers(o))

		// the tail pointer must follow removals
		o.subscribe(a)
		assert.Equal(t, []*Reaction{b, a}, subscribers(o))
	})

	t.Run("unsubscribe twice is a no-op", func(t *testing.T) {
		o := NewObservable(0)
		l := o.subscribe(NewReaction(nil, ReactionOptions{}))

		o.unsubscribe(l)
		o.unsubscribe(l)

		assert.Equal(t, 0, o.Subscribers())
		assert.Nil(t, o.subsHead)
	})
}

func TestObservableVersion(t *testing.T) {
	o := NewObservable(0)
	assert.Equal(t, uint64(0), o.Version())

	o.Update(func(any) (any, bool) { return 1, true })
	assert.Equal(t, uint64(1), o.Version())

	o.Update(func(any) (any, bool) { return 1, false })
	assert.Equal(t, uint64(1), o.Version())
	assert.Equal(t, 1, o.Peek())
}

func TestTracker(t *testing.T) {
	t.Run("released when idle", func(t *testing.T) {
		assert.Nil(t, Current())

		tr, release := Acquire()
		assert.Same(t, tr, Current())

		nested, releaseNested := Acquire()
		assert.Same(t, tr, nested)
		releaseNested()
		assert.Same(t, tr, Current())

		release()
		assert.Nil(t, Current())
	})

	t.Run("reads are captured once per frame", func(t *testing.T) {
		o := NewObservable(0)
		r := NewReaction(nil, ReactionOptions{})

		tr, release := Acquire()
		defer release()

		frame := newFrame(r)
		tr.RunWithFrame(frame, func() {
			o.Read()
			o.Read()
			Untracked(func() { NewObservable(1).Read() })
		})

		assert.Len(t, frame.deps, 1)
		assert.Same(t, o, frame.deps[0].obs)
		assert.Nil(t, tr.current)
	})

	t.Run("batch depth", func(t *testing.T) {
		Batch(func() {
			tr := Current()
			assert.True(t, tr.IsBatching())

			Batch(func() {
				assert.Equal(t, 2, tr.batchDepth)
			})
			assert.Equal(t, 1, tr.batchDepth)
		})

		assert.Nil(t, Current())
	})
}

func TestObservableUpdate(t *testing.T) {
	t.Run("retries when a write lands during fn", func(t *testing.T) {
		calls := 0

		o := NewObservable(1)
		o.Update(func(v any) (any, bool) {
			calls++
			if calls == 1 {
				o.Update(func(any) (any, bool) { return 10, true })
			}
			return v.(int) + 1, true
		})

		assert.Equal(t, 2, calls)
		assert.Equal(t, 11, o.Peek())
		assert.Equal(t, uint64(2), o.Version())
	})

	t.Run("an unchanged result is rechecked against concurrent writes", func(t *testing.T) {
		calls := 0

		o := NewObservable(1)
		o.Update(func(v any) (any, bool) {
			calls++
			if calls == 1 {
				o.Update(func(any) (any, bool) { return 5, true })
			}
			return 1, v.(int) != 1
		})

		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, o.Peek())
	})

	t.Run("fn may read the observable", func(t *testing.T) {
		o := NewObservable(3)
		o.Update(func(v any) (any, bool) {
			return v.(int) + o.Peek().(int), true
		})

		assert.Equal(t, 6, o.Peek())
	})
}
