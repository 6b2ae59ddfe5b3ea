//go:build !wasm

package internal

import (
	"sync"

	"github.com/petermattis/goid"
)

var trackers sync.Map

// Current returns the tracker of the calling goroutine,
// or nil when the goroutine has no reactive work in flight.
func Current() *Tracker {
	if t, ok := trackers.Load(goid.Get()); ok {
		return t.(*Tracker)
	}

	return nil
}

// Acquire returns the tracker of the calling goroutine, creating it if needed.
// The release func drops a tracker created by this call once it is idle.
func Acquire() (*Tracker, func()) {
	gid := goid.Get()

	if t, ok := trackers.Load(gid); ok {
		return t.(*Tracker), func() {}
	}

	t := NewTracker()
	trackers.Store(gid, t)

	return t, func() {
		if t.idle() {
			trackers.Delete(gid)
		}
	}
}
