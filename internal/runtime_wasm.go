//go:build wasm

package internal

import "sync"

var once sync.Once
var globalTracker *Tracker

func getTracker() *Tracker {
	once.Do(func() {
		globalTracker = NewTracker()
	})

	return globalTracker
}

// Current returns the single tracker of the wasm host.
func Current() *Tracker {
	return getTracker()
}

// Acquire returns the single tracker of the wasm host.
func Acquire() (*Tracker, func()) {
	return getTracker(), func() {}
}
