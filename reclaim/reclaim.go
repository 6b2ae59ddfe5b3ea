// Package reclaim destroys reactions whose owner never confirmed them live.
//
// A consumer registers a freshly created reaction with Add, and calls Remove
// once its owner reaches a stable point (for instance a mounted component).
// Reactions left pending are destroyed by the Strategy: when their Handle
// becomes unreachable (Finalizer), or at the next tick of a periodic sweep
// (Sweeper).
package reclaim

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Destroyer is the part of a reaction the reclaimer needs.
// Implementations must be comparable, typically a pointer.
type Destroyer interface {
	Destroy()
}

// Strategy tracks reactions pending confirmation.
// Add and Remove are idempotent and never fail.
type Strategy interface {
	// Add registers r as pending for the owner h.
	Add(h *Handle, r Destroyer)

	// Remove unregisters r; it will not be destroyed by this strategy.
	Remove(h *Handle, r Destroyer)

	// Pending returns the number of reactions awaiting confirmation.
	Pending() int

	Stats() Stats

	Name() string

	Close() error
}

// Stats are cumulative counters of a strategy.
type Stats struct {
	Added     uint64 `json:"added"`
	Removed   uint64 `json:"removed"`
	Reclaimed uint64 `json:"reclaimed"`
	Failed    uint64 `json:"failed"`
}

type counters struct {
	added     atomic.Uint64
	removed   atomic.Uint64
	reclaimed atomic.Uint64
	failed    atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Added:     c.added.Load(),
		Removed:   c.removed.Load(),
		Reclaimed: c.reclaimed.Load(),
		Failed:    c.failed.Load(),
	}
}

// destroy calls r.Destroy, turning a panic into an error.
func destroy(r Destroyer) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("destroy panicked: %v", p)
		}
	}()

	r.Destroy()
	return nil
}

var (
	defaultOnce     sync.Once
	defaultStrategy Strategy
)

// Default returns a process-wide strategy configured from the environment.
// An invalid environment falls back to DefaultConfig.
func Default() Strategy {
	defaultOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			slog.Warn("invalid reclaim config, using defaults", "error", err)
			cfg = DefaultConfig()
		}

		// DefaultConfig always validates
		defaultStrategy, _ = New(cfg)
	})

	return defaultStrategy
}
