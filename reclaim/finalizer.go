package reclaim

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Finalizer destroys a pending reaction once its Handle becomes unreachable.
//
// The registry never references the handle, but whatever the reaction
// references stays reachable until the cleanup runs: an invalidation
// callback holding the handle strongly keeps both alive forever.
type Finalizer struct {
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer

	pending atomic.Int64
	counters
}

type finalizerEntry struct {
	reaction Destroyer
	owner    uuid.UUID
}

func newFinalizer(o *options) *Finalizer {
	return &Finalizer{
		logger:  o.logger.With("component", "reclaim", "strategy", StrategyFinalizer),
		metrics: o.metrics,
		tracer:  o.tracer,
	}
}

func (f *Finalizer) Name() string { return StrategyFinalizer }

func (f *Finalizer) Add(h *Handle, r Destroyer) {
	if h == nil || r == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cleanups == nil {
		h.cleanups = make(map[Destroyer]runtime.Cleanup)
	}
	if _, ok := h.cleanups[r]; ok {
		return
	}

	h.cleanups[r] = runtime.AddCleanup(h, f.reclaim, finalizerEntry{reaction: r, owner: h.id})

	f.pending.Add(1)
	f.added.Add(1)
	f.metrics.onAdd(StrategyFinalizer)
}

func (f *Finalizer) Remove(h *Handle, r Destroyer) {
	if h == nil || r == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	cleanup, ok := h.cleanups[r]
	if !ok {
		return
	}

	cleanup.Stop()
	delete(h.cleanups, r)

	f.pending.Add(-1)
	f.removed.Add(1)
	f.metrics.onRemove(StrategyFinalizer)
}

// reclaim runs on the runtime cleanup goroutine.
func (f *Finalizer) reclaim(e finalizerEntry) {
	_, span := f.tracer.Start(context.Background(), "reclaim.finalize",
		trace.WithAttributes(attribute.String("reclaim.owner", e.owner.String())))
	defer span.End()

	f.pending.Add(-1)

	err := destroy(e.reaction)
	f.metrics.onReclaim(StrategyFinalizer, err)

	if err != nil {
		f.failed.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.logger.Error("failed to destroy abandoned reaction", "owner", e.owner, "error", err)
		return
	}

	f.reclaimed.Add(1)
	f.logger.Debug("reclaimed abandoned reaction", "owner", e.owner)
}

func (f *Finalizer) Pending() int { return int(f.pending.Load()) }

func (f *Finalizer) Stats() Stats { return f.snapshot() }

// Close is a no-op: registered cleanups keep running after it.
func (f *Finalizer) Close() error { return nil }
