package reclaim

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Sweeper destroys every reaction still pending when its periodic sweep runs.
// The ticker only runs while reactions are pending.
type Sweeper struct {
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer

	mu      sync.Mutex
	seq     uint64
	pending map[Destroyer]sweepEntry
	ticker  clockwork.Ticker
	stop    chan struct{}
	done    chan struct{}
	closed  bool

	// serializes sweeps from the loop and explicit Sweep calls
	sweepMu sync.Mutex

	counters
}

type sweepEntry struct {
	seq   uint64
	owner uuid.UUID
	added time.Time
}

type sweepItem struct {
	reaction Destroyer
	sweepEntry
}

func newSweeper(interval time.Duration, o *options) *Sweeper {
	return &Sweeper{
		interval: interval,
		clock:    o.clock,
		logger:   o.logger.With("component", "reclaim", "strategy", StrategySweep),
		metrics:  o.metrics,
		tracer:   o.tracer,
		pending:  make(map[Destroyer]sweepEntry),
	}
}

func (s *Sweeper) Name() string { return StrategySweep }

// Interval returns the sweep period.
func (s *Sweeper) Interval() time.Duration { return s.interval }

// Add registers r as pending. Adding an entry again moves it to the back of the sweep order.
func (s *Sweeper) Add(h *Handle, r Destroyer) {
	if r == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Debug("add on closed sweeper ignored")
		return
	}

	var owner uuid.UUID
	if h != nil {
		owner = h.id
	}

	_, exists := s.pending[r]

	s.seq++
	s.pending[r] = sweepEntry{seq: s.seq, owner: owner, added: s.clock.Now()}

	if !exists {
		s.added.Add(1)
		s.metrics.onAdd(StrategySweep)
	}

	if s.ticker == nil {
		s.startLocked()
	}
}

// Remove unregisters r. A nil handle matches any owner.
func (s *Sweeper) Remove(h *Handle, r Destroyer) {
	if r == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[r]
	if !ok {
		return
	}
	if h != nil && e.owner != h.id {
		return
	}

	delete(s.pending, r)

	s.removed.Add(1)
	s.metrics.onRemove(StrategySweep)
}

func (s *Sweeper) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pending)
}

func (s *Sweeper) Stats() Stats { return s.snapshot() }

// the ticker is created here, not in the loop, so that a fake clock
// advanced right after Add always sees it
func (s *Sweeper) startLocked() {
	s.ticker = s.clock.NewTicker(s.interval)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(s.ticker, s.stop, s.done)
}

func (s *Sweeper) loop(ticker clockwork.Ticker, stop, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			s.Sweep(context.Background())

			if !s.keepRunning(ticker) {
				return
			}
		case <-stop:
			return
		}
	}
}

// keepRunning stops the loop once nothing is pending; the next Add restarts it.
func (s *Sweeper) keepRunning(ticker clockwork.Ticker) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if len(s.pending) > 0 {
		return true
	}

	if s.ticker == ticker {
		s.ticker = nil
	}
	return false
}

// Sweep destroys every pending reaction, in the order they were added,
// and returns how many were destroyed without error.
func (s *Sweeper) Sweep(ctx context.Context) int {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	ctx, span := s.tracer.Start(ctx, "reclaim.sweep")
	defer span.End()

	start := s.clock.Now()

	s.mu.Lock()
	batch := make([]sweepItem, 0, len(s.pending))
	for r, e := range s.pending {
		batch = append(batch, sweepItem{reaction: r, sweepEntry: e})
	}
	clear(s.pending)
	s.mu.Unlock()

	slices.SortFunc(batch, func(a, b sweepItem) int {
		return cmp.Compare(a.seq, b.seq)
	})

	reclaimed, failed := 0, 0
	for _, item := range batch {
		err := destroy(item.reaction)
		s.metrics.onReclaim(StrategySweep, err)

		if err != nil {
			failed++
			s.failed.Add(1)
			span.RecordError(err)
			s.logger.ErrorContext(ctx, "failed to destroy abandoned reaction",
				"owner", item.owner,
				"pending_for", start.Sub(item.added),
				"error", err)
			continue
		}

		reclaimed++
		s.reclaimed.Add(1)
	}

	s.metrics.onSweep(s.clock.Since(start).Seconds())

	span.SetAttributes(
		attribute.Int("reclaim.reclaimed", reclaimed),
		attribute.Int("reclaim.failed", failed),
	)
	if failed > 0 {
		span.SetStatus(codes.Error, "some reactions failed to destroy")
	}

	if len(batch) > 0 {
		s.logger.DebugContext(ctx, "swept abandoned reactions",
			"reclaimed", reclaimed,
			"failed", failed)
	}

	return reclaimed
}

// Close stops the sweep loop. Reactions still pending are left untouched.
func (s *Sweeper) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	stop, done := s.stop, s.done
	s.ticker = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	return nil
}
