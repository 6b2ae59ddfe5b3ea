package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/AnatoleLucet/sigreact"
	"github.com/AnatoleLucet/sigreact/binding"
	"github.com/AnatoleLucet/sigreact/reclaim"
)

type simulation struct {
	sites        int
	abandonRatio float64
	writes       int
	wait         time.Duration

	engine   *sigreact.Engine
	strategy reclaim.Strategy
	logger   *slog.Logger
}

type Report struct {
	Strategy     string        `json:"strategy"`
	Sites        int           `json:"sites"`
	Mounted      int           `json:"mounted"`
	Abandoned    int           `json:"abandoned"`
	Writes       int           `json:"writes"`
	Rerenders    int64         `json:"rerenders"`
	LastValue    int           `json:"last_value"`
	PendingAfter int           `json:"pending_after"`
	Reclaim      reclaim.Stats `json:"reclaim"`
	Elapsed      time.Duration `json:"elapsed_ns"`
}

type mountedSite struct {
	index int
	site  *binding.Site[int]
}

// abandons spreads the abandoned sites evenly, so that exactly floor(n*ratio) never mount.
func abandons(i int, ratio float64) bool {
	return int(float64(i+1)*ratio) > int(float64(i)*ratio)
}

func simulate(ctx context.Context, sim simulation) (Report, error) {
	start := time.Now()
	report := Report{
		Strategy: sim.strategy.Name(),
		Sites:    sim.sites,
		Writes:   sim.writes,
	}

	store := sigreact.NewObservable(0)
	dirty := make([]atomic.Bool, sim.sites)
	mounted := make([]mountedSite, 0, sim.sites)

	for i := range sim.sites {
		site, err := binding.NewSite(store.Read, func() { dirty[i].Store(true) },
			binding.WithEngine(sim.engine),
			binding.WithStrategy(sim.strategy),
			binding.WithLogger(sim.logger),
		)
		if err != nil {
			return report, err
		}

		if _, err := site.Render(); err != nil {
			return report, fmt.Errorf("failed to render site %d: %w", i, err)
		}

		if abandons(i, sim.abandonRatio) {
			report.Abandoned++
			continue
		}

		site.Mount()
		mounted = append(mounted, mountedSite{index: i, site: site})
	}
	report.Mounted = len(mounted)

	for range sim.writes {
		store.Update(func(n int) int { return n + 1 })

		for _, m := range mounted {
			if !dirty[m.index].Swap(false) {
				continue
			}

			value, err := m.site.Render()
			if err != nil {
				return report, fmt.Errorf("failed to render site %d: %w", m.index, err)
			}

			report.Rerenders++
			report.LastValue = value
		}
	}

	if err := waitReclaimed(ctx, sim.strategy, sim.wait); err != nil {
		return report, err
	}
	report.PendingAfter = sim.strategy.Pending()

	for _, m := range mounted {
		m.site.Unmount()
	}

	report.Reclaim = sim.strategy.Stats()
	report.Elapsed = time.Since(start)

	if report.PendingAfter > 0 {
		sim.logger.Warn("abandoned reactions still pending", "pending", report.PendingAfter)
	}

	return report, nil
}

// waitReclaimed collects garbage until nothing is pending or wait elapses.
func waitReclaimed(ctx context.Context, strategy reclaim.Strategy, wait time.Duration) error {
	deadline := time.Now().Add(wait)

	for strategy.Pending() > 0 && time.Now().Before(deadline) {
		runtime.GC()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}

	return nil
}

func (r Report) print(w io.Writer) error {
	_, err := fmt.Fprintf(w, `strategy:      %s
sites:         %d (mounted %d, abandoned %d)
writes:        %d
rerenders:     %d
last value:    %d
pending after: %d
added:         %d
removed:       %d
reclaimed:     %d
failed:        %d
elapsed:       %s
`,
		r.Strategy,
		r.Sites, r.Mounted, r.Abandoned,
		r.Writes,
		r.Rerenders,
		r.LastValue,
		r.PendingAfter,
		r.Reclaim.Added,
		r.Reclaim.Removed,
		r.Reclaim.Reclaimed,
		r.Reclaim.Failed,
		r.Elapsed,
	)
	return err
}
