//go:build !wasm

package reclaim

import (
	"runtime"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// abandon registers r on a handle that is unreachable once it returns.
//
//go:noinline
func abandon(f *Finalizer, r Destroyer) {
	f.Add(NewHandle(), r)
}

func collected(check func() bool) func() bool {
	return func() bool {
		runtime.GC()
		return check()
	}
}

func TestFinalizer(t *testing.T) {
	t.Run("destroys reactions of unreachable handles", func(t *testing.T) {
		f := newFinalizer(newOptions(nil))

		r := &spyReaction{}
		abandon(f, r)
		assert.Equal(t, 1, f.Pending())

		assert.Eventually(t, collected(r.isDestroyed), 5*time.Second, 10*time.Millisecond)
		assert.Eventually(t, func() bool { return f.Stats() == Stats{Added: 1, Reclaimed: 1} }, time.Second, time.Millisecond)
		assert.Equal(t, 0, f.Pending())
	})

	t.Run("removed reactions survive collection", func(t *testing.T) {
		f := newFinalizer(newOptions(nil))

		kept := &spyReaction{}
		h := NewHandle()
		f.Add(h, kept)
		f.Add(h, kept)
		f.Remove(h, kept)
		f.Remove(h, kept)

		// a second abandoned reaction tells us when cleanups have run
		marker := &spyReaction{}
		abandon(f, marker)

		assert.Eventually(t, collected(marker.isDestroyed), 5*time.Second, 10*time.Millisecond)
		assert.Eventually(t, func() bool { return f.Stats() == Stats{Added: 2, Removed: 1, Reclaimed: 1} }, time.Second, time.Millisecond)
		assert.False(t, kept.isDestroyed())
	})

	t.Run("reachable handles keep their reactions", func(t *testing.T) {
		f := newFinalizer(newOptions(nil))

		r := &spyReaction{}
		h := NewHandle()
		f.Add(h, r)

		runtime.GC()
		runtime.GC()

		assert.False(t, r.isDestroyed())
		assert.Equal(t, 1, f.Pending())
		runtime.KeepAlive(h)
	})

	t.Run("destroy panics are recorded", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		m := NewMetrics(registry, "test")
		recorder := tracetest.NewSpanRecorder()
		provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

		f := newFinalizer(newOptions([]Option{WithMetrics(m), WithTracerProvider(provider)}))

		r := &spyReaction{name: "bad", panics: true}
		abandon(f, r)

		assert.Eventually(t, collected(func() bool { return f.Stats().Failed == 1 }), 5*time.Second, 10*time.Millisecond)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues(StrategyFinalizer)))
		assert.Equal(t, 0.0, testutil.ToFloat64(m.pending.WithLabelValues(StrategyFinalizer)))

		assert.Eventually(t, func() bool { return len(recorder.Ended()) == 1 }, time.Second, time.Millisecond)
		assert.Equal(t, "reclaim.finalize", recorder.Ended()[0].Name())
	})

	t.Run("nil arguments are ignored", func(t *testing.T) {
		f := newFinalizer(newOptions(nil))

		f.Add(nil, &spyReaction{})
		f.Add(NewHandle(), nil)
		f.Remove(nil, &spyReaction{})

		assert.Equal(t, 0, f.Pending())
		assert.NoError(t, f.Close())
	})
}
