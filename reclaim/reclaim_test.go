package reclaim

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyReaction struct {
	name      string
	destroyed atomic.Int32
	panics    bool
	log       *orderLog
}

func (r *spyReaction) Destroy() {
	r.destroyed.Add(1)
	if r.log != nil {
		r.log.add(r.name)
	}
	if r.panics {
		panic("destroy " + r.name)
	}
}

func (r *spyReaction) isDestroyed() bool { return r.destroyed.Load() > 0 }

type orderLog struct {
	mu    sync.Mutex
	names []string
}

func (l *orderLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
}

func (l *orderLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

func TestDestroy(t *testing.T) {
	t.Run("returns nil on success", func(t *testing.T) {
		r := &spyReaction{}
		assert.NoError(t, destroy(r))
		assert.True(t, r.isDestroyed())
	})

	t.Run("recovers panics", func(t *testing.T) {
		err := destroy(&spyReaction{name: "x", panics: true})
		assert.EqualError(t, err, "destroy panicked: destroy x")
	})
}

func TestConfig(t *testing.T) {
	t.Run("from environment", func(t *testing.T) {
		t.Setenv("SIGREACT_RECLAIM_STRATEGY", "sweep")
		t.Setenv("SIGREACT_SWEEP_INTERVAL", "250ms")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, StrategySweep, cfg.Strategy)
		assert.Equal(t, 250*time.Millisecond, cfg.SweepInterval)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		t.Setenv("SIGREACT_RECLAIM_STRATEGY", "refcount")

		_, err := LoadConfig()
		assert.ErrorContains(t, err, `unknown reclaim strategy "refcount"`)
	})

	t.Run("malformed interval", func(t *testing.T) {
		t.Setenv("SIGREACT_SWEEP_INTERVAL", "soon")

		_, err := LoadConfig()
		assert.ErrorContains(t, err, "failed to load reclaim config")
	})

	t.Run("validate", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
		assert.NoError(t, Config{SweepInterval: time.Second}.Validate())

		assert.Error(t, Config{Strategy: StrategySweep}.Validate())
		assert.Error(t, Config{Strategy: StrategySweep, SweepInterval: -time.Second}.Validate())
	})
}

func TestNew(t *testing.T) {
	t.Run("explicit strategies", func(t *testing.T) {
		s, err := New(Config{Strategy: StrategyFinalizer, SweepInterval: time.Second})
		require.NoError(t, err)
		assert.IsType(t, &Finalizer{}, s)
		assert.Equal(t, StrategyFinalizer, s.Name())

		s, err = New(Config{Strategy: StrategySweep, SweepInterval: time.Second})
		require.NoError(t, err)
		require.IsType(t, &Sweeper{}, s)
		assert.Equal(t, time.Second, s.(*Sweeper).Interval())
		assert.NoError(t, s.Close())
	})

	t.Run("auto follows host capabilities", func(t *testing.T) {
		s, err := New(DefaultConfig())
		require.NoError(t, err)
		defer s.Close()

		if Detect().Finalizers {
			assert.Equal(t, StrategyFinalizer, s.Name())
		} else {
			assert.Equal(t, StrategySweep, s.Name())
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := New(Config{Strategy: "nope", SweepInterval: time.Second})
		assert.Error(t, err)
	})

	t.Run("default is shared", func(t *testing.T) {
		assert.NotNil(t, Default())
		assert.Same(t, Default(), Default())
	})
}

func TestHandle(t *testing.T) {
	a, b := NewHandle(), NewHandle()

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, a.ID().String(), a.String())
}
