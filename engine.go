package sigreact

import (
	"log/slog"
	"sync/atomic"
)

// Config is the process-level behavior of an Engine.
type Config struct {
	// SSR disables subscriptions entirely: runs are plain function calls
	// and no reaction is ever invalidated.
	SSR bool
}

// Engine creates reactions with a fixed Config.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

type EngineOption func(*Engine)

// WithLogger sets the logger used for lifecycle diagnostics.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

func NewEngine(cfg Config, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:    cfg,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With("component", "sigreact")

	return e
}

// Config returns the configuration the engine was created with.
func (e *Engine) Config() Config { return e.cfg }

var defaultEngine atomic.Pointer[Engine]

func init() {
	defaultEngine.Store(NewEngine(Config{}))
}

// DefaultEngine returns the engine used by reactions created without WithEngine.
func DefaultEngine() *Engine {
	return defaultEngine.Load()
}

// Configure replaces the default engine.
// Reactions created before the call keep the engine they were created with.
func Configure(cfg Config, opts ...EngineOption) {
	defaultEngine.Store(NewEngine(cfg, opts...))
}
