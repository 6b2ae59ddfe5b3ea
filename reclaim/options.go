package reclaim

import (
	"log/slog"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/AnatoleLucet/sigreact/reclaim"

type options struct {
	logger  *slog.Logger
	clock   clockwork.Clock
	metrics *Metrics
	tracer  trace.Tracer
}

type Option func(*options)

// WithLogger sets the logger used for reclamation events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock sets the clock driving the sweep strategy.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithMetrics records strategy activity on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracerProvider sets a custom tracer provider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(o *options) {
		o.tracer = provider.Tracer(instrumentationName)
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger: slog.Default(),
		clock:  clockwork.NewRealClock(),
		tracer: otel.Tracer(instrumentationName),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}
