package reclaim

import "fmt"

// Capabilities describes what the host offers for reclamation.
type Capabilities struct {
	// Finalizers reports whether cleanups attached to unreachable
	// objects run in a timely manner.
	Finalizers bool
}

// Detect probes the host once per call; New calls it when the strategy is auto.
func Detect() Capabilities {
	return Capabilities{Finalizers: timelyCleanups}
}

// New returns the strategy selected by cfg.
func New(cfg Config, opts ...Option) (Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := newOptions(opts)

	switch cfg.Strategy {
	case StrategyFinalizer:
		return newFinalizer(o), nil
	case StrategySweep:
		return newSweeper(cfg.SweepInterval, o), nil
	case "", StrategyAuto:
		if Detect().Finalizers {
			return newFinalizer(o), nil
		}
		return newSweeper(cfg.SweepInterval, o), nil
	}

	return nil, fmt.Errorf("unknown reclaim strategy %q", cfg.Strategy)
}
