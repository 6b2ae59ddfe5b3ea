package reclaim

import (
	"errors"
	"fmt"
	"time"

	"go-simpler.org/env"
)

const (
	StrategyAuto      = "auto"
	StrategyFinalizer = "finalizer"
	StrategySweep     = "sweep"
)

const DefaultSweepInterval = 10 * time.Second

type Config struct {
	// Strategy is one of auto, finalizer or sweep.
	Strategy string `env:"SIGREACT_RECLAIM_STRATEGY" default:"auto"`

	// SweepInterval is the period of the sweep strategy.
	SweepInterval time.Duration `env:"SIGREACT_SWEEP_INTERVAL" default:"10s"`
}

func DefaultConfig() Config {
	return Config{
		Strategy:      StrategyAuto,
		SweepInterval: DefaultSweepInterval,
	}
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return Config{}, fmt.Errorf("failed to load reclaim config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Strategy {
	case "", StrategyAuto, StrategyFinalizer, StrategySweep:
	default:
		return fmt.Errorf("unknown reclaim strategy %q", c.Strategy)
	}

	if c.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}

	return nil
}
