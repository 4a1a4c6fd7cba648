package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/behave/internal/core/observability/log"
)

var ErrInvalidConfig = errors.New("invalid runner config")

// Runner configures how a host drives its trees.
type Runner struct {
	// TickInterval is the wall time between ticks; 0 ticks back to back.
	TickInterval time.Duration `yaml:"tick_interval"`
	// StepsPerTick bounds scheduler steps per tick; 0 steps every entry that was
	// pending when the tick began, once.
	StepsPerTick int `yaml:"steps_per_tick"`
	// MaxTicks bounds one run; 0 is unbounded.
	MaxTicks int `yaml:"max_ticks"`
	// Loop restarts the tree after it completes.
	Loop bool `yaml:"loop"`
	// Restarts caps restarts when looping; 0 is unbounded.
	Restarts int `yaml:"restarts"`
	// Workers caps how many trees of a fleet run at once; 0 is unbounded.
	Workers  int    `yaml:"workers"`
	LogLevel string `yaml:"log_level"`
	Trace    Trace  `yaml:"trace"`
}

type Trace struct {
	// Listen is the trace server address; empty disables it.
	Listen string `yaml:"listen"`
}

func Default() Runner {
	return Runner{
		TickInterval: 100 * time.Millisecond,
		LogLevel:     "info",
	}
}

// Load decodes YAML over the defaults and validates the result.
func Load(r io.Reader) (Runner, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Runner{}, fmt.Errorf("failed to decode runner config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Runner{}, err
	}
	return c, nil
}

func LoadFile(path string) (Runner, error) {
	f, err := os.Open(path)
	if err != nil {
		return Runner{}, err
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		return Runner{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate reports every problem at once.
func (c Runner) Validate() error {
	var errs []error
	if c.TickInterval < 0 {
		errs = append(errs, fmt.Errorf("%w: tick_interval %s is negative", ErrInvalidConfig, c.TickInterval))
	}
	if c.StepsPerTick < 0 {
		errs = append(errs, fmt.Errorf("%w: steps_per_tick %d is negative", ErrInvalidConfig, c.StepsPerTick))
	}
	if c.MaxTicks < 0 {
		errs = append(errs, fmt.Errorf("%w: max_ticks %d is negative", ErrInvalidConfig, c.MaxTicks))
	}
	if c.Restarts < 0 {
		errs = append(errs, fmt.Errorf("%w: restarts %d is negative", ErrInvalidConfig, c.Restarts))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers %d is negative", ErrInvalidConfig, c.Workers))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level. Call it on a validated config.
func (c Runner) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.LevelInfo
	}
	return level
}
