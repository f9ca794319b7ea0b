package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/guard"
	"github.com/aretw0/furrow/pkg/probe"
	"github.com/aretw0/furrow/pkg/reach"
	"github.com/aretw0/furrow/pkg/search"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config holds every tunable of an exploration session.
type Config struct {
	Strategy        string        `mapstructure:"strategy" yaml:"strategy"`
	Seed            int64         `mapstructure:"seed" yaml:"seed"`
	MaxSteps        int           `mapstructure:"max_steps" yaml:"max_steps"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CheckpointEvery int           `mapstructure:"checkpoint_every" yaml:"checkpoint_every"`

	Guard      GuardConfig      `mapstructure:"guard" yaml:"guard"`
	Stochastic StochasticConfig `mapstructure:"stochastic" yaml:"stochastic"`
	Loops      LoopsConfig      `mapstructure:"loops" yaml:"loops"`
	Reach      ReachConfig      `mapstructure:"reach" yaml:"reach"`
	Heartbeat  HeartbeatConfig  `mapstructure:"heartbeat" yaml:"heartbeat"`
	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// GuardConfig configures the explosion guard.
type GuardConfig struct {
	Threshold int `mapstructure:"threshold" yaml:"threshold"`
	// Pools lists the monitored pools. Empty means domain.DefaultMonitoredPools.
	Pools []string `mapstructure:"pools" yaml:"pools,omitempty"`
}

// StochasticConfig configures the stochastic strategy.
type StochasticConfig struct {
	RestartProbability float64 `mapstructure:"restart_probability" yaml:"restart_probability"`
}

// LoopsConfig configures the loop limiter.
type LoopsConfig struct {
	Bound int `mapstructure:"bound" yaml:"bound"`
}

// ReachConfig configures the reachability estimator.
type ReachConfig struct {
	MaxHops     int `mapstructure:"max_hops" yaml:"max_hops"`
	MaxDistance int `mapstructure:"max_distance" yaml:"max_distance"`
}

// HeartbeatConfig configures the liveness heartbeat.
type HeartbeatConfig struct {
	Interval int    `mapstructure:"interval" yaml:"interval"`
	Sentinel string `mapstructure:"sentinel" yaml:"sentinel"`
}

// StoreConfig selects where session reports are kept.
type StoreConfig struct {
	Driver    string        `mapstructure:"driver" yaml:"driver"`
	Path      string        `mapstructure:"path" yaml:"path,omitempty"`
	RedisAddr string        `mapstructure:"redis_addr" yaml:"redis_addr,omitempty"`
	Prefix    string        `mapstructure:"prefix" yaml:"prefix,omitempty"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl,omitempty"`
}

// MetricsConfig enables the metrics endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr,omitempty"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Strategy: "tree",
		Seed:     search.DefaultSeed,
		Guard: GuardConfig{
			Threshold: guard.DefaultThreshold,
		},
		Stochastic: StochasticConfig{
			RestartProbability: search.DefaultRestartProbability,
		},
		Loops: LoopsConfig{
			Bound: search.DefaultLoopBound,
		},
		Reach: ReachConfig{
			MaxHops:     reach.DefaultMaxHops,
			MaxDistance: search.DefaultMaxDistance,
		},
		Heartbeat: HeartbeatConfig{
			Interval: probe.DefaultInterval,
			Sentinel: probe.DefaultSentinel,
		},
		Store: StoreConfig{
			Driver: DriverMemory,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over Default. Unknown keys are rejected.
// The result is not validated.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes over Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(raw) == 0 {
		return cfg, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// MonitoredPools returns the guard pools as domain names.
func (c Config) MonitoredPools() []domain.PoolName {
	if len(c.Guard.Pools) == 0 {
		return domain.DefaultMonitoredPools
	}
	out := make([]domain.PoolName, len(c.Guard.Pools))
	for i, p := range c.Guard.Pools {
		out[i] = domain.PoolName(p)
	}
	return out
}

var knownPools = []domain.PoolName{
	domain.PoolActive,
	domain.PoolDeferred,
	domain.PoolErrored,
	domain.PoolCut,
	domain.PoolUnconstrained,
	domain.PoolDeadended,
}

// Validate reports every out-of-range value, each wrapping domain.ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	if names := search.DefaultRegistry().Names(); !slices.Contains(names, c.Strategy) {
		bad("strategy %q is not one of %s", c.Strategy, strings.Join(names, ", "))
	}
	if c.MaxSteps < 0 {
		bad("max_steps must not be negative")
	}
	if c.Timeout < 0 {
		bad("timeout must not be negative")
	}
	if c.CheckpointEvery < 0 {
		bad("checkpoint_every must not be negative")
	}
	if c.Guard.Threshold <= 0 {
		bad("guard.threshold must be positive")
	}
	for _, p := range c.Guard.Pools {
		if !slices.Contains(knownPools, domain.PoolName(p)) {
			bad("guard.pools: unknown pool %q", p)
		}
	}
	if p := c.Stochastic.RestartProbability; p < 0 || p > 1 {
		bad("stochastic.restart_probability must be within [0, 1]")
	}
	if c.Loops.Bound <= 0 {
		bad("loops.bound must be positive")
	}
	if c.Reach.MaxHops <= 0 {
		bad("reach.max_hops must be positive")
	}
	if c.Reach.MaxDistance <= 0 {
		bad("reach.max_distance must be positive")
	}
	if c.Heartbeat.Interval <= 0 {
		bad("heartbeat.interval must be positive")
	}

	switch c.Store.Driver {
	case DriverMemory, DriverFile:
	case DriverRedis:
		if c.Store.RedisAddr == "" {
			bad("store.redis_addr is required for the redis driver")
		}
	default:
		bad("store.driver %q is not one of memory, file, redis", c.Store.Driver)
	}
	if c.Store.TTL < 0 {
		bad("store.ttl must not be negative")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		bad("log.format %q is not one of text, json", c.Log.Format)
	}

	return errors.Join(errs...)
}

// Encode renders the configuration as YAML.
func (c Config) Encode() ([]byte, error) {
	return yaml.Marshal(c)
}
