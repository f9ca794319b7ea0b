package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/furrow/internal/config"
	"github.com/aretw0/furrow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "tree", cfg.Strategy)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 100, cfg.Guard.Threshold)
	assert.Equal(t, domain.DefaultMonitoredPools, cfg.MonitoredPools())
	assert.Equal(t, 1e-4, cfg.Stochastic.RestartProbability)
	assert.Equal(t, 10000, cfg.Loops.Bound)
	assert.Equal(t, 50, cfg.Reach.MaxHops)
	assert.Equal(t, 100, cfg.Heartbeat.Interval)
	assert.Equal(t, "/tmp/stop_heartbeat.txt", cfg.Heartbeat.Sentinel)
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(`
strategy: coverage
seed: 7
max_steps: 500
timeout: 90s
guard:
  threshold: 250
  pools: [active, deferred]
reach:
  max_hops: 20
store:
  driver: redis
  redis_addr: localhost:6379
  ttl: 1h
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "coverage", cfg.Strategy)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 500, cfg.MaxSteps)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, 250, cfg.Guard.Threshold)
	assert.Equal(t, []domain.PoolName{domain.PoolActive, domain.PoolDeferred}, cfg.MonitoredPools())
	assert.Equal(t, 20, cfg.Reach.MaxHops)
	assert.Equal(t, 10000, cfg.Reach.MaxDistance, "untouched keys in a section keep their default")
	assert.Equal(t, time.Hour, cfg.Store.TTL)
	assert.Equal(t, 100, cfg.Heartbeat.Interval)
}

func TestParse_WeakTypes(t *testing.T) {
	cfg, err := config.Parse([]byte(`
seed: "9"
guard:
  threshold: "12"
  pools: "active,cut"
`))
	require.NoError(t, err)
	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, 12, cfg.Guard.Threshold)
	assert.Equal(t, []string{"active", "cut"}, cfg.Guard.Pools)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := config.Parse([]byte("strategy: tree\nthreshold: 3\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown strategy", func(c *config.Config) { c.Strategy = "bfs" }},
		{"negative steps", func(c *config.Config) { c.MaxSteps = -1 }},
		{"negative timeout", func(c *config.Config) { c.Timeout = -time.Second }},
		{"zero threshold", func(c *config.Config) { c.Guard.Threshold = 0 }},
		{"unknown pool", func(c *config.Config) { c.Guard.Pools = []string{"limbo"} }},
		{"drop is not monitorable", func(c *config.Config) { c.Guard.Pools = []string{"drop"} }},
		{"probability above one", func(c *config.Config) { c.Stochastic.RestartProbability = 1.5 }},
		{"zero loop bound", func(c *config.Config) { c.Loops.Bound = 0 }},
		{"zero hops", func(c *config.Config) { c.Reach.MaxHops = 0 }},
		{"zero heartbeat", func(c *config.Config) { c.Heartbeat.Interval = 0 }},
		{"redis without addr", func(c *config.Config) { c.Store.Driver = config.DriverRedis }},
		{"unknown driver", func(c *config.Config) { c.Store.Driver = "s3" }},
		{"unknown log format", func(c *config.Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrInvalidConfig)
		})
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Strategy = "loops"
	cfg.Timeout = 5 * time.Minute
	cfg.Store.Driver = config.DriverFile
	cfg.Store.Path = "reports"

	data, err := cfg.Encode()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "furrow.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
