package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/furrow"
	"github.com/aretw0/furrow/internal/config"
	"github.com/aretw0/furrow/internal/logging"
	"github.com/aretw0/furrow/pkg/adapters/file"
	"github.com/aretw0/furrow/pkg/adapters/memory"
	"github.com/aretw0/furrow/pkg/adapters/redis"
	"github.com/aretw0/furrow/pkg/cfg"
	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/ports"
	"github.com/aretw0/furrow/pkg/probe"
	"github.com/aretw0/furrow/pkg/search"
)

// createLogger configures the application logger on stderr, keeping stdout
// for the report.
func createLogger(c config.LogConfig, debug bool) *slog.Logger {
	level := logging.ParseLevel(c.Level)
	if debug {
		level = slog.LevelDebug
	}
	if strings.EqualFold(c.Format, "json") {
		return logging.NewJSON(os.Stderr, level)
	}
	return logging.New(level)
}

// Backend bundles a report store with its optional locker and cleanup.
type Backend struct {
	Store  ports.ReportStore
	Locker ports.DistributedLocker
	Close  func() error
}

// OpenBackend creates the report store selected by the configuration.
func OpenBackend(ctx context.Context, c config.StoreConfig) (*Backend, error) {
	nop := func() error { return nil }
	switch c.Driver {
	case config.DriverMemory, "":
		return &Backend{Store: memory.NewStore(), Close: nop}, nil

	case config.DriverFile:
		return &Backend{Store: file.New(c.Path), Close: nop}, nil

	case config.DriverRedis:
		var opts []redis.Option
		if c.Prefix != "" {
			opts = append(opts, redis.WithPrefix(c.Prefix))
		}
		if c.TTL > 0 {
			opts = append(opts, redis.WithTTL(c.TTL))
		}
		store := redis.New(c.RedisAddr, "", 0, opts...)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", c.RedisAddr, err)
		}
		prefix := c.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		return &Backend{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), prefix),
			Close:  store.Close,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown store driver %q", domain.ErrInvalidConfig, c.Driver)
}

// createExplorer wires an Explorer from the configuration.
func createExplorer(c config.Config, graph *cfg.Graph, backend *Backend, hooks domain.LifecycleHooks, hb *probe.Heartbeat, sessionID string, logger *slog.Logger) (*furrow.Explorer, error) {
	opts := []furrow.Option{
		furrow.WithLogger(logger),
		furrow.WithStrategy(c.Strategy),
		furrow.WithSeed(c.Seed),
		furrow.WithThreshold(c.Guard.Threshold),
		furrow.WithMonitoredPools(c.MonitoredPools()...),
		furrow.WithTimeout(c.Timeout),
		furrow.WithMaxSteps(c.MaxSteps),
		furrow.WithCheckpointEvery(c.CheckpointEvery),
		furrow.WithSessionID(sessionID),
		furrow.WithLifecycleHooks(hooks),
		furrow.WithStrategyOptions(
			search.WithRestartProbability(c.Stochastic.RestartProbability),
			search.WithLoopLimiter(search.NewBoundedLoops(c.Loops.Bound)),
			search.WithMaxHops(c.Reach.MaxHops),
			search.WithMaxDistance(c.Reach.MaxDistance),
		),
	}
	if hb != nil {
		opts = append(opts, furrow.WithHeartbeat(hb))
	}
	if backend != nil {
		opts = append(opts, furrow.WithStore(backend.Store))
		if backend.Locker != nil {
			opts = append(opts, furrow.WithLocker(backend.Locker))
		}
	}
	return furrow.New(graph, opts...)
}

// createHeartbeat builds the heartbeat from the configuration.
func createHeartbeat(c config.HeartbeatConfig, logger *slog.Logger) *probe.Heartbeat {
	return probe.New(
		probe.WithInterval(c.Interval),
		probe.WithSentinel(c.Sentinel),
		probe.WithLogger(logger),
	)
}
