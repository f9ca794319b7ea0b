package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/furrow"
	"github.com/aretw0/furrow/internal/config"
	"github.com/aretw0/furrow/internal/presentation/graph"
	"github.com/aretw0/furrow/internal/presentation/tui"
	httpadapter "github.com/aretw0/furrow/pkg/adapters/http"
	"github.com/aretw0/furrow/pkg/cfg"
	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/observability"
	"github.com/aretw0/furrow/pkg/persistence/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// RunOptions carries the run command inputs that are not configuration.
type RunOptions struct {
	GraphPath string
	SessionID string
	Debug     bool
	Quiet     bool
	Format    string // Report format: text or json
	Out       io.Writer
}

// Run explores the graph at opts.GraphPath and prints the final report.
// SIGINT and SIGTERM raise the guard's timeout so the report is still written.
func Run(ctx context.Context, c config.Config, opts RunOptions) (*domain.Report, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	logger := createLogger(c.Log, opts.Debug)

	graph, err := cfg.Load(opts.GraphPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("graph loaded", "path", opts.GraphPath, "blocks", graph.Len(), "loops", len(graph.Loops()))

	backend, err := OpenBackend(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("failed to close report store", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hooks := []domain.LifecycleHooks{
		observability.LogHooks(logger),
		observability.NewTracer(nil).Hooks(),
	}
	mws := []middleware.Middleware{middleware.NewLoggingMiddleware(logger)}
	var (
		reg     *prometheus.Registry
		streams *httpadapter.StreamManager
	)
	if c.Metrics.Addr != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		storeMetrics, err := middleware.NewStoreMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		mws = append(mws, storeMetrics.Middleware())
		streams = httpadapter.NewStreamManager(logger)
		hooks = append(hooks, metrics.Hooks(), streams.Hooks())
	}
	backend.Store = middleware.Chain(backend.Store, mws...)
	if reg != nil {
		router := NewMetricsRouter(reg, backend.Store, httpadapter.WithStreams(streams), httpadapter.WithLogger(logger))
		serveMetrics(ctx, c.Metrics.Addr, router, logger)
	}

	hb := createHeartbeat(c.Heartbeat, logger)
	if err := hb.Sentinel().Watch(ctx); err != nil {
		logger.Debug("sentinel watch unavailable, falling back to polling", "err", err)
	}

	ex, err := createExplorer(c, graph, backend, observability.CombineHooks(hooks...), hb, opts.SessionID, logger)
	if err != nil {
		return nil, err
	}
	stop := ex.Timeout().RaiseOnInterrupt()
	defer stop()

	if !opts.Quiet && opts.Format != "json" && isTerminal(opts.Out) {
		tui.PrintBanner(opts.Out, furrow.Version)
	}

	report, runErr := ex.Run(ctx)
	if report != nil && !opts.Quiet {
		if err := PrintReport(opts.Out, report, opts.Format); err != nil {
			return report, err
		}
	}
	return report, runErr
}

// Validate loads and checks a graph file, printing a short summary.
func Validate(w io.Writer, path string) error {
	graph, err := cfg.Load(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d blocks, %d natural loops, entry %#x\n", path, graph.Len(), len(graph.Loops()), graph.Entry())
	return nil
}

// Graph prints the graph at path as a Mermaid flowchart. With explore set it
// first runs a session from c in memory and paints the covered blocks and the
// states left active.
func Graph(ctx context.Context, w io.Writer, c config.Config, path string, explore bool) error {
	g, err := cfg.Load(path)
	if err != nil {
		return err
	}
	if !explore {
		fmt.Fprint(w, graph.GenerateMermaid(g, nil))
		return nil
	}

	if err := c.Validate(); err != nil {
		return err
	}
	logger := createLogger(c.Log, false)
	ex, err := createExplorer(c, g, nil, observability.LogHooks(logger), nil, "", logger)
	if err != nil {
		return err
	}
	if _, err := ex.Run(ctx); err != nil {
		return err
	}

	overlay := &graph.Overlay{Covered: ex.Coverage().Addrs()}
	for _, st := range ex.Pools().Get(domain.PoolActive) {
		overlay.Current = append(overlay.Current, st.Addr)
	}
	fmt.Fprint(w, graph.GenerateMermaid(g, overlay))
	return nil
}
