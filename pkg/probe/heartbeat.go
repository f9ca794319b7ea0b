package probe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/furrow/internal/logging"
	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/pool"
)

const (
	// DefaultInterval is how many epochs pass between two beats.
	DefaultInterval = 100

	// DefaultSentinel is the marker file that requests a debug session.
	DefaultSentinel = "/tmp/stop_heartbeat.txt"
)

// DebugSession is the snapshot handed to a DebugHandler when the sentinel
// file is present at a beat. It is only valid during the handler call.
type DebugSession struct {
	SessionID string
	Strategy  string
	Step      int
	At        time.Time
	Pools     domain.PoolCounts

	// Active holds the states about to be stepped.
	Active []*domain.State

	// Manager gives the handler full access to the pools. Mutations take
	// effect on the next epoch.
	Manager *pool.Manager
}

// DebugHandler receives a debug session. It blocks the scheduler for as
// long as it runs.
type DebugHandler interface {
	Debug(ctx context.Context, s *DebugSession) error
}

// DebugHandlerFunc adapts a function to DebugHandler.
type DebugHandlerFunc func(ctx context.Context, s *DebugSession) error

// Debug calls f(ctx, s).
func (f DebugHandlerFunc) Debug(ctx context.Context, s *DebugSession) error {
	return f(ctx, s)
}

// LogHandler is the default DebugHandler: it logs the snapshot.
type LogHandler struct {
	Logger *slog.Logger
}

// Debug implements DebugHandler.
func (h LogHandler) Debug(ctx context.Context, s *DebugSession) error {
	addrs := make([]string, len(s.Active))
	for i, st := range s.Active {
		addrs[i] = fmt.Sprintf("%#x", st.Addr)
	}
	h.Logger.Info("heartbeat stopped, need help?",
		"session", s.SessionID,
		"strategy", s.Strategy,
		"step", s.Step,
		"pools", s.Pools,
		"active", addrs)
	return nil
}

// Heartbeat logs an alive message every Interval epochs and hands a
// DebugSession to its handler whenever the sentinel file exists at a beat.
type Heartbeat struct {
	interval int
	sentinel *Sentinel
	handler  DebugHandler
	logger   *slog.Logger

	count int
	beats int
}

// Option configures the Heartbeat.
type Option func(*hbConfig)

type hbConfig struct {
	interval int
	sentinel string
	handler  DebugHandler
	logger   *slog.Logger
}

// WithInterval sets how many epochs pass between beats.
func WithInterval(n int) Option {
	return func(c *hbConfig) {
		if n > 0 {
			c.interval = n
		}
	}
}

// WithSentinel sets the marker file path.
func WithSentinel(path string) Option {
	return func(c *hbConfig) {
		if path != "" {
			c.sentinel = path
		}
	}
}

// WithHandler sets the DebugHandler.
func WithHandler(h DebugHandler) Option {
	return func(c *hbConfig) {
		c.handler = h
	}
}

// WithLogger configures a logger for the Heartbeat.
func WithLogger(logger *slog.Logger) Option {
	return func(c *hbConfig) {
		c.logger = logger
	}
}

// New creates a heartbeat.
func New(opts ...Option) *Heartbeat {
	c := hbConfig{
		interval: DefaultInterval,
		sentinel: DefaultSentinel,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.handler == nil {
		c.handler = LogHandler{Logger: c.logger}
	}
	return &Heartbeat{
		interval: c.interval,
		sentinel: NewSentinel(c.sentinel, c.logger),
		handler:  c.handler,
		logger:   c.logger,
	}
}

// Sentinel exposes the marker file watcher.
func (h *Heartbeat) Sentinel() *Sentinel { return h.sentinel }

// Beats returns how many beats were emitted.
func (h *Heartbeat) Beats() int { return h.beats }

// Tick records one epoch. Every Interval ticks it beats; a beat with the
// sentinel present builds a DebugSession and runs the handler. It reports
// whether a debug session was handed out.
func (h *Heartbeat) Tick(ctx context.Context, sessionID, strategy string, step int, m *pool.Manager) (bool, error) {
	h.count++
	if h.count < h.interval {
		return false, nil
	}
	h.count = 0
	h.beats++

	counts := m.Counts()
	h.logger.Info("exploration is alive", "step", step, "pools", counts)

	if !h.sentinel.Present() {
		return false, nil
	}

	session := &DebugSession{
		SessionID: sessionID,
		Strategy:  strategy,
		Step:      step,
		At:        time.Now(),
		Pools:     counts,
		Active:    m.Get(domain.PoolActive),
		Manager:   m,
	}
	if err := h.handler.Debug(ctx, session); err != nil {
		return true, fmt.Errorf("debug handler: %w", err)
	}
	return true, nil
}
