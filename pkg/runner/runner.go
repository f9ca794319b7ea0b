package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/furrow/internal/logging"
	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/guard"
	"github.com/aretw0/furrow/pkg/pool"
	"github.com/aretw0/furrow/pkg/probe"
	"github.com/aretw0/furrow/pkg/reach"
	"github.com/aretw0/furrow/pkg/search"
	"github.com/aretw0/furrow/pkg/session"
	"github.com/google/uuid"
)

// Runner drives a strategy epoch by epoch over a pool manager until no live
// work remains, the guard trips, the step cap is hit or the context ends.
type Runner struct {
	manager  *pool.Manager
	strategy search.Strategy

	guard     *guard.Guard
	heartbeat *probe.Heartbeat // Optional
	sessions  *session.Manager // Optional
	hooks     domain.LifecycleHooks
	logger    *slog.Logger

	sessionID       string
	seed            int64
	maxSteps        int
	checkpointEvery int

	coverage *reach.Coverage
}

// New creates a Runner. The manager must already hold the initial state in
// its active pool.
func New(m *pool.Manager, strategy search.Strategy, opts ...Option) *Runner {
	r := &Runner{
		manager:  m,
		strategy: strategy,
		logger:   logging.NewNop(),
		coverage: reach.NewCoverage(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.guard == nil {
		r.guard = guard.New(guard.WithLogger(r.logger))
	}
	if r.sessionID == "" {
		r.sessionID = uuid.NewString()
	}
	return r
}

// SessionID returns the ID reports are saved under.
func (r *Runner) SessionID() string { return r.sessionID }

// Coverage returns the addresses reached so far.
func (r *Runner) Coverage() *reach.Coverage { return r.coverage }

// Run explores until a terminal outcome and returns the final report.
// Guard trips, exhaustion, the step cap and cancellation are outcomes, not
// errors; errors come from strategy setup, the debug handler or persistence.
func (r *Runner) Run(ctx context.Context) (*domain.Report, error) {
	report := &domain.Report{
		SessionID: r.sessionID,
		Strategy:  r.strategy.Name(),
		Seed:      r.seed,
		Outcome:   domain.OutcomeRunning,
		StartedAt: time.Now().UTC(),
	}

	if err := r.strategy.Setup(ctx, r.manager); err != nil {
		return nil, fmt.Errorf("setup %s: %w", r.strategy.Name(), err)
	}
	for _, s := range r.manager.Get(domain.PoolActive) {
		r.coverage.Add(s.Addr)
	}
	report.Pools = r.manager.Counts()
	report.Covered = r.coverage.Len()
	if err := r.checkpoint(ctx, report); err != nil {
		return nil, err
	}

	r.logger.Info("exploration started",
		"session_id", r.sessionID,
		"strategy", report.Strategy,
		"seed", r.seed)

	for report.Outcome == domain.OutcomeRunning {
		outcome, err := r.epoch(ctx, report)
		if err != nil {
			r.finish(report, domain.OutcomeCancelled)
			return report, err
		}
		if outcome != domain.OutcomeRunning {
			r.finish(report, outcome)
			break
		}
		if r.checkpointEvery > 0 && report.Steps%r.checkpointEvery == 0 {
			if err := r.checkpoint(ctx, report); err != nil {
				return report, err
			}
		}
	}

	r.logger.Info("exploration finished",
		"session_id", r.sessionID,
		"outcome", report.Outcome,
		"steps", report.Steps,
		"covered", report.Covered,
		"elapsed", report.Elapsed())

	// The final report is written even when the caller's context ended.
	if err := r.checkpoint(context.WithoutCancel(ctx), report); err != nil {
		return report, err
	}
	return report, nil
}

// epoch runs one scheduling epoch and returns the resulting outcome.
func (r *Runner) epoch(ctx context.Context, report *domain.Report) (domain.Outcome, error) {
	switch {
	case ctx.Err() != nil:
		return domain.OutcomeCancelled, nil
	case r.manager.Len(domain.PoolActive)+r.manager.Len(domain.PoolDeferred) == 0:
		return domain.OutcomeExhausted, nil
	case r.maxSteps > 0 && report.Steps >= r.maxSteps:
		return domain.OutcomeStepLimit, nil
	}

	before := r.manager.Counts()
	start := time.Now()

	ep, err := r.strategy.Step(ctx, r.manager)
	if err != nil {
		if ctx.Err() != nil {
			return domain.OutcomeCancelled, nil
		}
		return domain.OutcomeRunning, fmt.Errorf("epoch %d: %w", report.Steps+1, err)
	}
	report.Steps++
	for _, addr := range ep.Reached {
		r.coverage.Add(addr)
	}
	if ep.Restarted {
		report.Restarts++
		r.emitRestart(ctx, report.Steps, ep.Forced)
	}

	verdict := r.guard.Inspect(ctx, r.manager)
	counts := r.manager.Counts()
	report.Pools = counts
	report.Covered = r.coverage.Len()

	r.logger.Debug("epoch",
		"step", report.Steps,
		"strategy", report.Strategy,
		"fanout", ep.Fanout,
		"heuristic", ep.Heuristic,
		"pools", counts)

	if r.hooks.OnEpoch != nil {
		r.hooks.OnEpoch(ctx, &domain.EpochEvent{
			EventBase: r.base(domain.EventEpoch, report.Steps),
			Strategy:  report.Strategy,
			Fanout:    ep.Fanout,
			Pools:     counts,
			Delta:     domain.Diff(before, counts),
			Duration:  time.Since(start),
		})
	}

	if verdict.Tripped() {
		if r.hooks.OnGuardTrip != nil {
			r.hooks.OnGuardTrip(ctx, &domain.GuardEvent{
				EventBase: r.base(domain.EventGuardTrip, report.Steps),
				Reason:    verdict.Reason(),
				Total:     verdict.Total,
				Threshold: r.guard.Threshold(),
			})
		}
		if verdict.TimedOut {
			return domain.OutcomeTimedOut, nil
		}
		return domain.OutcomeExploded, nil
	}

	if r.heartbeat != nil {
		if _, err := r.heartbeat.Tick(ctx, r.sessionID, report.Strategy, report.Steps, r.manager); err != nil {
			return domain.OutcomeRunning, err
		}
	}
	return domain.OutcomeRunning, nil
}

func (r *Runner) emitRestart(ctx context.Context, step int, forced bool) {
	r.logger.Debug("exploration restarted", "step", step, "forced", forced)
	if r.hooks.OnRestart != nil {
		r.hooks.OnRestart(ctx, &domain.RestartEvent{
			EventBase: r.base(domain.EventRestart, step),
			Strategy:  r.strategy.Name(),
			Forced:    forced,
		})
	}
}

func (r *Runner) base(t domain.EventType, step int) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		SessionID: r.sessionID,
		Step:      step,
	}
}

func (r *Runner) finish(report *domain.Report, outcome domain.Outcome) {
	report.Outcome = outcome
	report.Pools = r.manager.Counts()
	report.Covered = r.coverage.Len()
	report.FinishedAt = time.Now().UTC()
}

func (r *Runner) checkpoint(ctx context.Context, report *domain.Report) error {
	if r.sessions == nil {
		return nil
	}
	if err := r.sessions.Save(ctx, report); err != nil {
		return fmt.Errorf("critical persistence error: %w", err)
	}
	r.logger.Debug("report saved", "session_id", r.sessionID, "step", report.Steps, "outcome", report.Outcome)
	return nil
}
