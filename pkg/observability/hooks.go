package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/furrow/pkg/domain"
)

// CombineHooks fans every lifecycle event out to each set of hooks in order.
// Nil callbacks are skipped.
func CombineHooks(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEpoch: func(ctx context.Context, e *domain.EpochEvent) {
			for _, h := range all {
				if h.OnEpoch != nil {
					h.OnEpoch(ctx, e)
				}
			}
		},
		OnGuardTrip: func(ctx context.Context, e *domain.GuardEvent) {
			for _, h := range all {
				if h.OnGuardTrip != nil {
					h.OnGuardTrip(ctx, e)
				}
			}
		},
		OnRestart: func(ctx context.Context, e *domain.RestartEvent) {
			for _, h := range all {
				if h.OnRestart != nil {
					h.OnRestart(ctx, e)
				}
			}
		},
	}
}

// LogHooks writes guard trips and restarts to the logger.
// Epochs are logged by the runner itself.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnGuardTrip: func(ctx context.Context, e *domain.GuardEvent) {
			logger.Warn("guard tripped",
				"session_id", e.SessionID,
				"step", e.Step,
				"reason", e.Reason,
				"total", e.Total,
				"threshold", e.Threshold)
		},
		OnRestart: func(ctx context.Context, e *domain.RestartEvent) {
			logger.Info("restart",
				"session_id", e.SessionID,
				"step", e.Step,
				"strategy", e.Strategy,
				"forced", e.Forced)
		},
	}
}
