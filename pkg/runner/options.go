package runner

import (
	"log/slog"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/guard"
	"github.com/aretw0/furrow/pkg/probe"
	"github.com/aretw0/furrow/pkg/reach"
	"github.com/aretw0/furrow/pkg/session"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithGuard replaces the default explosion guard.
func WithGuard(g *guard.Guard) Option {
	return func(r *Runner) {
		r.guard = g
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runner) {
		r.hooks = hooks
	}
}

// WithHeartbeat enables the liveness heartbeat.
func WithHeartbeat(hb *probe.Heartbeat) Option {
	return func(r *Runner) {
		r.heartbeat = hb
	}
}

// WithSessions persists reports through the session manager.
func WithSessions(sessions *session.Manager) Option {
	return func(r *Runner) {
		r.sessions = sessions
	}
}

// WithSessionID sets the session ID. A random one is generated otherwise.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.sessionID = id
	}
}

// WithMaxSteps caps the number of epochs. Zero means no cap.
func WithMaxSteps(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.maxSteps = n
		}
	}
}

// WithCheckpointEvery saves a running report every n epochs.
// Zero saves only the initial and final reports.
func WithCheckpointEvery(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.checkpointEvery = n
		}
	}
}

// WithSeed records the seed the strategy was built with.
func WithSeed(seed int64) Option {
	return func(r *Runner) {
		r.seed = seed
	}
}

// WithCoverage records reached addresses in c instead of a private set.
// Pass the same set to the strategy so both read one coverage view.
func WithCoverage(c *reach.Coverage) Option {
	return func(r *Runner) {
		if c != nil {
			r.coverage = c
		}
	}
}
