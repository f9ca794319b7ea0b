package search

import (
	"log/slog"
	"math/rand"

	"github.com/aretw0/furrow/internal/logging"
	"github.com/aretw0/furrow/pkg/ports"
	"github.com/aretw0/furrow/pkg/reach"
)

const (
	// DefaultSeed seeds every strategy-local generator.
	DefaultSeed int64 = 42

	// DefaultRestartProbability is the per-epoch chance of a stochastic restart.
	DefaultRestartProbability = 1e-4

	// DefaultMaxDistance caps the reachability distance used by md2u.
	DefaultMaxDistance = 10000
)

type settings struct {
	logger      *slog.Logger
	rand        Rand
	seed        int64
	graph       ports.Graph
	coverage    *reach.Coverage
	limiter     LoopLimiter
	restartProb float64
	maxDistance int
	maxHops     int
}

// Option configures a Strategy.
type Option func(*settings)

func newSettings(opts []Option) settings {
	s := settings{
		logger:      logging.NewNop(),
		seed:        DefaultSeed,
		restartProb: DefaultRestartProbability,
		maxDistance: DefaultMaxDistance,
		maxHops:     reach.DefaultMaxHops,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(s.seed))
	}
	return s
}

// WithLogger configures a logger for the Strategy.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithSeed seeds the strategy-local generator.
func WithSeed(seed int64) Option {
	return func(s *settings) {
		s.seed = seed
	}
}

// WithRand replaces the strategy-local generator. It takes precedence over WithSeed.
func WithRand(r Rand) Option {
	return func(s *settings) {
		s.rand = r
	}
}

// WithGraph provides the control-flow graph used by reachability heuristics.
func WithGraph(g ports.Graph) Option {
	return func(s *settings) {
		s.graph = g
	}
}

// WithCoverage shares a coverage set instead of allocating a private one.
func WithCoverage(c *reach.Coverage) Option {
	return func(s *settings) {
		s.coverage = c
	}
}

// WithLoopLimiter installs the collaborator that cuts states stuck in a loop.
func WithLoopLimiter(l LoopLimiter) Option {
	return func(s *settings) {
		s.limiter = l
	}
}

// WithRestartProbability sets the per-epoch random restart probability.
func WithRestartProbability(p float64) Option {
	return func(s *settings) {
		s.restartProb = p
	}
}

// WithMaxDistance caps reachability distances fed into md2u.
func WithMaxDistance(d int) Option {
	return func(s *settings) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMaxHops bounds reachability queries.
func WithMaxHops(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxHops = n
		}
	}
}
