package domain

import "time"

// Outcome records how an exploration session ended.
type Outcome string

const (
	OutcomeRunning   Outcome = "running"    // Session still in progress (checkpoint)
	OutcomeExhausted Outcome = "exhausted"  // No live states left
	OutcomeExploded  Outcome = "exploded"   // Guard drained pools on state explosion
	OutcomeTimedOut  Outcome = "timed_out"  // Guard drained pools on the timeout signal
	OutcomeStepLimit Outcome = "step_limit" // Driver step cap reached
	OutcomeCancelled Outcome = "cancelled"  // Context cancelled by the host
)

// Report is the persisted summary of one exploration session.
type Report struct {
	SessionID  string     `json:"session_id"`
	Strategy   string     `json:"strategy"`
	Seed       int64      `json:"seed"`
	Steps      int        `json:"steps"`
	Outcome    Outcome    `json:"outcome"`
	Pools      PoolCounts `json:"pools"`
	Covered    int        `json:"covered"`
	Restarts   int        `json:"restarts,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at,omitempty"`
}

// Partial reports whether the session was cut short by the guard.
func (r *Report) Partial() bool {
	return r.Outcome == OutcomeExploded || r.Outcome == OutcomeTimedOut
}

// Elapsed returns the session wall time. For running sessions it is measured up to now.
func (r *Report) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
