package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventEpoch     EventType = "epoch"
	EventGuardTrip EventType = "guard_trip"
	EventRestart   EventType = "restart"
)

// GuardReason explains why the guard drained the monitored pools.
type GuardReason string

const (
	GuardExplosion GuardReason = "explosion"
	GuardTimeout   GuardReason = "timeout"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Step      int       `json:"step"`
}

// EpochEvent describes one completed scheduling epoch.
type EpochEvent struct {
	EventBase
	Strategy string        `json:"strategy"`
	Fanout   int           `json:"fanout"`
	Pools    PoolCounts    `json:"pools"`
	Delta    PoolDelta     `json:"delta,omitempty"`
	Duration time.Duration `json:"duration"`
}

// GuardEvent is emitted when the explosion guard drains the monitored pools.
type GuardEvent struct {
	EventBase
	Reason    GuardReason `json:"reason"`
	Total     int         `json:"total"`
	Threshold int         `json:"threshold"`
}

// RestartEvent is emitted when a strategy restarts from the initial state.
type RestartEvent struct {
	EventBase
	Strategy string `json:"strategy"`
	Forced   bool   `json:"forced"` // true when the pool ran dry, false for a random restart
}

// LifecycleHooks defines callbacks for scheduler observability.
type LifecycleHooks struct {
	OnEpoch     func(context.Context, *EpochEvent)
	OnGuardTrip func(context.Context, *GuardEvent)
	OnRestart   func(context.Context, *RestartEvent)
}
