package domain

import "errors"

// ErrNoActiveState is returned when an operation needs an active state and none exists.
var ErrNoActiveState = errors.New("no active state")

// ErrUnknownStrategy is returned when a strategy name is not registered.
var ErrUnknownStrategy = errors.New("unknown strategy")

// ErrUnknownPool is returned when a pool name is empty or malformed.
var ErrUnknownPool = errors.New("unknown pool")

// ErrReportNotFound is returned when a session report cannot be found in the store.
var ErrReportNotFound = errors.New("report not found")

// ErrNoGraph is returned when a component requires a control-flow graph and none was provided.
var ErrNoGraph = errors.New("no control-flow graph")

// ErrInvalidConfig is returned when configuration values are out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrInvalidGraph is returned when a control-flow graph is malformed.
var ErrInvalidGraph = errors.New("invalid control-flow graph")
