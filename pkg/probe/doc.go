// Package probe provides the liveness heartbeat and its debug escape hatch.
//
// Every Interval epochs the Heartbeat logs that exploration is alive. If the
// sentinel file exists at that moment, a DebugSession snapshot is created and
// handed to the configured DebugHandler, then discarded.
package probe
