// Package cli implements the commands of the furrow binary on top of the
// public packages: configuration, store selection, telemetry wiring, the
// report API served next to /metrics, graph rendering and report output.
package cli
