// Package middleware decorates report stores with cross-cutting behavior:
// structured logging of every operation and Prometheus instrumentation.
package middleware
