/*
Package observability turns runner lifecycle events into telemetry.

Metrics exports Prometheus collectors, Tracer emits OpenTelemetry spans and
LogHooks writes guard trips and restarts to a slog logger. Each produces a
domain.LifecycleHooks value; CombineHooks merges several into one for
runner.WithHooks.
*/
package observability
