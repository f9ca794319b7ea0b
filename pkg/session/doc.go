/*
Package session serializes access to persisted exploration reports.

A Manager wraps a ports.ReportStore so that checkpoints written by the runner
and reads from the CLI never interleave for the same session. Within one
process a reference-counted mutex per session is enough; across processes
sharing a Redis store, a ports.DistributedLocker fences writers.
*/
package session
