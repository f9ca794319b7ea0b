/*
Package ports defines the driven ports (interfaces) of the scheduler.

These interfaces decouple the path-selection core from the execution engine,
the control-flow graph source and the persistence backends.

# Key Interfaces

  - Stepper: advances one execution state, producing 0..N successors.
  - Graph: control-flow graph lookup (nodes, successors, natural loops).
  - Signal: externally settable flag polled once per epoch (timeouts).
  - ReportStore: persists session reports (memory, file, Redis).
  - DistributedLocker: coordinates report writes across processes.
*/
package ports
