/*
Package domain contains the core types shared by the scheduler, its strategies and its adapters.

It is kept free of I/O and persistence so that strategies can be exercised against
any execution engine.

# Key Entities

  - State: one candidate path of execution (address, block size, call stack, loop record).
  - LoopRecord: per-state back-edge trip counts, copied on fork.
  - PoolName / PoolCounts: the named, mutually exclusive collections states live in.
  - Report: the persisted summary of an exploration session.
  - LifecycleHooks: observability callbacks fired by the runner.
*/
package domain
