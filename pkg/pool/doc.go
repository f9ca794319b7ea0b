/*
Package pool implements the State Pool Manager: named, ordered, duplicate-free
collections of execution states with the move, filter and ranked-split
primitives every strategy builds on.

A state lives in exactly one pool at any instant. The drop pool is a sink:
states moved there are released and only counted.

Stepping is delegated to a ports.Stepper. Step replaces every state of a pool
with its successors, files failures into the errored pool, symbolic jumps into
the unconstrained pool and finished paths into the deadended pool.
*/
package pool
