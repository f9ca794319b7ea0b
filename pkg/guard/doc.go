/*
Package guard implements the explosion and liveness guard.

After every epoch the Guard discards unconstrained states, drains the
monitored pools into the drop pool when the timeout Flag is raised, and drains
them again when their live count exceeds the threshold. Both conditions are
recorded in the returned Verdict and stay set for the rest of the session.
Neither is an error.
*/
package guard
