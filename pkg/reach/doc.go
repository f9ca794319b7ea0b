// Package reach tracks the coverage set of a session and estimates how many
// instructions separate an address from the nearest block no state has
// reached yet.
package reach
