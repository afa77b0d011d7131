// Package workflow holds the static production rules of the shop: which phases
// an order goes through, which department owns each phase, how long materials
// take to arrive and which frame colours need painting.
//
// Everything here is pure and safe for concurrent use.
package workflow
