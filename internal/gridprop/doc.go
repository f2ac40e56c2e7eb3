// Package gridprop holds cell-indexed property arrays attached to a
// corner-point grid.
//
// A Property validates its own dimensions and cooperates with structural
// grid transforms through a two-phase contract: Stage* methods compute the
// re-ordered or re-sliced data and return a commit function, so the grid can
// stage every attached property before it mutates anything.
package gridprop
