// Package reconcile merges the two per-team event streams of a point into one
// timeline.
//
// Each statkeeper numbers only their own team's events, so arrival order says
// nothing about cross-team order. The reconciler recovers it by simulating
// possession: whichever team is on offense reports until it turns the disc
// over, then the other team takes the offense slot.
//
// The result is a pure function of the two final event sets. It must be
// recomputed from scratch after any insert or undo; a single late event can
// change the opening possession and with it the whole order.
//
// Ambiguous histories (both teams opening with a pull, say) never fail. The
// fixed check order in Explain picks one reading and the result is a
// best-effort order.
package reconcile
