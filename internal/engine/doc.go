// Package engine implements the live/offline mediator for one game session.
//
// A Session owns the point's Action Stack and is the only writer to it.
// Statkeeper intents leave through Emit/Undo/NextPoint; authoritative results
// come back as Messages, either from the network transport's reader goroutine
// (online) or as local echoes after a store write (offline). Both paths go
// through the same FIFO queue and are applied by Run on a single goroutine.
//
// Single-Writer Loop:
//  1. Messages enqueued from any goroutine (Deliver, or an offline echo)
//  2. Session.Run() dequeues messages one at a time
//  3. online: the event is mirrored into the local store (idempotent upsert)
//  4. the Action Stack is upserted/trimmed/reset
//  5. every Listener sees the resulting Update (message + reconciled timeline)
//
// Cross-team ordering is never taken from arrival order. The Stack only keys
// events by (team, seq); the reconciler rebuilds the timeline from that final
// state on every read, so a late event for an earlier turn lands in the right
// place.
//
// Failure model: network errors surface as MessageError through the same
// listener path as successful events and are also returned to the caller.
// Nothing is rolled back and nothing is retried; redelivery is harmless
// because upserts are idempotent.
package engine
