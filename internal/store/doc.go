// Package store provides SQLite-backed persistence for games, points and
// per-team point events.
//
// The store is both the offline recording path's authoritative log and the
// online path's local mirror of what the relay has accepted. It owns:
//   - Games: team names and the offline flag the session reads at startup
//   - Points: ordinal within the game, pulling team, cumulative score
//   - Events: keyed by (point_id, team, seq)
//
// # Critical Patterns
//
// Idempotent upsert:
//   - UNIQUE(point_id, team, seq); ApplyEvent replaces content at a key, and
//     redelivery of the same fingerprint is a no-op
//
// Atomic aggregates:
//   - Every event write rescores the point in the same transaction
//     (RecordAction, ApplyEvent, UndoLast, RemoveEvent)
//   - A point credits at most one goal on top of the previous point's score,
//     taken from the first-stored score event left on the point
//
// Deterministic reads:
//   - Event queries are ORDER BY seq ASC
//   - Slices are empty, never nil
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
