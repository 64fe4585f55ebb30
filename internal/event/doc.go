// Package event defines the canonical representation of a single reported
// action in a point of ultimate.
//
// An Event is identified within a point by its (Team, Seq) key. Sequence
// numbers are assigned per team by the reporting side; they are NOT globally
// unique or globally ordered. Cross-team order is established only by the
// reconcile package.
//
// # Classification
//
// ActionType is a closed enum. The classification helpers (IsScore,
// IsTurnover, IsPossessionRetaining, IsAdministrative) are exhaustive
// switches so a new action kind fails loudly in tests instead of silently
// falling through the legality engine.
//
// # Boundary validation
//
// Validate rejects malformed events (unknown type, bad team, missing player)
// before they reach the action stack. Normalize applies NFC normalization to
// every free-text field so the same tag typed on two devices compares equal.
package event
