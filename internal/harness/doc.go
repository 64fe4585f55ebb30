// Package harness runs reconciliation scenarios against a live session.
//
// A scenario lists what each statkeeper reported and the order those reports
// reached a device. The harness opens an online session over a fresh
// in-memory store, delivers every report through Session.Deliver as a relay
// connection would, and checks the device's final view.
//
// # Scenario Format
//
//	name: pull_then_turnover
//	description: "Team two turns the disc over after the pull"
//	teams: { one: Hammers, two: Hucks }
//	pulling: one
//	streams:
//	  one:
//	    - { seq: 1, action: Pull, player_one: Ann }
//	  two:
//	    - { seq: 1, action: Catch, player_one: Bo }
//	    - { seq: 2, action: Throwaway, player_one: Bo }
//	arrival: [two, two, one]
//	assertions:
//	  - type: order
//	    events: ["one#1", "two#1", "two#2"]
//	  - type: player_actions
//	    team: one
//	    player: Ann
//	    actions: [Block, Pickup, TeamOneScore]
//
// A stream entry with undo: true removes that team's event at seq.
//
// # Assertion Types
//
//   - order: chronological timeline as team#seq keys
//   - rule: the opening rule that fired (pull, drop, initiating, fallback, empty)
//   - player_actions: legal actions for a player
//   - team_actions: legal team-level actions
//   - team_events: the keys the device persisted for one team
//   - event: one persisted event's action and tags
//   - score: the cumulative score
//
// # Golden Files
//
// RunWithGolden pins each scenario's rule, score and timeline as canonical
// JSON under testdata/golden/{name}.golden.
package harness
