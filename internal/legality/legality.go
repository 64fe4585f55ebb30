// Package legality computes which actions may be reported next.
//
// Both engines are pure functions of (team, history, pulling). History is
// oldest-first and may hold both teams' events, e.g. reconcile.Chronological
// output. A score anywhere as the most recent possession-determining event
// ends the point for everyone; beyond that each team's legality depends only
// on its own events, because each statkeeper reports only their own team.
package legality

import (
	"fmt"

	"github.com/roach88/ultistats/internal/event"
)

// MinTeamActions is the number of recorded events a point needs before
// team-level administrative actions are offered.
const MinTeamActions = 3

// Action is one selectable control.
type Action struct {
	Type    event.ActionType `json:"action"`
	Label   string           `json:"label"`
	Players []string         `json:"players,omitempty"`
}

// Names holds display names used in team-level labels.
type Names struct {
	TeamOne string
	TeamTwo string
}

// DefaultNames labels the teams generically.
var DefaultNames = Names{TeamOne: "Team One", TeamTwo: "Team Two"}

// Of returns the display name for t, falling back to DefaultNames.
func (n Names) Of(t event.Team) string {
	switch t {
	case event.TeamOne:
		if n.TeamOne != "" {
			return n.TeamOne
		}
		return DefaultNames.TeamOne
	case event.TeamTwo:
		if n.TeamTwo != "" {
			return n.TeamTwo
		}
		return DefaultNames.TeamTwo
	default:
		return t.String()
	}
}

// PointOver reports whether the most recent possession-determining event in
// history is a score.
func PointOver(history []event.Event) bool {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Type.IsPossessionDetermining() {
			return history[i].Type.IsScore()
		}
	}
	return false
}

// Types projects actions onto their types, for comparisons and logs.
func Types(actions []Action) []event.ActionType {
	out := make([]event.ActionType, len(actions))
	for i, a := range actions {
		out[i] = a.Type
	}
	return out
}

func (a Action) String() string {
	if len(a.Players) == 0 {
		return a.Label
	}
	return fmt.Sprintf("%s %v", a.Label, a.Players)
}
