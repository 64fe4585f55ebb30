package reconcile

import (
	"slices"

	"github.com/roach88/ultistats/internal/event"
)

// Rule names the opening-possession rule that fired.
type Rule string

const (
	RuleEmpty      Rule = "empty"
	RulePull       Rule = "pull"
	RuleDrop       Rule = "drop"
	RuleInitiating Rule = "initiating"
	RuleFallback   Rule = "fallback"
)

// Report describes how the opening possession was decided.
type Report struct {
	Rule Rule
	// Offense is the team on offense once the opening event (if any) has been
	// emitted. Zero for RuleEmpty.
	Offense event.Team
	// Opening is the event emitted before the main loop, if any.
	Opening *event.Event
}

// NormalizeActions interleaves the two team streams and returns the timeline
// most-recent-first, the order the scoreboard shows it.
func NormalizeActions(teamOne, teamTwo []event.Event) []event.Event {
	out := Chronological(teamOne, teamTwo)
	slices.Reverse(out)
	return out
}

// Chronological is NormalizeActions oldest-first.
func Chronological(teamOne, teamTwo []event.Event) []event.Event {
	sides := map[event.Team][]event.Event{
		event.TeamOne: prepare(teamOne),
		event.TeamTwo: prepare(teamTwo),
	}
	out := make([]event.Event, 0, len(sides[event.TeamOne])+len(sides[event.TeamTwo]))

	report := explain(sides)
	if report.Rule == RuleEmpty {
		return out
	}
	if report.Opening != nil {
		out = append(out, *report.Opening)
		sides[report.Opening.Team] = sides[report.Opening.Team][1:]
	}

	offense := report.Offense
	for len(sides[offense]) > 0 {
		e := sides[offense][0]
		sides[offense] = sides[offense][1:]
		out = append(out, e)
		if e.Type.IsTurnover() {
			offense = offense.Opponent()
		}
	}

	// Offense ran dry; whatever the other side still holds are trailing
	// administrative or late events.
	out = append(out, sides[offense.Opponent()]...)
	return out
}

// Explain reports which opening rule applies to the two streams.
func Explain(teamOne, teamTwo []event.Event) Report {
	return explain(map[event.Team][]event.Event{
		event.TeamOne: prepare(teamOne),
		event.TeamTwo: prepare(teamTwo),
	})
}

// explain checks, in order: pull by one, pull by two, drop by one, drop by
// two, then a lone initiating side, then the fallback.
func explain(sides map[event.Team][]event.Event) Report {
	one, two := sides[event.TeamOne], sides[event.TeamTwo]
	if len(one) == 0 && len(two) == 0 {
		return Report{Rule: RuleEmpty}
	}

	for _, opener := range []struct {
		typ  event.ActionType
		rule Rule
	}{{event.Pull, RulePull}, {event.Drop, RuleDrop}} {
		for _, team := range event.Teams {
			side := sides[team]
			if len(side) > 0 && side[0].Type == opener.typ {
				opening := side[0]
				return Report{Rule: opener.rule, Offense: team.Opponent(), Opening: &opening}
			}
		}
	}

	switch {
	case len(two) == 0:
		if one[0].Type.IsInitiating() {
			return Report{Rule: RuleInitiating, Offense: event.TeamOne}
		}
		return Report{Rule: RuleFallback, Offense: event.TeamOne}
	case len(one) == 0:
		if two[0].Type.IsInitiating() {
			return Report{Rule: RuleInitiating, Offense: event.TeamTwo}
		}
		return Report{Rule: RuleFallback, Offense: event.TeamTwo}
	}

	for _, team := range event.Teams {
		if sides[team][0].Type.IsInitiating() {
			return Report{Rule: RuleFallback, Offense: team}
		}
	}
	return Report{Rule: RuleFallback, Offense: event.TeamOne}
}

// prepare copies, sorts by seq and dedups (last occurrence wins), so callers
// may pass unsorted or repeated deliveries.
func prepare(events []event.Event) []event.Event {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b event.Event) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		default:
			return 0
		}
	})
	out := sorted[:0]
	for _, e := range sorted {
		if n := len(out); n > 0 && out[n-1].Seq == e.Seq {
			out[n-1] = e
			continue
		}
		out = append(out, e)
	}
	return out
}
