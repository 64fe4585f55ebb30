package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/ultistats/internal/event"
	"github.com/roach88/ultistats/internal/legality"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEntry // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nDeliveries:\n")
	for i, entry := range e.Trace {
		switch entry.Kind {
		case "action":
			fmt.Fprintf(&buf, "  [%d] %s#%d %s\n", i+1, entry.Team, entry.Seq, entry.Action)
		case "undo":
			fmt.Fprintf(&buf, "  [%d] %s#%d undo\n", i+1, entry.Team, entry.Seq)
		default:
			fmt.Fprintf(&buf, "  [%d] %s#%d %s: %s\n", i+1, entry.Team, entry.Seq, entry.Kind, entry.Error)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion of scenario against result and
// returns one message per failure.
func EvaluateAssertions(result *Result, scenario *Scenario, names legality.Names) []string {
	pulling, _ := event.ParseTeam(scenario.Pulling)

	var errs []string
	for i, a := range scenario.Assertions {
		var err error
		switch a.Type {
		case AssertOrder:
			err = assertOrder(result, a)
		case AssertRule:
			err = assertRule(result, a)
		case AssertPlayerActions:
			err = assertPlayerActions(result, a, pulling)
		case AssertTeamActions:
			err = assertTeamActions(result, a, pulling, names)
		case AssertTeamEvents:
			err = assertTeamEvents(result, a)
		case AssertEvent:
			err = assertEvent(result, a)
		case AssertScore:
			err = assertScore(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// eventKey is the "team#seq" form used in scenario files.
func eventKey(e event.Event) string {
	return fmt.Sprintf("%s#%d", e.Team, e.Seq)
}

func keys(events []event.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = eventKey(e)
	}
	return out
}

// assertOrder compares the chronological timeline against the expected keys.
func assertOrder(result *Result, a Assertion) error {
	got := keys(result.History)
	want := a.Events
	if want == nil {
		want = []string{}
	}
	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOrder,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    result.Trace,
	}
}

func assertRule(result *Result, a Assertion) error {
	if string(result.Rule) == a.Rule {
		return nil
	}
	return &AssertionError{
		Type:     AssertRule,
		Expected: a.Rule,
		Actual:   string(result.Rule),
		Trace:    result.Trace,
	}
}

// resolvePulling applies the assertion's override, else team == pulling.
func resolvePulling(a Assertion, team, pulling event.Team) bool {
	if a.Pulling != nil {
		return *a.Pulling
	}
	return team == pulling
}

func actionTypes(actions []legality.Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Type.String()
	}
	return out
}

// canonicalActions resolves expected names so "teamonescore" and
// "TeamOneScore" compare equal.
func canonicalActions(names []string) ([]string, error) {
	out := make([]string, len(names))
	for i, name := range names {
		typ, err := event.ParseActionType(name)
		if err != nil {
			return nil, err
		}
		out[i] = typ.String()
	}
	return out, nil
}

func compareActions(kind string, result *Result, got []legality.Action, expected []string) error {
	want, err := canonicalActions(expected)
	if err != nil {
		return err
	}
	have := actionTypes(got)
	if slices.Equal(have, want) {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", have),
		Trace:    result.Trace,
	}
}

func assertPlayerActions(result *Result, a Assertion, pulling event.Team) error {
	team, err := event.ParseTeam(a.Team)
	if err != nil {
		return err
	}
	got := legality.PlayerActions(team, a.Player, result.History, resolvePulling(a, team, pulling))
	return compareActions(AssertPlayerActions, result, got, a.Actions)
}

func assertTeamActions(result *Result, a Assertion, pulling event.Team, names legality.Names) error {
	team, err := event.ParseTeam(a.Team)
	if err != nil {
		return err
	}
	got := legality.TeamActions(team, result.History, resolvePulling(a, team, pulling), names)
	return compareActions(AssertTeamActions, result, got, a.Actions)
}

func assertTeamEvents(result *Result, a Assertion) error {
	team, err := event.ParseTeam(a.Team)
	if err != nil {
		return err
	}
	got := keys(result.Streams[team])
	want := a.Events
	if want == nil {
		want = []string{}
	}
	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTeamEvents,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    result.Trace,
	}
}

func assertEvent(result *Result, a Assertion) error {
	team, err := event.ParseTeam(a.Team)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(result.Streams[team], func(e event.Event) bool { return e.Seq == a.Seq })
	if idx < 0 {
		return &AssertionError{
			Type:     AssertEvent,
			Expected: fmt.Sprintf("event %s#%d", team, a.Seq),
			Actual:   "not found",
			Trace:    result.Trace,
		}
	}
	e := result.Streams[team][idx]

	if a.Action != "" {
		typ, err := event.ParseActionType(a.Action)
		if err != nil {
			return err
		}
		if e.Type != typ {
			return &AssertionError{
				Type:     AssertEvent,
				Expected: fmt.Sprintf("%s#%d action %s", team, a.Seq, typ),
				Actual:   e.Type.String(),
				Trace:    result.Trace,
			}
		}
	}

	want := event.NormalizeTags(a.Tags)
	got := event.NormalizeTags(e.Tags)
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     AssertEvent,
			Expected: fmt.Sprintf("%s#%d tags %v", team, a.Seq, want),
			Actual:   fmt.Sprintf("%v", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertScore(result *Result, a Assertion) error {
	if result.Score.TeamOne == a.Score.One && result.Score.TeamTwo == a.Score.Two {
		return nil
	}
	return &AssertionError{
		Type:     AssertScore,
		Expected: fmt.Sprintf("%d-%d", a.Score.One, a.Score.Two),
		Actual:   fmt.Sprintf("%d-%d", result.Score.TeamOne, result.Score.TeamTwo),
		Trace:    result.Trace,
	}
}
