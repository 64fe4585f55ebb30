package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ultistats/internal/event"
)

// Snapshot renders the part of a result that golden files pin: the opening
// rule, the score and the timeline (most recent first), as canonical JSON.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	timeline := make([]any, len(result.Timeline))
	for i, e := range result.Timeline {
		timeline[i] = e
	}
	return event.MarshalCanonical(map[string]any{
		"scenario": scenarioName,
		"rule":     string(result.Rule),
		"score": map[string]any{
			"one": result.Score.TeamOne,
			"two": result.Score.TeamTwo,
		},
		"timeline": timeline,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already-computed result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
