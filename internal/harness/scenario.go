package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ultistats/internal/event"
)

// Scenario defines a reconciliation scenario: what each statkeeper reported,
// the order the reports reached a device, and what the device must show.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Teams holds display names used in team-level labels.
	Teams Teams `yaml:"teams,omitempty"`

	// Pulling is the team pulling at the start of the point ("one" or "two").
	Pulling string `yaml:"pulling"`

	// Streams holds each team's reports in the order they were sent.
	// Keys are "one" and "two".
	Streams map[string][]StreamEntry `yaml:"streams"`

	// Arrival interleaves the two streams: each element names the team whose
	// next report arrives. Reports not named are delivered afterwards, team
	// one first. Empty means team one's stream, then team two's.
	Arrival []string `yaml:"arrival,omitempty"`

	// Assertions validate the device's final view.
	Assertions []Assertion `yaml:"assertions"`
}

// Teams holds the two display names.
type Teams struct {
	One string `yaml:"one"`
	Two string `yaml:"two"`
}

// StreamEntry is one report from a statkeeper: either an event or, with
// Undo set, the removal of the event at Seq.
type StreamEntry struct {
	Seq       int64    `yaml:"seq"`
	Action    string   `yaml:"action,omitempty"`
	PlayerOne string   `yaml:"player_one,omitempty"`
	PlayerTwo string   `yaml:"player_two,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
	Undo      bool     `yaml:"undo,omitempty"`
}

// Assertion validates the final view.
type Assertion struct {
	// Type specifies the assertion type:
	// - "order": chronological timeline keys, e.g. "one#1"
	// - "rule": the opening rule that fired
	// - "player_actions": legal action types for Player on Team
	// - "team_actions": legal team-level action types for Team
	// - "team_events": the keys held for Team, in seq order
	// - "event": one event's action and tags
	// - "score": the cumulative score
	Type string `yaml:"type"`

	// Events lists event keys (used by order, team_events).
	Events []string `yaml:"events,omitempty"`

	// Rule is the expected opening rule (used by rule).
	Rule string `yaml:"rule,omitempty"`

	// Team is the team under test (used by player_actions, team_actions,
	// team_events, event).
	Team string `yaml:"team,omitempty"`

	// Player is the player under test (used by player_actions).
	Player string `yaml:"player,omitempty"`

	// Pulling overrides whether Team is the pulling team. Defaults to
	// Team == Scenario.Pulling.
	Pulling *bool `yaml:"pulling,omitempty"`

	// Actions lists the expected action type names, in order (used by
	// player_actions, team_actions).
	Actions []string `yaml:"actions,omitempty"`

	// Seq selects an event (used by event).
	Seq int64 `yaml:"seq,omitempty"`

	// Action is the expected action name (used by event; optional).
	Action string `yaml:"action,omitempty"`

	// Tags are the expected normalized tags (used by event).
	Tags []string `yaml:"tags,omitempty"`

	// Score is the expected cumulative score (used by score).
	Score *ScoreClause `yaml:"score,omitempty"`
}

// ScoreClause is the expected cumulative score.
type ScoreClause struct {
	One int `yaml:"one"`
	Two int `yaml:"two"`
}

// Assertion type constants.
const (
	AssertOrder         = "order"
	AssertRule          = "rule"
	AssertPlayerActions = "player_actions"
	AssertTeamActions   = "team_actions"
	AssertTeamEvents    = "team_events"
	AssertEvent         = "event"
	AssertScore         = "score"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios lists the .yaml/.yml files under dir whose base name
// matches filter (a filepath.Match pattern; empty matches everything).
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			ok, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := event.ParseTeam(s.Pulling); err != nil {
		return fmt.Errorf("pulling: %w", err)
	}
	if len(s.Streams) == 0 {
		return fmt.Errorf("streams are required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for key, entries := range s.Streams {
		if _, err := event.ParseTeam(key); err != nil {
			return fmt.Errorf("streams: %w", err)
		}
		for i, entry := range entries {
			if entry.Seq <= 0 {
				return fmt.Errorf("streams.%s[%d]: seq must be positive", key, i)
			}
			if entry.Undo {
				continue
			}
			if _, err := event.ParseActionType(entry.Action); err != nil {
				return fmt.Errorf("streams.%s[%d]: %w", key, i, err)
			}
		}
	}

	remaining := map[string]int{}
	for key, entries := range s.Streams {
		team, _ := event.ParseTeam(key)
		remaining[team.String()] = len(entries)
	}
	for i, key := range s.Arrival {
		team, err := event.ParseTeam(key)
		if err != nil {
			return fmt.Errorf("arrival[%d]: %w", i, err)
		}
		if remaining[team.String()] == 0 {
			return fmt.Errorf("arrival[%d]: no report left for team %s", i, team)
		}
		remaining[team.String()]--
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needTeam := func() error {
		if _, err := event.ParseTeam(a.Team); err != nil {
			return fmt.Errorf("assertions[%d]: %s needs a team: %w", index, a.Type, err)
		}
		return nil
	}

	switch a.Type {
	case AssertOrder:
		return nil
	case AssertRule:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for rule", index)
		}
	case AssertPlayerActions:
		if err := needTeam(); err != nil {
			return err
		}
		if a.Player == "" {
			return fmt.Errorf("assertions[%d]: player is required for player_actions", index)
		}
	case AssertTeamActions, AssertTeamEvents:
		return needTeam()
	case AssertEvent:
		if err := needTeam(); err != nil {
			return err
		}
		if a.Seq <= 0 {
			return fmt.Errorf("assertions[%d]: seq is required for event", index)
		}
	case AssertScore:
		if a.Score == nil {
			return fmt.Errorf("assertions[%d]: score is required for score", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
