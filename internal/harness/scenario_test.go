package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "One pull"
pulling: one
streams:
  one:
    - { seq: 1, action: Pull, player_one: Ann }
assertions:
  - type: order
    events: ["one#1"]
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "minimal.yaml", minimalScenario)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", scenario.Name)
	assert.Equal(t, "one", scenario.Pulling)
	require.Len(t, scenario.Streams["one"], 1)
	assert.Equal(t, "Pull", scenario.Streams["one"][0].Action)
	assert.Equal(t, "Ann", scenario.Streams["one"][0].PlayerOne)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, []string{"one#1"}, scenario.Assertions[0].Events)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: x\npulling: one\nstreams: {one: [{seq: 1, action: Pull, player_one: A}]}\nassertions: [{type: order}]\n",
			wantErr: "name is required",
		},
		{
			name:    "bad pulling",
			yaml:    "name: x\ndescription: x\npulling: three\nstreams: {one: [{seq: 1, action: Pull, player_one: A}]}\nassertions: [{type: order}]\n",
			wantErr: "pulling",
		},
		{
			name:    "no streams",
			yaml:    "name: x\ndescription: x\npulling: one\nassertions: [{type: order}]\n",
			wantErr: "streams are required",
		},
		{
			name:    "bad stream key",
			yaml:    "name: x\ndescription: x\npulling: one\nstreams: {red: [{seq: 1, action: Pull, player_one: A}]}\nassertions: [{type: order}]\n",
			wantErr: "streams",
		},
		{
			name:    "zero seq",
			yaml:    "name: x\ndescription: x\npulling: one\nstreams: {one: [{seq: 0, action: Pull, player_one: A}]}\nassertions: [{type: order}]\n",
			wantErr: "seq must be positive",
		},
		{
			name:    "unknown action",
			yaml:    "name: x\ndescription: x\npulling: one\nstreams: {one: [{seq: 1, action: Hammer}]}\nassertions: [{type: order}]\n",
			wantErr: "streams.one[0]",
		},
		{
			name:    "arrival overruns stream",
			yaml:    "name: x\ndescription: x\npulling: one\nstreams: {one: [{seq: 1, action: Pull, player_one: A}]}\narrival: [one, one]\nassertions: [{type: order}]\n",
			wantErr: "no report left",
		},
		{
			name:    "no assertions",
			yaml:    "name: x\ndescription: x\npulling: one\nstreams: {one: [{seq: 1, action: Pull, player_one: A}]}\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: x\npulling: one\nstreams: {one: [{seq: 1, action: Pull, player_one: A}]}\nassertions: [{type: vibes}]\n",
			wantErr: "unknown assertion type",
		},
		{
			name:    "player_actions without player",
			yaml:    "name: x\ndescription: x\npulling: one\nstreams: {one: [{seq: 1, action: Pull, player_one: A}]}\nassertions: [{type: player_actions, team: one}]\n",
			wantErr: "player is required",
		},
		{
			name:    "event without seq",
			yaml:    "name: x\ndescription: x\npulling: one\nstreams: {one: [{seq: 1, action: Pull, player_one: A}]}\nassertions: [{type: event, team: one}]\n",
			wantErr: "seq is required",
		},
		{
			name:    "score without score",
			yaml:    "name: x\ndescription: x\npulling: one\nstreams: {one: [{seq: 1, action: Pull, player_one: A}]}\nassertions: [{type: score}]\n",
			wantErr: "score is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_UndoNeedsNoAction(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: undo
description: "undo"
pulling: one
streams:
  one:
    - { seq: 1, action: Pull, player_one: Ann }
    - { seq: 1, undo: true }
assertions:
  - type: order
`))
	require.NoError(t, err)
	assert.True(t, scenario.Streams["one"][1].Undo)
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pull_a.yaml", minimalScenario)
	writeScenario(t, dir, "pull_b.yml", minimalScenario)
	writeScenario(t, dir, "drop.yaml", minimalScenario)
	writeScenario(t, dir, "notes.txt", "ignored")

	all, err := FindScenarios(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pulls, err := FindScenarios(dir, "pull_*")
	require.NoError(t, err)
	assert.Len(t, pulls, 2)

	_, err = FindScenarios(dir, "[")
	assert.Error(t, err)
}
