package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ultistats/internal/engine"
	"github.com/roach88/ultistats/internal/event"
	"github.com/roach88/ultistats/internal/store"
)

func TestRecordResult_String(t *testing.T) {
	catch := event.Event{
		Team: event.TeamTwo, Seq: 2, Type: event.Catch, PlayerOne: "Bo",
		Tags:     []string{"huck"},
		Comments: []event.Comment{{Seq: 1, Text: "layout"}},
	}
	sub := event.Event{Team: event.TeamOne, Seq: 4, Type: event.Substitution, PlayerOne: "Ann", PlayerTwo: "Cy"}

	tests := []struct {
		name   string
		result RecordResult
		want   string
	}{
		{
			"recorded",
			RecordResult{PointID: "p1", Event: &catch, Score: store.Score{TeamOne: 3, TeamTwo: 2}},
			"Catch(two#2 Bo) #huck [1: layout] on point p1 (3-2)",
		},
		{
			"substitution names both players",
			RecordResult{PointID: "p1", Event: &sub},
			"Substitution(one#4 Ann) with Cy on point p1 (0-0)",
		},
		{
			"removed",
			RecordResult{PointID: "p2", Removed: &Removed{Team: event.TeamOne, Seq: 7}, Score: store.Score{TeamOne: 1}},
			"Removed one#7 from point p2 (1-0)",
		},
		{
			"empty undo",
			RecordResult{PointID: "p3"},
			"Nothing to undo on point p3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.String())
		})
	}
}

func TestOutputFormatter_TextUsesStringer(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success(PointResult{
		Previous: "p1",
		Point:    store.Point{ID: "p2", Ordinal: 2, Pulling: event.TeamTwo, Score: store.Score{TeamOne: 1}},
	}))
	assert.Equal(t, "Point #2 p2 started (1-0), two pulling\n", buf.String())
}

func TestOutputFormatter_JSONLines(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(RecordResult{PointID: "p1", Removed: &Removed{Team: event.TeamTwo, Seq: 3}}))
	require.NoError(t, f.Error("E_NETWORK", "relay unreachable", map[string]string{"point": "p1"}))

	// Each response is one line so watch output can be consumed as a stream.
	var lines []CLIResponse
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var resp CLIResponse
		require.NoError(t, json.Unmarshal(sc.Bytes(), &resp), sc.Text())
		lines = append(lines, resp)
	}
	require.Len(t, lines, 2)

	assert.Equal(t, "ok", lines[0].Status)
	assert.Nil(t, lines[0].Error)
	data, ok := lines[0].Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "p1", data["point_id"])
	assert.Contains(t, data, "removed")

	assert.Equal(t, "error", lines[1].Status)
	require.NotNil(t, lines[1].Error)
	assert.Equal(t, "E_NETWORK", lines[1].Error.Code)
	assert.Equal(t, "relay unreachable", lines[1].Error.Message)
	assert.Equal(t, map[string]any{"point": "p1"}, lines[1].Error.Details)
}

func TestOutputFormatter_TextErrorDetails(t *testing.T) {
	for _, verbose := range []bool{false, true} {
		t.Run(fmt.Sprintf("verbose=%v", verbose), func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: "text", Writer: buf, Verbose: verbose}

			require.NoError(t, f.Error("E_MALFORMED", "unknown action", "Hammerhead"))
			assert.Contains(t, buf.String(), "Error [E_MALFORMED]: unknown action")
			if verbose {
				assert.Contains(t, buf.String(), "Details: Hammerhead")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLogGoesToErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	f.VerboseLog("replayed %d events for point %s", 4, "p1")
	assert.Empty(t, out.String(), "json stdout stays parseable")
	assert.Equal(t, "replayed 4 events for point p1\n", errOut.String())

	quiet := &OutputFormatter{Format: "text", Writer: out}
	quiet.VerboseLog("not shown")
	assert.Empty(t, out.String())

	fallback := &OutputFormatter{Format: "text", Writer: out, Verbose: true}
	fallback.VerboseLog("shown")
	assert.Equal(t, "shown\n", out.String())
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing game", fmt.Errorf("read game g9: %w", store.ErrNotFound), "E_NOT_FOUND"},
		{"bad intent", &event.ValidationError{Code: event.ErrCodeUnknownAction, Field: "action"}, "E_MALFORMED"},
		{"rejected by session", &engine.SessionError{Code: engine.ErrCodeMalformedEvent}, "E_MALFORMED"},
		{"relay down", &engine.SessionError{Code: engine.ErrCodeNetwork, Err: errors.New("dial refused")}, "E_NETWORK"},
		{"bad arguments", NewExitError(ExitCommandError, "game g1 is online"), "E_COMMAND"},
		{"store failure", &engine.SessionError{Code: engine.ErrCodeStore}, "E_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCode(tt.err))
		})
	}
}

func TestExitError(t *testing.T) {
	base := errors.New("disk gone")
	err := WrapExitError(ExitCommandError, "failed to open database", base)

	assert.Equal(t, "failed to open database: disk gone", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, ExitFailure, GetExitCode(base))
	assert.False(t, isReported(err))
	assert.True(t, isReported(&ExitError{Code: ExitFailure, Reported: true}))
}
