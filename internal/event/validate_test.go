package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		wantCode ValidationErrorCode
	}{
		{"valid catch", Event{Team: TeamOne, Seq: 1, Type: Catch, PlayerOne: "A"}, ""},
		{"valid timeout without player", Event{Team: TeamTwo, Seq: 4, Type: Timeout}, ""},
		{"valid score without player", Event{Team: TeamTwo, Seq: 4, Type: TeamTwoScore}, ""},
		{"zero team", Event{Seq: 1, Type: Catch, PlayerOne: "A"}, ErrCodeInvalidTeam},
		{"unknown action", Event{Team: TeamOne, Seq: 1, Type: ActionType(42), PlayerOne: "A"}, ErrCodeUnknownAction},
		{"zero seq", Event{Team: TeamOne, Type: Pull, PlayerOne: "A"}, ErrCodeInvalidSeq},
		{"catch without player", Event{Team: TeamOne, Seq: 1, Type: Catch}, ErrCodeMissingPlayer},
		{"blank player", Event{Team: TeamOne, Seq: 1, Type: Block, PlayerOne: "   "}, ErrCodeMissingPlayer},
		{"substitution without incoming", Event{Team: TeamOne, Seq: 2, Type: Substitution, PlayerOne: "Y"}, ErrCodeMissingPlayer},
		{"repeated comment seq", Event{Team: TeamOne, Seq: 2, Type: Timeout, Comments: []Comment{{Seq: 1}, {Seq: 1}}}, ErrCodeInvalidComment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "want *ValidationError, got %v", err)
			assert.Equal(t, tt.wantCode, ve.Code)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestIntent_ValidateIgnoresSeq(t *testing.T) {
	assert.NoError(t, Intent{Team: TeamOne, Type: Pull, PlayerOne: "A"}.Validate())
	assert.Error(t, Intent{Team: TeamOne, Type: Pull}.Validate())
}

func TestNormalizeTags(t *testing.T) {
	assert.Nil(t, NormalizeTags(nil))
	assert.Nil(t, NormalizeTags([]string{" ", ""}))
	assert.Equal(t, []string{"break", "huck"}, NormalizeTags([]string{"huck", " break", "huck "}))
}

func TestEvent_NormalizeNFC(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	e := Event{Team: TeamOne, Seq: 1, Type: Catch, PlayerOne: "Rene\u0301 ", Comments: []Comment{{Seq: 1, Text: " cafe\u0301"}}}
	n := e.Normalize()

	assert.Equal(t, "Ren\u00e9", n.PlayerOne)
	assert.Equal(t, "caf\u00e9", n.Comments[0].Text)
	assert.Equal(t, "Rene\u0301 ", e.PlayerOne, "original must be untouched")
}
