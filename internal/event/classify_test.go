package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification_PartitionsEveryType(t *testing.T) {
	for _, a := range AllActionTypes {
		classes := 0
		for _, in := range []bool{a.IsScore(), a.IsTurnover(), a.IsPossessionRetaining(), a.IsAdministrative()} {
			if in {
				classes++
			}
		}
		assert.Equal(t, 1, classes, "%s must belong to exactly one class", a)
	}
}

func TestClassification_Turnovers(t *testing.T) {
	for _, a := range []ActionType{Pull, Drop, Throwaway, Stall} {
		assert.True(t, a.IsTurnover(), a.String())
		assert.True(t, a.IsPossessionDetermining(), a.String())
	}
	for _, a := range []ActionType{Catch, Pickup, Block} {
		assert.False(t, a.IsTurnover(), a.String())
		assert.True(t, a.IsPossessionRetaining(), a.String())
	}
}

func TestClassification_Administrative(t *testing.T) {
	for _, a := range []ActionType{Timeout, CallOnField, Substitution} {
		assert.True(t, a.IsAdministrative(), a.String())
		assert.False(t, a.IsPossessionDetermining(), a.String())
	}
}

func TestClassification_InvalidTypeBelongsNowhere(t *testing.T) {
	a := ActionType(99)
	assert.False(t, a.Valid())
	assert.False(t, a.IsScore())
	assert.False(t, a.IsTurnover())
	assert.False(t, a.IsPossessionRetaining())
	assert.False(t, a.IsAdministrative())
	assert.False(t, a.IsPossessionDetermining())
}

func TestScoreFor(t *testing.T) {
	assert.Equal(t, TeamOneScore, ScoreFor(TeamOne))
	assert.Equal(t, TeamTwoScore, ScoreFor(TeamTwo))

	team, ok := TeamTwoScore.Scorer()
	assert.True(t, ok)
	assert.Equal(t, TeamTwo, team)

	_, ok = Catch.Scorer()
	assert.False(t, ok)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Call on field", CallOnField.Label())
	assert.Equal(t, "Team Two scores", TeamTwoScore.Label())
	for _, a := range AllActionTypes {
		assert.NotEmpty(t, a.Label())
	}
}
