package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ultistats/internal/event"
)

func TestSessionError_Helpers(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("emit: %w", newNetworkError("p1", "send action", cause))

	assert.True(t, IsNetworkError(err))
	assert.False(t, IsMalformedError(err))
	assert.False(t, IsClosedError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "NETWORK_FAILURE")
	assert.Contains(t, err.Error(), "point=p1")
}

func TestSessionError_MalformedUnwrapsValidation(t *testing.T) {
	err := newMalformedError(event.Intent{Team: event.TeamOne, Type: event.Catch}.Validate())

	assert.True(t, IsMalformedError(err))
	assert.True(t, event.IsValidationError(err))
}

func TestSessionError_Closed(t *testing.T) {
	assert.True(t, IsClosedError(errClosed))
	assert.Equal(t, "SESSION_CLOSED: session is stopped", errClosed.Error())
}
