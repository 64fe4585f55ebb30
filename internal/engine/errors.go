package engine

import (
	"errors"
	"fmt"
)

// SessionError represents an error surfaced by a Session operation.
//
// Session errors include:
//   - Malformed event: rejected at the boundary, never applied
//   - Network failure: the transport could not send an intent
//   - Store failure: the local persisted store rejected a write
//   - Session closed: the loop has stopped
type SessionError struct {
	// Code identifies the error category.
	Code SessionErrorCode

	// Message is a human-readable description.
	Message string

	// PointID identifies the affected point, if any.
	PointID string

	// Err is the underlying cause.
	Err error
}

// SessionErrorCode categorizes session errors.
type SessionErrorCode string

const (
	ErrCodeMalformedEvent SessionErrorCode = "MALFORMED_EVENT"
	ErrCodeNetwork        SessionErrorCode = "NETWORK_FAILURE"
	ErrCodeStore          SessionErrorCode = "STORE_FAILURE"
	ErrCodeClosed         SessionErrorCode = "SESSION_CLOSED"
)

// Error implements the error interface.
func (e *SessionError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.PointID != "" {
		msg += fmt.Sprintf(" (point=%s)", e.PointID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is a transport failure.
// Uses errors.As to handle wrapped errors.
func IsNetworkError(err error) bool {
	return hasCode(err, ErrCodeNetwork)
}

// IsMalformedError reports whether err is a boundary validation failure.
func IsMalformedError(err error) bool {
	return hasCode(err, ErrCodeMalformedEvent)
}

// IsClosedError reports whether err came from a stopped session.
func IsClosedError(err error) bool {
	return hasCode(err, ErrCodeClosed)
}

func hasCode(err error, code SessionErrorCode) bool {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func newMalformedError(err error) *SessionError {
	return &SessionError{Code: ErrCodeMalformedEvent, Message: "rejected at boundary", Err: err}
}

func newNetworkError(pointID, op string, err error) *SessionError {
	return &SessionError{Code: ErrCodeNetwork, Message: op + " failed", PointID: pointID, Err: err}
}

func newStoreError(pointID, op string, err error) *SessionError {
	return &SessionError{Code: ErrCodeStore, Message: op + " failed", PointID: pointID, Err: err}
}

var errClosed = &SessionError{Code: ErrCodeClosed, Message: "session is stopped"}
