package engine

import (
	"fmt"

	"github.com/roach88/ultistats/internal/event"
	"github.com/roach88/ultistats/internal/store"
)

// MessageKind distinguishes the inbound notifications a session applies.
type MessageKind int

const (
	// MessageAction carries a committed event ("event received").
	MessageAction MessageKind = iota + 1
	// MessageUndo removes (Team, Seq) from the working view ("undo received").
	MessageUndo
	// MessageError reports a failure; it never changes state ("error received").
	MessageError
	// MessagePointAdvanced clears the working view for NextPointID
	// ("point-advanced received").
	MessagePointAdvanced
)

var messageKindNames = map[MessageKind]string{
	MessageAction:        "action",
	MessageUndo:          "undo",
	MessageError:         "error",
	MessagePointAdvanced: "point_advanced",
}

func (k MessageKind) String() string {
	if name, ok := messageKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("MessageKind(%d)", int(k))
}

// Message is one unit of work for the session loop.
type Message struct {
	Kind    MessageKind
	PointID string

	// Event is set for MessageAction.
	Event *event.Event

	// Team and Seq identify the removed event for MessageUndo.
	Team event.Team
	Seq  int64

	// Error is the human-readable failure for MessageError.
	Error string

	// NextPointID and Pulling describe the new point for MessagePointAdvanced.
	NextPointID string
	Pulling     event.Team

	// persisted marks offline echoes whose store write already happened.
	persisted bool
	score     *store.Score
}

// validate rejects malformed messages before they reach the queue.
func (m Message) validate() error {
	switch m.Kind {
	case MessageAction:
		if m.Event == nil {
			return fmt.Errorf("action message without event")
		}
		return m.Event.Validate()
	case MessageUndo:
		if !m.Team.Valid() {
			return &event.ValidationError{
				Code:    event.ErrCodeInvalidTeam,
				Field:   "team",
				Message: fmt.Sprintf("undo for invalid team %d", int(m.Team)),
			}
		}
		if m.Seq <= 0 {
			return &event.ValidationError{
				Code:    event.ErrCodeInvalidSeq,
				Field:   "seq",
				Message: fmt.Sprintf("undo for non-positive seq %d", m.Seq),
			}
		}
		return nil
	case MessageError:
		return nil
	case MessagePointAdvanced:
		if m.NextPointID == "" {
			return fmt.Errorf("point advance without next point id")
		}
		if !m.Pulling.Valid() {
			return &event.ValidationError{
				Code:    event.ErrCodeInvalidTeam,
				Field:   "pulling",
				Message: fmt.Sprintf("point advance with invalid pulling team %d", int(m.Pulling)),
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown message kind: %d", int(m.Kind))
	}
}

// Update is what listeners observe after the loop applies a message.
type Update struct {
	// Revision is the loop's logical clock value for this update.
	Revision int64
	Message  Message
	PointID  string
	Score    store.Score
	// Timeline is the reconciled, newest-first view after the message.
	Timeline []event.Event
}

// Listener receives every applied Update on the loop goroutine.
// Implementations must not block.
type Listener func(Update)
