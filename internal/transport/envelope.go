package transport

import (
	"fmt"

	"github.com/roach88/ultistats/internal/engine"
	"github.com/roach88/ultistats/internal/event"
)

// Kind names an envelope's purpose.
type Kind string

const (
	// KindAction carries an Intent (device to relay) or an Event (relay to device).
	KindAction Kind = "action"
	// KindUndo asks the relay to remove Team's last event, or reports the
	// removed (Team, Seq).
	KindUndo Kind = "undo"
	// KindNextPoint asks the relay to end PointID with Pulling pulling next.
	KindNextPoint Kind = "next_point"
	// KindPointAdvanced reports the new point.
	KindPointAdvanced Kind = "point_advanced"
	// KindComment attaches Comment to (Team, Seq).
	KindComment Kind = "comment"
	// KindError reports a rejected request to its sender.
	KindError Kind = "error"
)

// Envelope is the single wire message shape in both directions.
type Envelope struct {
	Kind        Kind          `json:"kind"`
	GameID      string        `json:"game_id,omitempty"`
	PointID     string        `json:"point_id,omitempty"`
	Team        event.Team    `json:"team,omitempty"`
	Seq         int64         `json:"seq,omitempty"`
	Event       *event.Event  `json:"event,omitempty"`
	Intent      *event.Intent `json:"intent,omitempty"`
	Pulling     event.Team    `json:"pulling,omitempty"`
	NextPointID string        `json:"next_point_id,omitempty"`
	Comment     string        `json:"comment,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Message converts a relay-to-device envelope into the session's inbound
// message. Device-to-relay kinds are rejected.
func (e Envelope) Message() (engine.Message, error) {
	switch e.Kind {
	case KindAction:
		if e.Event == nil {
			return engine.Message{}, fmt.Errorf("action envelope without event")
		}
		ev := *e.Event
		return engine.Message{Kind: engine.MessageAction, PointID: e.PointID, Event: &ev}, nil
	case KindUndo:
		return engine.Message{Kind: engine.MessageUndo, PointID: e.PointID, Team: e.Team, Seq: e.Seq}, nil
	case KindPointAdvanced:
		return engine.Message{
			Kind:        engine.MessagePointAdvanced,
			PointID:     e.PointID,
			NextPointID: e.NextPointID,
			Pulling:     e.Pulling,
		}, nil
	case KindError:
		return engine.Message{Kind: engine.MessageError, PointID: e.PointID, Error: e.Error}, nil
	default:
		return engine.Message{}, fmt.Errorf("unexpected envelope kind %q from relay", e.Kind)
	}
}

func errorEnvelope(gameID, pointID string, err error) Envelope {
	return Envelope{Kind: KindError, GameID: gameID, PointID: pointID, Error: err.Error()}
}
