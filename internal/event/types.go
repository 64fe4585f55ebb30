package event

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Team identifies which statkeeper reported an event.
// The zero value is invalid.
type Team int

const (
	TeamOne Team = iota + 1
	TeamTwo
)

// Teams lists both teams in reconciliation check order.
var Teams = []Team{TeamOne, TeamTwo}

// Valid reports whether t is TeamOne or TeamTwo.
func (t Team) Valid() bool {
	return t == TeamOne || t == TeamTwo
}

// Opponent returns the other team.
func (t Team) Opponent() Team {
	switch t {
	case TeamOne:
		return TeamTwo
	case TeamTwo:
		return TeamOne
	default:
		return 0
	}
}

func (t Team) String() string {
	switch t {
	case TeamOne:
		return "one"
	case TeamTwo:
		return "two"
	default:
		return fmt.Sprintf("team(%d)", int(t))
	}
}

// ParseTeam accepts "one"/"two" and "1"/"2".
func ParseTeam(s string) (Team, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one", "1":
		return TeamOne, nil
	case "two", "2":
		return TeamTwo, nil
	default:
		return 0, fmt.Errorf("invalid team %q: must be one or two", s)
	}
}

func (t Team) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("marshal team: invalid value %d", int(t))
	}
	return json.Marshal(t.String())
}

func (t *Team) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal team: %w", err)
	}
	parsed, err := ParseTeam(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ActionType is the closed set of reportable actions.
// The zero value is invalid.
type ActionType int

const (
	Pull ActionType = iota + 1
	Catch
	Drop
	Throwaway
	Block
	Pickup
	TeamOneScore
	TeamTwoScore
	Timeout
	Substitution
	CallOnField
	Stall
)

var actionNames = map[ActionType]string{
	Pull:         "Pull",
	Catch:        "Catch",
	Drop:         "Drop",
	Throwaway:    "Throwaway",
	Block:        "Block",
	Pickup:       "Pickup",
	TeamOneScore: "TeamOneScore",
	TeamTwoScore: "TeamTwoScore",
	Timeout:      "Timeout",
	Substitution: "Substitution",
	CallOnField:  "CallOnField",
	Stall:        "Stall",
}

// AllActionTypes lists every action type in declaration order.
var AllActionTypes = []ActionType{
	Pull, Catch, Drop, Throwaway, Block, Pickup,
	TeamOneScore, TeamTwoScore, Timeout, Substitution, CallOnField, Stall,
}

// Valid reports whether a is one of the declared action types.
func (a ActionType) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

func (a ActionType) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("ActionType(%d)", int(a))
}

// ParseActionType resolves a canonical action name, ignoring case.
// "call_on_field" and "call-on-field" style spellings are accepted too.
func ParseActionType(s string) (ActionType, error) {
	key := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range AllActionTypes {
		if strings.ToLower(actionNames[a]) == key {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action type %q", s)
}

func (a ActionType) MarshalJSON() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("marshal action type: invalid value %d", int(a))
	}
	return json.Marshal(a.String())
}

func (a *ActionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal action type: %w", err)
	}
	parsed, err := ParseActionType(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Comment is a user note attached to an event.
// Seq orders comments within a single event.
type Comment struct {
	Seq  int64  `json:"seq"`
	Text string `json:"text"`
}

// Event is one reported action. Immutable once committed; tags and players
// may only be amended before commit by building a new value.
type Event struct {
	Team      Team       `json:"team"`
	Seq       int64      `json:"seq"`
	Type      ActionType `json:"action"`
	PlayerOne string     `json:"player_one,omitempty"`
	PlayerTwo string     `json:"player_two,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	Comments  []Comment  `json:"comments,omitempty"`
}

// Key identifies an event within a point.
type Key struct {
	Team Team
	Seq  int64
}

// Key returns the (team, seq) identity of e.
func (e Event) Key() Key {
	return Key{Team: e.Team, Seq: e.Seq}
}

func (e Event) String() string {
	if e.PlayerOne == "" {
		return fmt.Sprintf("%s(%s#%d)", e.Type, e.Team, e.Seq)
	}
	return fmt.Sprintf("%s(%s#%d %s)", e.Type, e.Team, e.Seq, e.PlayerOne)
}

// Clone returns a deep copy so callers can hand events across the session
// loop without sharing tag or comment backing arrays.
func (e Event) Clone() Event {
	out := e
	if e.Tags != nil {
		out.Tags = append([]string(nil), e.Tags...)
	}
	if e.Comments != nil {
		out.Comments = append([]Comment(nil), e.Comments...)
	}
	return out
}

// Intent is a statkeeper's request to record an action. It carries no
// sequence number; the authoritative side assigns one.
type Intent struct {
	Team      Team       `json:"team"`
	Type      ActionType `json:"action"`
	PlayerOne string     `json:"player_one,omitempty"`
	PlayerTwo string     `json:"player_two,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
}

// EventAt builds the committed event for this intent at seq.
func (in Intent) EventAt(seq int64) Event {
	return Event{
		Team:      in.Team,
		Seq:       seq,
		Type:      in.Type,
		PlayerOne: in.PlayerOne,
		PlayerTwo: in.PlayerTwo,
		Tags:      append([]string(nil), in.Tags...),
	}
}
