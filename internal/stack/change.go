package stack

import "github.com/roach88/ultistats/internal/event"

// ChangeKind distinguishes stack mutations.
type ChangeKind int

const (
	ChangeUpsert ChangeKind = iota + 1
	ChangeRemove
	ChangeReset
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeUpsert:
		return "upsert"
	case ChangeRemove:
		return "remove"
	case ChangeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Change is a stack mutation as a value. The network-receive path and the
// local-echo path both produce Changes so they funnel through Apply.
type Change struct {
	Kind  ChangeKind
	Event event.Event // ChangeUpsert
	Team  event.Team  // ChangeRemove
	Seq   int64       // ChangeRemove
}

// UpsertChange builds an upsert.
func UpsertChange(e event.Event) Change {
	return Change{Kind: ChangeUpsert, Event: e}
}

// RemoveChange builds a removal of (team, seq).
func RemoveChange(team event.Team, seq int64) Change {
	return Change{Kind: ChangeRemove, Team: team, Seq: seq}
}

// Apply performs c. Unknown kinds are ignored.
func (s *Stack) Apply(c Change) {
	switch c.Kind {
	case ChangeUpsert:
		s.Upsert(c.Event)
	case ChangeRemove:
		s.RemoveLast(c.Team, c.Seq)
	case ChangeReset:
		s.Reset()
	}
}
