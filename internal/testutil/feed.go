package testutil

import (
	"sync"

	"github.com/roach88/ultistats/internal/event"
)

// Feed builds one team's event stream with sequence numbers assigned the way
// a statkeeper's device would: 1, 2, 3, ...
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Feed struct {
	mu   sync.Mutex
	team event.Team
	seq  int64
}

// NewFeed creates a feed for team. The first event gets seq 1.
func NewFeed(team event.Team) *Feed {
	return &Feed{team: team}
}

// Next builds the next event. players are PlayerOne then PlayerTwo.
func (f *Feed) Next(typ event.ActionType, players ...string) event.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return Ev(f.team, f.seq, typ, players...)
}

// Current returns the last assigned seq without incrementing.
func (f *Feed) Current() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq
}

// Reset restarts numbering, e.g. for a new point.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq = 0
}

// Ev builds a single event.
func Ev(team event.Team, seq int64, typ event.ActionType, players ...string) event.Event {
	e := event.Event{Team: team, Seq: seq, Type: typ}
	if len(players) > 0 {
		e.PlayerOne = players[0]
	}
	if len(players) > 1 {
		e.PlayerTwo = players[1]
	}
	return e
}

// Intent builds a statkeeper intent.
func Intent(team event.Team, typ event.ActionType, players ...string) event.Intent {
	in := event.Intent{Team: team, Type: typ}
	if len(players) > 0 {
		in.PlayerOne = players[0]
	}
	if len(players) > 1 {
		in.PlayerTwo = players[1]
	}
	return in
}
