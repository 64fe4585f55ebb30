// Package stack holds the per-team event store for one point.
//
// The stack is a last-writer-wins replicated log: two maps keyed by sequence
// number, one per team. Upsert and RemoveLast are idempotent so network
// retries and offline replay can be applied blindly.
//
// Mutation is expected from a single owner (the engine session loop). The
// read lock only guarantees that readers on other goroutines see a consistent
// snapshot; it does not order writers.
package stack

import (
	"slices"
	"sync"

	"github.com/roach88/ultistats/internal/event"
)

// Stack is the Action Stack for one point.
type Stack struct {
	mu    sync.RWMutex
	teams map[event.Team]map[int64]event.Event
}

// New creates an empty stack.
func New() *Stack {
	return &Stack{teams: newTeamMaps()}
}

func newTeamMaps() map[event.Team]map[int64]event.Event {
	return map[event.Team]map[int64]event.Event{
		event.TeamOne: {},
		event.TeamTwo: {},
	}
}

// Upsert inserts or replaces the event at (e.Team, e.Seq).
// Events for an invalid team are ignored; validation belongs at the boundary.
func (s *Stack) Upsert(e event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.teams[e.Team]
	if !ok {
		return
	}
	m[e.Seq] = e.Clone()
}

// RemoveLast deletes the event at exactly (team, seq). Absent keys are a
// no-op so a retried undo message is harmless.
func (s *Stack) RemoveLast(team event.Team, seq int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.teams[team]; ok {
		delete(m, seq)
	}
}

// TeamEvents returns the team's events ascending by sequence number.
// The slice and its events are fresh copies.
func (s *Stack) TeamEvents(team event.Team) []event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.teams[team]
	out := make([]event.Event, 0, len(m))
	for _, seq := range sortedSeqs(m) {
		out = append(out, m[seq].Clone())
	}
	return out
}

// Last returns the highest-numbered event for team.
func (s *Stack) Last(team event.Team) (event.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.teams[team]
	if len(m) == 0 {
		return event.Event{}, false
	}
	return m[slices.Max(sortedSeqs(m))].Clone(), true
}

// Len returns the number of events across both teams.
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.teams {
		n += len(m)
	}
	return n
}

// Reset clears both teams. Used on the next-point transition.
func (s *Stack) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams = newTeamMaps()
}

// sortedSeqs returns the sequence numbers of m in ascending order.
func sortedSeqs(m map[int64]event.Event) []int64 {
	seqs := make([]int64, 0, len(m))
	for seq := range m {
		seqs = append(seqs, seq)
	}
	slices.Sort(seqs)
	return seqs
}
