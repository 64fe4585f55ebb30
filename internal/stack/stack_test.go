package stack

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ultistats/internal/event"
)

func ev(team event.Team, seq int64, typ event.ActionType, player string) event.Event {
	return event.Event{Team: team, Seq: seq, Type: typ, PlayerOne: player}
}

func TestStack_TeamEventsSortedBySeq(t *testing.T) {
	s := New()
	s.Upsert(ev(event.TeamOne, 3, event.Throwaway, "A"))
	s.Upsert(ev(event.TeamOne, 1, event.Catch, "A"))
	s.Upsert(ev(event.TeamOne, 2, event.Catch, "B"))
	s.Upsert(ev(event.TeamTwo, 1, event.Pull, "Z"))

	got := s.TeamEvents(event.TeamOne)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{got[0].Seq, got[1].Seq, got[2].Seq})
	assert.Len(t, s.TeamEvents(event.TeamTwo), 1)
	assert.Equal(t, 4, s.Len())
}

func TestStack_UpsertIsIdempotent(t *testing.T) {
	s := New()
	e := ev(event.TeamOne, 1, event.Pull, "A")

	s.Upsert(e)
	once := s.TeamEvents(event.TeamOne)
	s.Upsert(e)
	twice := s.TeamEvents(event.TeamOne)

	assert.Equal(t, once, twice)
}

func TestStack_UpsertReplacesSameKey(t *testing.T) {
	s := New()
	first := ev(event.TeamOne, 5, event.Catch, "A")
	first.Tags = []string{"huck"}
	second := ev(event.TeamOne, 5, event.Catch, "A")
	second.Tags = []string{"break", "flick"}

	s.Upsert(first)
	s.Upsert(second)

	got := s.TeamEvents(event.TeamOne)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].Seq)
	assert.Equal(t, []string{"break", "flick"}, got[0].Tags)
}

func TestStack_RemoveLastRestoresPriorView(t *testing.T) {
	s := New()
	s.Upsert(ev(event.TeamTwo, 1, event.Catch, "A"))
	before := s.TeamEvents(event.TeamTwo)

	e := ev(event.TeamTwo, 2, event.Catch, "B")
	s.Upsert(e)
	s.RemoveLast(e.Team, e.Seq)

	assert.Equal(t, before, s.TeamEvents(event.TeamTwo))
}

func TestStack_RemoveAbsentKeyIsNoop(t *testing.T) {
	s := New()
	s.Upsert(ev(event.TeamOne, 1, event.Pull, "A"))

	s.RemoveLast(event.TeamOne, 9)
	s.RemoveLast(event.TeamTwo, 1)
	s.RemoveLast(event.Team(0), 1)

	assert.Equal(t, 1, s.Len())
}

func TestStack_InvalidTeamIgnored(t *testing.T) {
	s := New()
	s.Upsert(ev(event.Team(7), 1, event.Pull, "A"))
	assert.Equal(t, 0, s.Len())
}

func TestStack_TeamEventsIsSnapshot(t *testing.T) {
	s := New()
	e := ev(event.TeamOne, 1, event.Catch, "A")
	e.Tags = []string{"x"}
	s.Upsert(e)

	snap := s.TeamEvents(event.TeamOne)
	snap[0].Tags[0] = "mutated"
	s.Upsert(ev(event.TeamOne, 2, event.Catch, "B"))

	assert.Len(t, snap, 1, "snapshot must not see later inserts")
	assert.Equal(t, "x", s.TeamEvents(event.TeamOne)[0].Tags[0], "snapshot must not alias stored tags")
}

func TestStack_Last(t *testing.T) {
	s := New()
	_, ok := s.Last(event.TeamOne)
	assert.False(t, ok)

	s.Upsert(ev(event.TeamOne, 2, event.Catch, "B"))
	s.Upsert(ev(event.TeamOne, 10, event.Throwaway, "B"))
	s.Upsert(ev(event.TeamOne, 4, event.Catch, "C"))

	last, ok := s.Last(event.TeamOne)
	require.True(t, ok)
	assert.Equal(t, int64(10), last.Seq)
}

func TestStack_ResetAndApply(t *testing.T) {
	s := New()
	s.Apply(UpsertChange(ev(event.TeamOne, 1, event.Pull, "A")))
	s.Apply(UpsertChange(ev(event.TeamTwo, 1, event.Catch, "Z")))
	s.Apply(RemoveChange(event.TeamTwo, 1))
	assert.Equal(t, 1, s.Len())

	s.Apply(Change{Kind: ChangeReset})
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.TeamEvents(event.TeamOne))
}

func TestStack_ConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int64(1); i <= 200; i++ {
			s.Upsert(ev(event.TeamOne, i, event.Catch, "A"))
		}
	}()
	for i := 0; i < 50; i++ {
		got := s.TeamEvents(event.TeamOne)
		for j := 1; j < len(got); j++ {
			require.Less(t, got[j-1].Seq, got[j].Seq)
		}
	}
	wg.Wait()
	assert.Equal(t, 200, s.Len())
}
