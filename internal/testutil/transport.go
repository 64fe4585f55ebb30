package testutil

import (
	"context"
	"sync"

	"github.com/roach88/ultistats/internal/event"
)

// SentAction records one SendAction call.
type SentAction struct {
	PointID string
	Intent  event.Intent
}

// SentUndo records one SendUndo call.
type SentUndo struct {
	PointID string
	Team    event.Team
}

// SentNextPoint records one SendNextPoint call.
type SentNextPoint struct {
	PointID string
	Pulling event.Team
}

// FakeTransport is an in-memory engine.Transport.
//
// Every call is recorded. When Err is set every send fails with it and the
// hooks are not called. Hooks run synchronously on the caller's goroutine,
// which lets a test play the relay and Deliver results back to a session.
type FakeTransport struct {
	mu sync.Mutex

	Err error

	OnAction    func(pointID string, in event.Intent)
	OnUndo      func(pointID string, team event.Team)
	OnNextPoint func(pointID string, pulling event.Team)

	actions    []SentAction
	undos      []SentUndo
	nextPoints []SentNextPoint
}

// Fail makes every subsequent send return err (nil restores success).
func (f *FakeTransport) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}

func (f *FakeTransport) SendAction(ctx context.Context, pointID string, in event.Intent) error {
	f.mu.Lock()
	f.actions = append(f.actions, SentAction{PointID: pointID, Intent: in})
	err, hook := f.Err, f.OnAction
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		hook(pointID, in)
	}
	return nil
}

func (f *FakeTransport) SendUndo(ctx context.Context, pointID string, team event.Team) error {
	f.mu.Lock()
	f.undos = append(f.undos, SentUndo{PointID: pointID, Team: team})
	err, hook := f.Err, f.OnUndo
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		hook(pointID, team)
	}
	return nil
}

func (f *FakeTransport) SendNextPoint(ctx context.Context, pointID string, pulling event.Team) error {
	f.mu.Lock()
	f.nextPoints = append(f.nextPoints, SentNextPoint{PointID: pointID, Pulling: pulling})
	err, hook := f.Err, f.OnNextPoint
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		hook(pointID, pulling)
	}
	return nil
}

// Actions returns a copy of the recorded SendAction calls.
func (f *FakeTransport) Actions() []SentAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentAction(nil), f.actions...)
}

// Undos returns a copy of the recorded SendUndo calls.
func (f *FakeTransport) Undos() []SentUndo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentUndo(nil), f.undos...)
}

// NextPoints returns a copy of the recorded SendNextPoint calls.
func (f *FakeTransport) NextPoints() []SentNextPoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentNextPoint(nil), f.nextPoints...)
}
