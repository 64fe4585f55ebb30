package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/ultistats/internal/engine"
	"github.com/roach88/ultistats/internal/event"
	"github.com/roach88/ultistats/internal/legality"
	"github.com/roach88/ultistats/internal/reconcile"
	"github.com/roach88/ultistats/internal/store"
	"github.com/roach88/ultistats/internal/testutil"
)

const (
	scenarioGameID  = "scenario"
	scenarioPointID = "point-1"

	// deliveryTimeout bounds the wait for the loop to apply one delivery.
	deliveryTimeout = 5 * time.Second
)

// delivery is one report in arrival order.
type delivery struct {
	team  event.Team
	entry StreamEntry
}

// Harness drives one online session over a fresh in-memory store.
type Harness struct {
	store   *store.Store
	session *engine.Session
	updates chan engine.Update
	names   legality.Names
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. Reports
// are handed to the session through Deliver one at a time, exactly as a
// relay connection would, and each is waited on before the next arrives so
// the trace is reproducible.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := newHarness(ctx, st, scenario)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.session.Run(runCtx)
	}()

	result := NewResult()
	deliveries, err := arrivalOrder(scenario)
	if err != nil {
		h.session.Stop()
		<-done
		return nil, err
	}
	for _, d := range deliveries {
		if err := h.deliver(d, result); err != nil {
			h.session.Stop()
			<-done
			return nil, err
		}
	}
	h.session.Stop()
	<-done

	if err := h.collect(ctx, result); err != nil {
		return nil, err
	}
	for _, msg := range EvaluateAssertions(result, scenario, h.names) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(ctx context.Context, st *store.Store, scenario *Scenario) (*Harness, error) {
	pulling, err := event.ParseTeam(scenario.Pulling)
	if err != nil {
		return nil, fmt.Errorf("pulling: %w", err)
	}
	names := legality.Names{TeamOne: scenario.Teams.One, TeamTwo: scenario.Teams.Two}

	if err := st.CreateGame(ctx, store.Game{ID: scenarioGameID, TeamOne: names.TeamOne, TeamTwo: names.TeamTwo}); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	if _, err := st.CreatePoint(ctx, store.Point{ID: scenarioPointID, GameID: scenarioGameID, Pulling: pulling}); err != nil {
		return nil, fmt.Errorf("failed to create point: %w", err)
	}

	h := &Harness{
		store:   st,
		updates: make(chan engine.Update, 1),
		names:   names,
	}
	h.session, err = engine.Open(ctx, engine.Config{
		GameID:    scenarioGameID,
		Store:     st,
		Transport: &testutil.FakeTransport{},
		IDs:       testutil.NewSequentialIDs("point"),
		Names:     names,
	}, engine.WithListener(func(u engine.Update) {
		select {
		case h.updates <- u:
		default:
		}
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return h, nil
}

// arrivalOrder flattens the streams following scenario.Arrival.
func arrivalOrder(scenario *Scenario) ([]delivery, error) {
	queues := map[event.Team][]StreamEntry{}
	for key, entries := range scenario.Streams {
		team, err := event.ParseTeam(key)
		if err != nil {
			return nil, err
		}
		queues[team] = append(queues[team], entries...)
	}

	out := make([]delivery, 0, len(queues[event.TeamOne])+len(queues[event.TeamTwo]))
	for _, key := range scenario.Arrival {
		team, err := event.ParseTeam(key)
		if err != nil {
			return nil, err
		}
		if len(queues[team]) == 0 {
			return nil, fmt.Errorf("arrival names team %s but its stream is exhausted", team)
		}
		out = append(out, delivery{team: team, entry: queues[team][0]})
		queues[team] = queues[team][1:]
	}
	for _, team := range event.Teams {
		for _, entry := range queues[team] {
			out = append(out, delivery{team: team, entry: entry})
		}
	}
	return out, nil
}

// deliver hands one report to the session and waits for the loop to apply it.
func (h *Harness) deliver(d delivery, result *Result) error {
	msg, trace := d.message()
	if err := h.session.Deliver(msg); err != nil {
		trace.Kind = "rejected"
		trace.Error = err.Error()
		result.Trace = append(result.Trace, trace)
		return nil
	}

	select {
	case u := <-h.updates:
		trace.Revision = u.Revision
		result.Trace = append(result.Trace, trace)
		return nil
	case <-time.After(deliveryTimeout):
		return fmt.Errorf("timed out waiting for %s %s#%d", trace.Kind, d.team, d.entry.Seq)
	}
}

func (d delivery) message() (engine.Message, TraceEntry) {
	trace := TraceEntry{Team: d.team.String(), Seq: d.entry.Seq}
	if d.entry.Undo {
		trace.Kind = "undo"
		return engine.Message{
			Kind:    engine.MessageUndo,
			PointID: scenarioPointID,
			Team:    d.team,
			Seq:     d.entry.Seq,
		}, trace
	}

	trace.Kind = "action"
	typ, _ := event.ParseActionType(d.entry.Action)
	trace.Action = typ.String()
	e := event.Event{
		Team:      d.team,
		Seq:       d.entry.Seq,
		Type:      typ,
		PlayerOne: d.entry.PlayerOne,
		PlayerTwo: d.entry.PlayerTwo,
		Tags:      d.entry.Tags,
	}
	return engine.Message{Kind: engine.MessageAction, PointID: scenarioPointID, Event: &e}, trace
}

// collect reads the session's final view and the streams it persisted.
func (h *Harness) collect(ctx context.Context, result *Result) error {
	result.Timeline = h.session.Timeline()
	result.History = h.session.History()
	result.Score = h.session.Score()

	one, two, err := h.store.ReadPointStreams(ctx, scenarioPointID)
	if err != nil {
		return fmt.Errorf("failed to read streams: %w", err)
	}
	result.Streams[event.TeamOne] = one
	result.Streams[event.TeamTwo] = two
	result.Rule = reconcile.Explain(one, two).Rule
	return nil
}
