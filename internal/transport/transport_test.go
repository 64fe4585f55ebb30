package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ultistats/internal/engine"
	"github.com/roach88/ultistats/internal/event"
	"github.com/roach88/ultistats/internal/store"
	"github.com/roach88/ultistats/internal/testutil"
)

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/relay.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.CreateGame(ctx, store.Game{ID: "g1", TeamOne: "Hammers", TeamTwo: "Hucks"}))
	_, err = s.CreatePoint(ctx, store.Point{ID: "p1", GameID: "g1", Pulling: event.TeamOne})
	require.NoError(t, err)
	return s
}

func startHub(t *testing.T, st *store.Store) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(st, WithIDs(testutil.NewSequentialIDs("relay-point")))
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)
	return hub, srv
}

// recorder is a Sink that forwards every message to a channel.
type recorder chan engine.Message

func (r recorder) Deliver(m engine.Message) error {
	r <- m
	return nil
}

func (r recorder) waitFor(t *testing.T, match func(engine.Message) bool) engine.Message {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-r:
			if match(m) {
				return m
			}
		case <-deadline:
			t.Fatal("timed out waiting for message")
			return engine.Message{}
		}
	}
}

func isAction(typ event.ActionType) func(engine.Message) bool {
	return func(m engine.Message) bool {
		return m.Kind == engine.MessageAction && m.Event.Type == typ
	}
}

func dial(t *testing.T, srv *httptest.Server) (*Client, recorder) {
	t.Helper()
	c, err := Dial(context.Background(), srv.URL, "g1")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	rec := make(recorder, 64)
	c.Start(rec)
	return c, rec
}

func TestGameURL(t *testing.T) {
	u, err := gameURL("http://relay:8080/", "g 1")
	require.NoError(t, err)
	assert.Equal(t, "ws://relay:8080/games/g%201/ws", u)

	u, err = gameURL("wss://relay", "g1")
	require.NoError(t, err)
	assert.Equal(t, "wss://relay/games/g1/ws", u)

	_, err = gameURL("ftp://relay", "g1")
	assert.Error(t, err)
}

func TestEnvelope_Message(t *testing.T) {
	e := testutil.Ev(event.TeamTwo, 3, event.Throwaway, "Cy")

	m, err := Envelope{Kind: KindAction, PointID: "p1", Event: &e}.Message()
	require.NoError(t, err)
	assert.Equal(t, engine.MessageAction, m.Kind)
	assert.Equal(t, e, *m.Event)

	m, err = Envelope{Kind: KindUndo, PointID: "p1", Team: event.TeamTwo, Seq: 3}.Message()
	require.NoError(t, err)
	assert.Equal(t, engine.MessageUndo, m.Kind)
	assert.Equal(t, int64(3), m.Seq)

	m, err = Envelope{Kind: KindPointAdvanced, NextPointID: "p2", Pulling: event.TeamTwo}.Message()
	require.NoError(t, err)
	assert.Equal(t, "p2", m.NextPointID)

	_, err = Envelope{Kind: KindAction}.Message()
	assert.Error(t, err)
	_, err = Envelope{Kind: KindNextPoint}.Message()
	assert.Error(t, err, "device-to-relay kinds are not inbound messages")
}

func TestEnvelope_JSONShape(t *testing.T) {
	e := testutil.Ev(event.TeamOne, 1, event.Pull, "Ann")
	data, err := json.Marshal(Envelope{Kind: KindAction, GameID: "g1", PointID: "p1", Event: &e})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"kind":"action","game_id":"g1","point_id":"p1","event":{"team":"one","seq":1,"action":"Pull","player_one":"Ann"}}`,
		string(data),
	)
}

func TestHub_Health(t *testing.T) {
	_, srv := startHub(t, setupStore(t))

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHub_UnknownGameRejected(t *testing.T) {
	_, srv := startHub(t, setupStore(t))

	_, err := Dial(context.Background(), srv.URL, "nope")
	assert.Error(t, err)
}

func TestHub_TwoClientsSeeEachOthersEvents(t *testing.T) {
	hub, srv := startHub(t, setupStore(t))
	ctx := context.Background()

	one, recOne := dial(t, srv)
	two, recTwo := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Connections("g1") == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, one.SendAction(ctx, "p1", testutil.Intent(event.TeamOne, event.Pull, "Ann")))
	require.NoError(t, two.SendAction(ctx, "p1", testutil.Intent(event.TeamTwo, event.Catch, "Bo")))

	for _, rec := range []recorder{recOne, recTwo} {
		pull := rec.waitFor(t, isAction(event.Pull))
		assert.Equal(t, int64(1), pull.Event.Seq)
		catch := rec.waitFor(t, isAction(event.Catch))
		assert.Equal(t, event.TeamTwo, catch.Event.Team)
		assert.Equal(t, int64(1), catch.Event.Seq, "seqs are per team")
	}
}

func TestHub_SnapshotOnConnect(t *testing.T) {
	st := setupStore(t)
	_, _, err := st.RecordAction(context.Background(), "p1", testutil.Intent(event.TeamOne, event.Pull, "Ann"))
	require.NoError(t, err)
	_, srv := startHub(t, st)

	_, rec := dial(t, srv)

	adv := rec.waitFor(t, func(m engine.Message) bool { return m.Kind == engine.MessagePointAdvanced })
	assert.Equal(t, "p1", adv.NextPointID)
	pull := rec.waitFor(t, isAction(event.Pull))
	assert.Equal(t, "Ann", pull.Event.PlayerOne)
}

func TestHub_RejectsStalePointWithError(t *testing.T) {
	_, srv := startHub(t, setupStore(t))

	c, rec := dial(t, srv)
	require.NoError(t, c.SendAction(context.Background(), "p0", testutil.Intent(event.TeamOne, event.Pull, "Ann")))

	m := rec.waitFor(t, func(m engine.Message) bool { return m.Kind == engine.MessageError })
	assert.Contains(t, m.Error, "not current")
}

func TestHub_RejectsMalformedIntent(t *testing.T) {
	_, srv := startHub(t, setupStore(t))

	c, rec := dial(t, srv)
	require.NoError(t, c.SendAction(context.Background(), "p1", event.Intent{Team: event.TeamOne, Type: event.Catch}))

	m := rec.waitFor(t, func(m engine.Message) bool { return m.Kind == engine.MessageError })
	assert.Contains(t, m.Error, "MISSING_PLAYER")
}

func TestHub_UndoCommentAndNextPoint(t *testing.T) {
	st := setupStore(t)
	_, srv := startHub(t, st)
	ctx := context.Background()

	c, rec := dial(t, srv)
	require.NoError(t, c.SendAction(ctx, "p1", testutil.Intent(event.TeamTwo, event.TeamTwoScore)))
	rec.waitFor(t, isAction(event.TeamTwoScore))

	require.NoError(t, c.SendComment(ctx, "p1", event.TeamTwo, 1, "callahan"))
	commented := rec.waitFor(t, func(m engine.Message) bool {
		return m.Kind == engine.MessageAction && len(m.Event.Comments) == 1
	})
	assert.Equal(t, "callahan", commented.Event.Comments[0].Text)

	require.NoError(t, c.SendUndo(ctx, "p1", event.TeamTwo))
	undo := rec.waitFor(t, func(m engine.Message) bool { return m.Kind == engine.MessageUndo })
	assert.Equal(t, event.TeamTwo, undo.Team)
	assert.Equal(t, int64(1), undo.Seq)

	require.NoError(t, c.SendNextPoint(ctx, "p1", event.TeamTwo))
	adv := rec.waitFor(t, func(m engine.Message) bool {
		return m.Kind == engine.MessagePointAdvanced && m.NextPointID == "relay-point-1"
	})
	assert.Equal(t, event.TeamTwo, adv.Pulling)

	cur, err := st.CurrentPoint(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "relay-point-1", cur.ID)
}

func TestHub_SessionsOverRelay(t *testing.T) {
	_, srv := startHub(t, setupStore(t))
	ctx := context.Background()

	open := func(name string) (*engine.Session, chan engine.Update) {
		device, err := store.Open(t.TempDir() + "/" + name + ".db")
		require.NoError(t, err)
		t.Cleanup(func() { device.Close() })
		require.NoError(t, device.CreateGame(ctx, store.Game{ID: "g1"}))
		_, err = device.CreatePoint(ctx, store.Point{ID: "p1", GameID: "g1", Pulling: event.TeamOne})
		require.NoError(t, err)

		client, err := Dial(ctx, srv.URL, "g1")
		require.NoError(t, err)
		t.Cleanup(func() { client.Close() })

		updates := make(chan engine.Update, 64)
		sess, err := engine.Open(ctx, engine.Config{GameID: "g1", Store: device, Transport: client},
			engine.WithListener(func(u engine.Update) { updates <- u }))
		require.NoError(t, err)
		client.Start(sess)

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			sess.Run(runCtx)
		}()
		t.Cleanup(func() {
			cancel()
			<-done
		})
		return sess, updates
	}

	home, homeUpdates := open("home")
	away, awayUpdates := open("away")

	require.NoError(t, home.Emit(ctx, testutil.Intent(event.TeamOne, event.Pull, "Ann")))
	require.NoError(t, away.Emit(ctx, testutil.Intent(event.TeamTwo, event.Catch, "Bo")))
	require.NoError(t, away.Emit(ctx, testutil.Intent(event.TeamTwo, event.Throwaway, "Bo")))

	for _, updates := range []chan engine.Update{homeUpdates, awayUpdates} {
		deadline := time.After(2 * time.Second)
		for done := false; !done; {
			select {
			case u := <-updates:
				done = len(u.Timeline) == 3
			case <-deadline:
				t.Fatal("timeline did not converge")
			}
		}
	}

	want := []event.ActionType{event.Throwaway, event.Catch, event.Pull}
	for _, s := range []*engine.Session{home, away} {
		got := make([]event.ActionType, 0, 3)
		for _, e := range s.Timeline() {
			got = append(got, e.Type)
		}
		assert.Equal(t, want, got)
	}
}

func TestHub_TimelineAndLegalViews(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	for _, in := range []event.Intent{
		testutil.Intent(event.TeamOne, event.Pull, "Ann"),
		testutil.Intent(event.TeamTwo, event.Catch, "Bo"),
		testutil.Intent(event.TeamTwo, event.Catch, "Cy", "Bo"),
		testutil.Intent(event.TeamTwo, event.Throwaway, "Cy"),
	} {
		_, _, err := st.RecordAction(ctx, "p1", in)
		require.NoError(t, err)
	}
	_, srv := startHub(t, st)

	resp, err := http.Get(srv.URL + "/points/p1/timeline")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tl TimelineView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tl))
	require.Len(t, tl.Timeline, 4)
	assert.Equal(t, event.Throwaway, tl.Timeline[0].Type)
	assert.Equal(t, event.Pull, tl.Timeline[3].Type)
	assert.Equal(t, "pull", string(tl.Rule))

	resp2, err := http.Get(srv.URL + "/points/p1/legal?team=one&player=Ann")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var lv LegalView
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&lv))
	assert.True(t, lv.Pulling)
	types := make([]event.ActionType, 0, len(lv.PlayerActions))
	for _, a := range lv.PlayerActions {
		types = append(types, a.Type)
	}
	assert.Equal(t, []event.ActionType{event.Block, event.Pickup, event.TeamOneScore}, types)
	require.NotEmpty(t, lv.TeamActions)
	assert.Equal(t, "Hucks scores", lv.TeamActions[0].Label)
}

func TestHub_ViewErrors(t *testing.T) {
	_, srv := startHub(t, setupStore(t))

	resp, err := http.Get(srv.URL + "/points/nope/timeline")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/points/p1/legal?team=three")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/games/g1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var gv GameView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&gv))
	assert.Equal(t, "Hammers", gv.Game.TeamOne)
	assert.Len(t, gv.Points, 1)
}
