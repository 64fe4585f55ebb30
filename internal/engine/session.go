package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/ultistats/internal/event"
	"github.com/roach88/ultistats/internal/legality"
	"github.com/roach88/ultistats/internal/reconcile"
	"github.com/roach88/ultistats/internal/stack"
	"github.com/roach88/ultistats/internal/store"
)

// Mode is chosen once per session from the game's persisted offline flag.
type Mode int

const (
	ModeOnline Mode = iota + 1
	ModeOffline
)

func (m Mode) String() string {
	switch m {
	case ModeOnline:
		return "online"
	case ModeOffline:
		return "offline"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Transport forwards statkeeper intents to the authoritative relay.
// Results come back asynchronously through Session.Deliver.
type Transport interface {
	SendAction(ctx context.Context, pointID string, in event.Intent) error
	SendUndo(ctx context.Context, pointID string, team event.Team) error
	SendNextPoint(ctx context.Context, pointID string, pulling event.Team) error
}

// LocalStore is the persisted store a session reads and writes.
// Implemented by *store.Store.
type LocalStore interface {
	IsOffline(ctx context.Context, gameID string) (bool, error)
	CurrentPoint(ctx context.Context, gameID string) (store.Point, error)
	ReadPoint(ctx context.Context, id string) (store.Point, error)
	CreatePoint(ctx context.Context, p store.Point) (store.Point, error)
	ReadPointStreams(ctx context.Context, pointID string) (teamOne, teamTwo []event.Event, err error)
	RecordAction(ctx context.Context, pointID string, in event.Intent) (event.Event, store.Score, error)
	ApplyEvent(ctx context.Context, pointID string, e event.Event) (store.Score, bool, error)
	UndoLast(ctx context.Context, pointID string, team event.Team) (event.Event, bool, store.Score, error)
	RemoveEvent(ctx context.Context, pointID string, team event.Team, seq int64) (store.Score, error)
}

var _ LocalStore = (*store.Store)(nil)

// Config wires a session to its collaborators.
type Config struct {
	GameID string
	Store  LocalStore

	// Transport is required when the game is online.
	Transport Transport

	// IDs mints offline point ids. Defaults to UUIDv7Generator.
	IDs IDGenerator

	// Names label team scores in team legality. Defaults to legality.DefaultNames.
	Names legality.Names
}

// Option configures optional session parameters.
type Option func(*Session)

// WithListener registers l before the loop starts.
func WithListener(l Listener) Option {
	return func(s *Session) {
		s.listeners = append(s.listeners, l)
	}
}

// WithClock sets the revision clock, e.g. to continue numbering across
// sessions.
func WithClock(c *Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// Session is the live/offline mediator for one game.
//
// CRITICAL: All Action Stack mutations happen in the single-writer Run loop.
// Emit, Undo, NextPoint and Deliver only enqueue.
//
// Thread-safety model:
//   - Emit/Undo/NextPoint/Deliver: safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Timeline/PlayerActions/TeamActions/Score: safe from any goroutine
type Session struct {
	gameID    string
	mode      Mode
	store     LocalStore
	transport Transport
	ids       IDGenerator
	names     legality.Names

	stack *stack.Stack
	queue *messageQueue
	clock *Clock

	mu        sync.RWMutex
	point     store.Point
	listeners []Listener
	advancing []chan struct{}
}

// Open creates a session for cfg.GameID positioned on the game's current
// point. The point's persisted events are replayed into the Action Stack so a
// restarted device resumes where it stopped.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Session, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("open session: store is required")
	}

	offline, err := cfg.Store.IsOffline(ctx, cfg.GameID)
	if err != nil {
		return nil, newStoreError("", "read offline flag", err)
	}
	mode := ModeOnline
	if offline {
		mode = ModeOffline
	}
	if mode == ModeOnline && cfg.Transport == nil {
		return nil, fmt.Errorf("open session: game %s is online but no transport was given", cfg.GameID)
	}

	point, err := cfg.Store.CurrentPoint(ctx, cfg.GameID)
	if err != nil {
		return nil, newStoreError("", "read current point", err)
	}

	s := &Session{
		gameID:    cfg.GameID,
		mode:      mode,
		store:     cfg.Store,
		transport: cfg.Transport,
		ids:       cfg.IDs,
		names:     cfg.Names,
		stack:     stack.New(),
		queue:     newMessageQueue(),
		clock:     NewClock(),
		point:     point,
	}
	if s.ids == nil {
		s.ids = UUIDv7Generator{}
	}
	if s.names == (legality.Names{}) {
		s.names = legality.DefaultNames
	}
	for _, opt := range opts {
		opt(s)
	}

	n, err := replay(ctx, s.store, point.ID, s.stack)
	if err != nil {
		return nil, newStoreError(point.ID, "replay point", err)
	}

	slog.Info("session opened",
		"game", cfg.GameID,
		"point", point.ID,
		"mode", mode,
		"replayed", n,
	)
	return s, nil
}

// Mode reports the session's mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// GameID reports the game this session records.
func (s *Session) GameID() string {
	return s.gameID
}

// Point returns the current point, including its cumulative score.
func (s *Session) Point() store.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.point
}

// PointID returns the current point's id.
func (s *Session) PointID() string {
	return s.Point().ID
}

// Score returns the cumulative score as of the last applied message.
func (s *Session) Score() store.Score {
	return s.Point().Score
}

// Subscribe registers a listener. Listeners run on the loop goroutine.
func (s *Session) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// QueueLen returns the number of messages waiting for the loop.
func (s *Session) QueueLen() int {
	return s.queue.Len()
}

// Emit records a statkeeper intent.
//
// Online, the intent is forwarded to the transport keyed by point id and the
// stack is left untouched until the relay's event comes back. Offline, the
// intent is committed to the local store and the committed event is echoed
// through the queue.
//
// A transport or store failure is returned and also surfaced to listeners as
// MessageError. Nothing is rolled back or retried.
func (s *Session) Emit(ctx context.Context, in event.Intent) error {
	if err := in.Validate(); err != nil {
		return newMalformedError(err)
	}
	in = in.Normalize()
	if s.queue.Closed() {
		return errClosed
	}
	pointID := s.PointID()

	if s.mode == ModeOnline {
		if err := s.transport.SendAction(ctx, pointID, in); err != nil {
			return s.fail(newNetworkError(pointID, "send action", err))
		}
		slog.Debug("intent sent", "point", pointID, "team", in.Team, "action", in.Type)
		return nil
	}

	e, score, err := s.store.RecordAction(ctx, pointID, in)
	if err != nil {
		return s.fail(newStoreError(pointID, "record action", err))
	}
	return s.enqueue(Message{
		Kind:      MessageAction,
		PointID:   pointID,
		Event:     &e,
		persisted: true,
		score:     &score,
	})
}

// Undo removes team's most recent event from the authoritative store and
// echoes the removal. A team with no events in the working view is a no-op.
func (s *Session) Undo(ctx context.Context, team event.Team) error {
	if !team.Valid() {
		return newMalformedError(&event.ValidationError{
			Code:    event.ErrCodeInvalidTeam,
			Field:   "team",
			Message: fmt.Sprintf("team must be one or two, got %d", int(team)),
		})
	}
	if s.queue.Closed() {
		return errClosed
	}
	if _, ok := s.stack.Last(team); !ok {
		return nil
	}
	pointID := s.PointID()

	if s.mode == ModeOnline {
		if err := s.transport.SendUndo(ctx, pointID, team); err != nil {
			return s.fail(newNetworkError(pointID, "send undo", err))
		}
		return nil
	}

	removed, ok, score, err := s.store.UndoLast(ctx, pointID, team)
	if err != nil {
		return s.fail(newStoreError(pointID, "undo", err))
	}
	if !ok {
		return nil
	}
	return s.enqueue(Message{
		Kind:      MessageUndo,
		PointID:   pointID,
		Team:      removed.Team,
		Seq:       removed.Seq,
		persisted: true,
		score:     &score,
	})
}

// NextPoint ends the current point. The returned channel is closed once the
// loop has cleared the working view for the new point. Persisted history is
// not touched.
//
// The team that scored pulls next; without a score the pull alternates.
func (s *Session) NextPoint(ctx context.Context) (<-chan struct{}, error) {
	if s.queue.Closed() {
		return nil, errClosed
	}
	cur := s.Point()
	pulling := s.nextPulling(cur.Pulling)

	done := make(chan struct{})
	s.mu.Lock()
	s.advancing = append(s.advancing, done)
	s.mu.Unlock()

	if s.mode == ModeOnline {
		if err := s.transport.SendNextPoint(ctx, cur.ID, pulling); err != nil {
			s.dropWaiter(done)
			return nil, s.fail(newNetworkError(cur.ID, "send next point", err))
		}
		return done, nil
	}

	next, err := s.store.CreatePoint(ctx, store.Point{
		ID:      s.ids.Generate(),
		GameID:  s.gameID,
		Pulling: pulling,
	})
	if err != nil {
		s.dropWaiter(done)
		return nil, s.fail(newStoreError(cur.ID, "create point", err))
	}
	err = s.enqueue(Message{
		Kind:        MessagePointAdvanced,
		PointID:     cur.ID,
		NextPointID: next.ID,
		Pulling:     next.Pulling,
		persisted:   true,
	})
	if err != nil {
		s.dropWaiter(done)
		return nil, err
	}
	return done, nil
}

// Deliver hands an inbound message to the loop. It is the transport's
// subscription surface and is safe from any goroutine. Malformed messages
// are rejected here and never reach the stack.
func (s *Session) Deliver(m Message) error {
	if err := m.validate(); err != nil {
		return newMalformedError(err)
	}
	m.persisted = false
	m.score = nil
	if m.Event != nil {
		e := m.Event.Normalize()
		m.Event = &e
	}
	return s.enqueue(m)
}

// Timeline returns the reconciled point, newest first.
func (s *Session) Timeline() []event.Event {
	return reconcile.NormalizeActions(s.stack.TeamEvents(event.TeamOne), s.stack.TeamEvents(event.TeamTwo))
}

// History returns the reconciled point, oldest first.
func (s *Session) History() []event.Event {
	return reconcile.Chronological(s.stack.TeamEvents(event.TeamOne), s.stack.TeamEvents(event.TeamTwo))
}

// PlayerActions returns the legal next actions for player on team.
func (s *Session) PlayerActions(team event.Team, player string) []legality.Action {
	return legality.PlayerActions(team, player, s.History(), team == s.Point().Pulling)
}

// TeamActions returns the legal next team-level actions for team.
func (s *Session) TeamActions(team event.Team) []legality.Action {
	return legality.TeamActions(team, s.History(), team == s.Point().Pulling, s.names)
}

// Run starts the single-writer loop.
// Blocks until ctx is cancelled or Stop() is called.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// ERROR HANDLING: a message that cannot be applied is logged with its
// context and the loop continues.
func (s *Session) Run(ctx context.Context) error {
	slog.Info("session loop starting", "game", s.gameID, "mode", s.mode)

	for {
		msg, ok := s.queue.TryDequeue()
		if ok {
			if err := s.process(ctx, msg); err != nil {
				logMessageError(msg, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("session loop stopping: context cancelled")
			s.queue.Close()
			return ctx.Err()

		case <-s.queue.Wait():
			// The signal channel closes with the queue, so this fires
			// immediately once stopped.
			if s.queue.Closed() && s.queue.Len() == 0 {
				slog.Info("session loop stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue; Run drains what is left and returns.
func (s *Session) Stop() {
	s.queue.Close()
}

// process applies one message.
// CRITICAL: Called only from Run() goroutine - single-writer guarantee.
func (s *Session) process(ctx context.Context, m Message) error {
	cur := s.Point()

	switch m.Kind {
	case MessageAction:
		if m.PointID != "" && m.PointID != cur.ID {
			return fmt.Errorf("event %s for point %s, current point is %s", m.Event, m.PointID, cur.ID)
		}
		score := s.mirror(ctx, m, cur, func() (store.Score, error) {
			sc, _, err := s.store.ApplyEvent(ctx, cur.ID, *m.Event)
			return sc, err
		})
		s.stack.Apply(stack.UpsertChange(*m.Event))
		s.setScore(score)

	case MessageUndo:
		if m.PointID != "" && m.PointID != cur.ID {
			return fmt.Errorf("undo %s#%d for point %s, current point is %s", m.Team, m.Seq, m.PointID, cur.ID)
		}
		score := s.mirror(ctx, m, cur, func() (store.Score, error) {
			return s.store.RemoveEvent(ctx, cur.ID, m.Team, m.Seq)
		})
		s.stack.Apply(stack.RemoveChange(m.Team, m.Seq))
		s.setScore(score)

	case MessageError:
		slog.Warn("error received", "point", m.PointID, "error", m.Error)

	case MessagePointAdvanced:
		if m.NextPointID == cur.ID {
			// Redelivered advance; the view is already reset.
			s.releaseWaiters()
			return nil
		}
		next := store.Point{ID: m.NextPointID, GameID: s.gameID, Pulling: m.Pulling, Score: cur.Score}
		var (
			p   store.Point
			err error
		)
		if m.persisted {
			p, err = s.store.ReadPoint(ctx, next.ID)
		} else {
			p, err = s.mirrorPoint(ctx, next)
		}
		if err != nil {
			slog.Error("load next point failed", "point", next.ID, "error", err)
		} else {
			next = p
		}
		s.stack.Apply(stack.Change{Kind: stack.ChangeReset})
		s.mu.Lock()
		s.point = next
		s.mu.Unlock()
		slog.Info("point advanced", "from", cur.ID, "to", next.ID, "pulling", next.Pulling)

	default:
		return fmt.Errorf("unknown message kind: %d", int(m.Kind))
	}

	s.notify(m)
	if m.Kind == MessagePointAdvanced {
		s.releaseWaiters()
	}
	return nil
}

// mirror persists an inbound online message into the local store and returns
// the resulting score. Offline echoes carry their score already. A store
// failure is logged; the authoritative event is still applied to the stack.
func (s *Session) mirror(ctx context.Context, m Message, cur store.Point, write func() (store.Score, error)) store.Score {
	if m.score != nil {
		return *m.score
	}
	if m.persisted || s.mode == ModeOffline {
		return cur.Score
	}
	score, err := write()
	if err != nil {
		slog.Error("local mirror write failed",
			"kind", m.Kind,
			"point", cur.ID,
			"error", err,
		)
		return cur.Score
	}
	return score
}

// mirrorPoint ensures the relay's next point exists locally.
func (s *Session) mirrorPoint(ctx context.Context, p store.Point) (store.Point, error) {
	existing, err := s.store.ReadPoint(ctx, p.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Point{}, err
	}
	return s.store.CreatePoint(ctx, p)
}

func (s *Session) setScore(score store.Score) {
	s.mu.Lock()
	s.point.Score = score
	s.mu.Unlock()
}

func (s *Session) notify(m Message) {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	point := s.point
	s.mu.RUnlock()

	m.persisted = false
	m.score = nil
	u := Update{
		Revision: s.clock.Next(),
		Message:  m,
		PointID:  point.ID,
		Score:    point.Score,
		Timeline: s.Timeline(),
	}
	for _, l := range listeners {
		l(u)
	}
}

func (s *Session) releaseWaiters() {
	s.mu.Lock()
	waiters := s.advancing
	s.advancing = nil
	s.mu.Unlock()
	for _, ch := range waiters {
		close(ch)
	}
}

func (s *Session) dropWaiter(done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advancing = slices.DeleteFunc(s.advancing, func(ch chan struct{}) bool { return ch == done })
}

// nextPulling picks the pulling team for the next point: the team that scored
// the current one, else the team that received this point.
func (s *Session) nextPulling(current event.Team) event.Team {
	for _, e := range s.Timeline() {
		if team, ok := e.Type.Scorer(); ok {
			return team
		}
	}
	if current.Valid() {
		return current.Opponent()
	}
	return event.TeamOne
}

// enqueue hands m to the loop.
func (s *Session) enqueue(m Message) error {
	if !s.queue.Enqueue(m) {
		return errClosed
	}
	return nil
}

// fail surfaces err to listeners as MessageError and returns it.
func (s *Session) fail(err *SessionError) error {
	s.queue.Enqueue(Message{Kind: MessageError, PointID: err.PointID, Error: err.Error()})
	slog.Error("session operation failed",
		"code", err.Code,
		"point", err.PointID,
		"error", err.Err,
	)
	return err
}

// logMessageError logs a message that could not be applied with enough
// context to re-deliver it by hand.
func logMessageError(m Message, err error) {
	attrs := []any{
		"kind", m.Kind,
		"point", m.PointID,
		"error", err,
	}
	switch m.Kind {
	case MessageAction:
		if m.Event != nil {
			attrs = append(attrs, "team", m.Event.Team, "seq", m.Event.Seq, "action", m.Event.Type)
		}
	case MessageUndo:
		attrs = append(attrs, "team", m.Team, "seq", m.Seq)
	case MessagePointAdvanced:
		attrs = append(attrs, "next_point", m.NextPointID)
	}
	slog.Error("message processing failed", attrs...)
}
