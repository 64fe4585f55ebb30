package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/roach88/ultistats/internal/engine"
	"github.com/roach88/ultistats/internal/event"
	"github.com/roach88/ultistats/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub is the relay for online games.
//
// Requests from every connection are handled one at a time under writeMu so
// the store sees a single writer and broadcasts leave in commit order.
type Hub struct {
	store *store.Store
	ids   engine.IDGenerator

	writeMu sync.Mutex

	mu    sync.RWMutex
	games map[string]map[*peer]struct{}

	router *mux.Router
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithIDs sets the point id generator. Defaults to engine.UUIDv7Generator.
func WithIDs(ids engine.IDGenerator) HubOption {
	return func(h *Hub) {
		h.ids = ids
	}
}

// NewHub creates a relay backed by st.
func NewHub(st *store.Store, opts ...HubOption) *Hub {
	h := &Hub{
		store: st,
		ids:   engine.UUIDv7Generator{},
		games: make(map[string]map[*peer]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.router = h.routes()
	return h
}

// Handler returns the relay's HTTP handler.
func (h *Hub) Handler() http.Handler {
	return h.router
}

// ListenAndServe serves the relay on addr until ctx is cancelled.
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("relay listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("relay shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		h.closeAll()
		return nil
	}
}

// Connections returns the number of live connections on gameID.
func (h *Hub) Connections(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}

// peer is one device connection.
type peer struct {
	gameID string
	conn   *websocket.Conn
	send   chan Envelope
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["game"]
	if _, err := h.store.ReadGame(r.Context(), gameID); err != nil {
		writeStoreError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "game", gameID, "error", err)
		return
	}

	p := &peer{gameID: gameID, conn: conn, send: make(chan Envelope, 256)}
	h.register(p)
	slog.Info("device connected", "game", gameID, "connections", h.Connections(gameID))

	go p.writePump()
	h.sendSnapshot(r.Context(), p)
	h.readPump(p)
}

// sendSnapshot positions a freshly connected device on the current point and
// replays its events. Devices already there treat both as redelivery.
func (h *Hub) sendSnapshot(ctx context.Context, p *peer) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	point, err := h.store.CurrentPoint(ctx, p.gameID)
	if err != nil {
		slog.Warn("snapshot: no current point", "game", p.gameID, "error", err)
		return
	}
	p.enqueue(Envelope{Kind: KindPointAdvanced, GameID: p.gameID, NextPointID: point.ID, Pulling: point.Pulling})

	one, two, err := h.store.ReadPointStreams(ctx, point.ID)
	if err != nil {
		slog.Warn("snapshot: read point failed", "point", point.ID, "error", err)
		return
	}
	for _, stream := range [][]event.Event{one, two} {
		for _, e := range stream {
			p.enqueue(Envelope{Kind: KindAction, GameID: p.gameID, PointID: point.ID, Event: &e})
		}
	}
}

func (h *Hub) readPump(p *peer) {
	defer func() {
		h.unregister(p)
		p.conn.Close()
		slog.Info("device disconnected", "game", p.gameID, "connections", h.Connections(p.gameID))
	}()

	p.conn.SetReadLimit(maxMessageSize)
	if err := p.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn("set read deadline failed", "error", err)
	}
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := p.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("read failed", "game", p.gameID, "error", err)
			}
			return
		}
		env.GameID = p.gameID
		if err := h.handle(context.Background(), p, env); err != nil {
			slog.Warn("request rejected",
				"game", p.gameID,
				"point", env.PointID,
				"kind", env.Kind,
				"error", err,
			)
			p.enqueue(errorEnvelope(p.gameID, env.PointID, err))
		}
	}
}

// handle applies one device request and broadcasts the outcome.
func (h *Hub) handle(ctx context.Context, p *peer, env Envelope) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	current, err := h.store.CurrentPoint(ctx, env.GameID)
	if err != nil {
		return err
	}

	switch env.Kind {
	case KindAction:
		if env.Intent == nil {
			return fmt.Errorf("action without intent")
		}
		if env.PointID != current.ID {
			return fmt.Errorf("point %s is not current (current is %s)", env.PointID, current.ID)
		}
		e, _, err := h.store.RecordAction(ctx, current.ID, *env.Intent)
		if err != nil {
			return err
		}
		slog.Debug("action recorded", "point", current.ID, "event", e.String())
		h.broadcast(env.GameID, Envelope{Kind: KindAction, GameID: env.GameID, PointID: current.ID, Event: &e})

	case KindUndo:
		if env.PointID != current.ID {
			return fmt.Errorf("point %s is not current (current is %s)", env.PointID, current.ID)
		}
		removed, ok, _, err := h.store.UndoLast(ctx, current.ID, env.Team)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		h.broadcast(env.GameID, Envelope{Kind: KindUndo, GameID: env.GameID, PointID: current.ID, Team: removed.Team, Seq: removed.Seq})

	case KindComment:
		e, err := h.store.AddComment(ctx, env.PointID, env.Team, env.Seq, env.Comment)
		if err != nil {
			return err
		}
		h.broadcast(env.GameID, Envelope{Kind: KindAction, GameID: env.GameID, PointID: env.PointID, Event: &e})

	case KindNextPoint:
		if env.PointID != current.ID {
			// Someone else already advanced; bring this device up to date.
			p.enqueue(Envelope{Kind: KindPointAdvanced, GameID: env.GameID, PointID: env.PointID, NextPointID: current.ID, Pulling: current.Pulling})
			return nil
		}
		next, err := h.store.CreatePoint(ctx, store.Point{ID: h.ids.Generate(), GameID: env.GameID, Pulling: env.Pulling})
		if err != nil {
			return err
		}
		slog.Info("point advanced", "game", env.GameID, "from", current.ID, "to", next.ID)
		h.broadcast(env.GameID, Envelope{
			Kind:        KindPointAdvanced,
			GameID:      env.GameID,
			PointID:     current.ID,
			NextPointID: next.ID,
			Pulling:     next.Pulling,
		})

	default:
		return fmt.Errorf("unsupported envelope kind %q", env.Kind)
	}
	return nil
}

func (h *Hub) register(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.games[p.gameID] == nil {
		h.games[p.gameID] = make(map[*peer]struct{})
	}
	h.games[p.gameID][p] = struct{}{}
}

func (h *Hub) unregister(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.games[p.gameID][p]; !ok {
		return
	}
	delete(h.games[p.gameID], p)
	if len(h.games[p.gameID]) == 0 {
		delete(h.games, p.gameID)
	}
	close(p.send)
}

func (h *Hub) broadcast(gameID string, env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for p := range h.games[gameID] {
		p.enqueue(env)
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, peers := range h.games {
		for p := range peers {
			p.conn.Close()
		}
	}
}

// enqueue drops the envelope for a peer that is not keeping up; the device
// recovers from the snapshot on reconnect.
//
// send is closed by unregister, so callers are either broadcast (under h.mu)
// or the peer's own read goroutine before it unregisters.
func (p *peer) enqueue(env Envelope) {
	select {
	case p.send <- env:
	default:
		slog.Warn("peer send buffer full, dropping envelope", "game", p.gameID, "kind", env.Kind)
	}
}

func (p *peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case env, ok := <-p.send:
			if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				slog.Warn("set write deadline failed", "error", err)
			}
			if !ok {
				p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := p.conn.WriteJSON(env); err != nil {
				slog.Debug("write failed", "game", p.gameID, "error", err)
				return
			}

		case <-ticker.C:
			if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				slog.Warn("set ping write deadline failed", "error", err)
			}
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("ping failed", "game", p.gameID, "error", err)
				return
			}
		}
	}
}
