package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/roach88/ultistats/internal/event"
	"github.com/roach88/ultistats/internal/legality"
	"github.com/roach88/ultistats/internal/reconcile"
	"github.com/roach88/ultistats/internal/store"
)

func (h *Hub) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/games/{game}", h.handleGame).Methods(http.MethodGet)
	r.HandleFunc("/games/{game}/ws", h.handleWS).Methods(http.MethodGet)
	r.HandleFunc("/points/{point}/timeline", h.handleTimeline).Methods(http.MethodGet)
	r.HandleFunc("/points/{point}/legal", h.handleLegal).Methods(http.MethodGet)
	return r
}

// GameView is the body of GET /games/{game}.
type GameView struct {
	Game   store.Game    `json:"game"`
	Points []store.Point `json:"points"`
}

// TimelineView is the body of GET /points/{point}/timeline.
type TimelineView struct {
	Point    store.Point    `json:"point"`
	Rule     reconcile.Rule `json:"rule"`
	Timeline []event.Event  `json:"timeline"`
}

// LegalView is the body of GET /points/{point}/legal.
type LegalView struct {
	PointID       string            `json:"point_id"`
	Team          event.Team        `json:"team"`
	Player        string            `json:"player,omitempty"`
	Pulling       bool              `json:"pulling"`
	PlayerActions []legality.Action `json:"player_actions"`
	TeamActions   []legality.Action `json:"team_actions"`
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DB().PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Hub) handleGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["game"]
	g, err := h.store.ReadGame(r.Context(), gameID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	points, err := h.store.ListPoints(r.Context(), gameID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GameView{Game: g, Points: points})
}

func (h *Hub) handleTimeline(w http.ResponseWriter, r *http.Request) {
	point, one, two, ok := h.loadPoint(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, TimelineView{
		Point:    point,
		Rule:     reconcile.Explain(one, two).Rule,
		Timeline: reconcile.NormalizeActions(one, two),
	})
}

func (h *Hub) handleLegal(w http.ResponseWriter, r *http.Request) {
	point, one, two, ok := h.loadPoint(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	team, err := event.ParseTeam(q.Get("team"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pulling := team == point.Pulling
	if raw := q.Get("pulling"); raw != "" {
		pulling, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "pulling: "+err.Error())
			return
		}
	}

	g, err := h.store.ReadGame(r.Context(), point.GameID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	names := legality.Names{TeamOne: g.TeamOne, TeamTwo: g.TeamTwo}

	history := reconcile.Chronological(one, two)
	view := LegalView{
		PointID:       point.ID,
		Team:          team,
		Player:        q.Get("player"),
		Pulling:       pulling,
		PlayerActions: []legality.Action{},
		TeamActions:   legality.TeamActions(team, history, pulling, names),
	}
	if view.Player != "" {
		view.PlayerActions = legality.PlayerActions(team, view.Player, history, pulling)
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Hub) loadPoint(w http.ResponseWriter, r *http.Request) (store.Point, []event.Event, []event.Event, bool) {
	pointID := mux.Vars(r)["point"]
	point, err := h.store.ReadPoint(r.Context(), pointID)
	if err != nil {
		writeStoreError(w, err)
		return store.Point{}, nil, nil, false
	}
	one, two, err := h.store.ReadPointStreams(r.Context(), pointID)
	if err != nil {
		writeStoreError(w, err)
		return store.Point{}, nil, nil, false
	}
	return point, one, two, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
