package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ultistats/internal/event"
)

// Game is the persisted game header.
type Game struct {
	ID      string `json:"id"`
	TeamOne string `json:"team_one"`
	TeamTwo string `json:"team_two"`
	Offline bool   `json:"offline"`
}

// Score is a cumulative point aggregate.
type Score struct {
	TeamOne int `json:"team_one"`
	TeamTwo int `json:"team_two"`
}

// Add returns s shifted by the contribution of typ, times sign.
func (s Score) Add(typ event.ActionType, sign int) Score {
	switch typ {
	case event.TeamOneScore:
		s.TeamOne += sign
	case event.TeamTwoScore:
		s.TeamTwo += sign
	}
	return s
}

// Point is one pull-to-score phase of a game.
type Point struct {
	ID       string     `json:"id"`
	GameID   string     `json:"game_id"`
	Ordinal  int        `json:"ordinal"`
	Pulling  event.Team `json:"pulling"`
	Score    Score      `json:"score"`
	Finished bool       `json:"finished"`
}

// CreateGame inserts a game. Duplicate IDs are silently ignored.
func (s *Store) CreateGame(ctx context.Context, g Game) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO games (id, team_one, team_two, offline)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, g.ID, g.TeamOne, g.TeamTwo, g.Offline)
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// ReadGame returns the game or an error wrapping ErrNotFound.
func (s *Store) ReadGame(ctx context.Context, id string) (Game, error) {
	var g Game
	err := s.db.QueryRowContext(ctx, `
		SELECT id, team_one, team_two, offline FROM games WHERE id = ?
	`, id).Scan(&g.ID, &g.TeamOne, &g.TeamTwo, &g.Offline)
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, fmt.Errorf("read game %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Game{}, fmt.Errorf("read game %s: %w", id, err)
	}
	return g, nil
}

// IsOffline reports the game's persisted offline flag.
func (s *Store) IsOffline(ctx context.Context, gameID string) (bool, error) {
	g, err := s.ReadGame(ctx, gameID)
	if err != nil {
		return false, err
	}
	return g.Offline, nil
}

// SetOffline updates the game's offline flag.
func (s *Store) SetOffline(ctx context.Context, gameID string, offline bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE games SET offline = ? WHERE id = ?`, offline, gameID)
	if err != nil {
		return fmt.Errorf("set offline: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set offline %s: %w", gameID, ErrNotFound)
	}
	return nil
}

// CreatePoint opens the next point of p.GameID. The ordinal and the starting
// score are derived from the previous point, which is marked finished. The
// caller supplies p.ID and p.Pulling.
func (s *Store) CreatePoint(ctx context.Context, p Point) (Point, error) {
	if !p.Pulling.Valid() {
		return Point{}, fmt.Errorf("create point: invalid pulling team %d", int(p.Pulling))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Point{}, fmt.Errorf("create point: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	prev, err := currentPoint(ctx, tx, p.GameID)
	switch {
	case errors.Is(err, ErrNotFound):
		p.Ordinal = 1
		p.Score = Score{}
	case err != nil:
		return Point{}, fmt.Errorf("create point: %w", err)
	default:
		p.Ordinal = prev.Ordinal + 1
		p.Score = prev.Score
		if _, err := tx.ExecContext(ctx, `UPDATE points SET finished = 1 WHERE id = ?`, prev.ID); err != nil {
			return Point{}, fmt.Errorf("create point: finish previous: %w", err)
		}
	}
	p.Finished = false

	_, err = tx.ExecContext(ctx, `
		INSERT INTO points (id, game_id, ordinal, pulling_team, score_one, score_two, finished)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`, p.ID, p.GameID, p.Ordinal, int(p.Pulling), p.Score.TeamOne, p.Score.TeamTwo)
	if err != nil {
		return Point{}, fmt.Errorf("create point: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Point{}, fmt.Errorf("create point: commit: %w", err)
	}
	return p, nil
}

// CurrentPoint returns the highest-ordinal point of the game.
func (s *Store) CurrentPoint(ctx context.Context, gameID string) (Point, error) {
	return currentPoint(ctx, s.db, gameID)
}

func currentPoint(ctx context.Context, q querier, gameID string) (Point, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, game_id, ordinal, pulling_team, score_one, score_two, finished
		FROM points
		WHERE game_id = ?
		ORDER BY ordinal DESC
		LIMIT 1
	`, gameID)
	p, err := scanPoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Point{}, fmt.Errorf("current point of game %s: %w", gameID, ErrNotFound)
	}
	if err != nil {
		return Point{}, fmt.Errorf("current point of game %s: %w", gameID, err)
	}
	return p, nil
}

// ReadPoint returns a point by ID.
func (s *Store) ReadPoint(ctx context.Context, id string) (Point, error) {
	return readPoint(ctx, s.db, id)
}

func readPoint(ctx context.Context, q querier, id string) (Point, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, game_id, ordinal, pulling_team, score_one, score_two, finished
		FROM points
		WHERE id = ?
	`, id)
	p, err := scanPoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Point{}, fmt.Errorf("read point %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Point{}, fmt.Errorf("read point %s: %w", id, err)
	}
	return p, nil
}

// ListPoints returns the game's points by ordinal.
// Returns an empty slice (not nil) if the game has no points.
func (s *Store) ListPoints(ctx context.Context, gameID string) ([]Point, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, ordinal, pulling_team, score_one, score_two, finished
		FROM points
		WHERE game_id = ?
		ORDER BY ordinal ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	points := []Point{}
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate points: %w", err)
	}
	return points, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPoint(row scanner) (Point, error) {
	var (
		p       Point
		pulling int
	)
	if err := row.Scan(&p.ID, &p.GameID, &p.Ordinal, &pulling, &p.Score.TeamOne, &p.Score.TeamTwo, &p.Finished); err != nil {
		return Point{}, err
	}
	p.Pulling = event.Team(pulling)
	return p, nil
}

func setScore(ctx context.Context, q querier, pointID string, score Score) error {
	_, err := q.ExecContext(ctx, `
		UPDATE points SET score_one = ?, score_two = ? WHERE id = ?
	`, score.TeamOne, score.TeamTwo, pointID)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	return nil
}
