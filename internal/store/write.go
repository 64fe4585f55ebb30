package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ultistats/internal/event"
)

// RecordAction commits an intent as the next event for its team in the point.
// The sequence number is MAX(seq)+1 for (point, team), assigned inside the
// transaction that inserts the event and rescores the point.
//
// Used by the offline session path and by the relay as the authoritative
// sequence assigner.
func (s *Store) RecordAction(ctx context.Context, pointID string, in event.Intent) (event.Event, Score, error) {
	if err := in.Validate(); err != nil {
		return event.Event{}, Score{}, fmt.Errorf("record action: %w", err)
	}
	in = in.Normalize()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, Score{}, fmt.Errorf("record action: begin tx: %w", err)
	}
	defer tx.Rollback()

	point, err := readPoint(ctx, tx, pointID)
	if err != nil {
		return event.Event{}, Score{}, fmt.Errorf("record action: %w", err)
	}

	var next int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE point_id = ? AND team = ?
	`, pointID, int(in.Team)).Scan(&next)
	if err != nil {
		return event.Event{}, Score{}, fmt.Errorf("record action: next seq: %w", err)
	}

	e := in.EventAt(next)
	if err := insertEvent(ctx, tx, pointID, e); err != nil {
		return event.Event{}, Score{}, fmt.Errorf("record action: %w", err)
	}

	score, err := rescore(ctx, tx, point)
	if err != nil {
		return event.Event{}, Score{}, fmt.Errorf("record action: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return event.Event{}, Score{}, fmt.Errorf("record action: commit: %w", err)
	}
	return e, score, nil
}

// ApplyEvent upserts an event that was sequenced elsewhere (the relay).
//
// Redelivery of identical content is a no-op (changed=false). Any other
// write rescores the point, so replacing a score event at the same key moves
// the goal rather than adding one.
func (s *Store) ApplyEvent(ctx context.Context, pointID string, e event.Event) (score Score, changed bool, err error) {
	if err := e.Validate(); err != nil {
		return Score{}, false, fmt.Errorf("apply event: %w", err)
	}
	e = e.Normalize()
	fp, err := event.Fingerprint(e)
	if err != nil {
		return Score{}, false, fmt.Errorf("apply event: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Score{}, false, fmt.Errorf("apply event: begin tx: %w", err)
	}
	defer tx.Rollback()

	point, err := readPoint(ctx, tx, pointID)
	if err != nil {
		return Score{}, false, fmt.Errorf("apply event: %w", err)
	}

	var oldFP string
	err = tx.QueryRowContext(ctx, `
		SELECT fingerprint FROM events WHERE point_id = ? AND team = ? AND seq = ?
	`, pointID, int(e.Team), e.Seq).Scan(&oldFP)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := insertEvent(ctx, tx, pointID, e); err != nil {
			return Score{}, false, fmt.Errorf("apply event: %w", err)
		}
	case err != nil:
		return Score{}, false, fmt.Errorf("apply event: select existing: %w", err)
	case oldFP == fp:
		return point.Score, false, nil
	default:
		if err := updateEvent(ctx, tx, pointID, e, fp); err != nil {
			return Score{}, false, fmt.Errorf("apply event: %w", err)
		}
	}

	score, err = rescore(ctx, tx, point)
	if err != nil {
		return Score{}, false, fmt.Errorf("apply event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Score{}, false, fmt.Errorf("apply event: commit: %w", err)
	}
	return score, true, nil
}

// UndoLast deletes the team's highest-numbered event in the point and
// rescores the point in one transaction. An empty team history
// returns removed=false and no error.
func (s *Store) UndoLast(ctx context.Context, pointID string, team event.Team) (removed event.Event, ok bool, score Score, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, false, Score{}, fmt.Errorf("undo: begin tx: %w", err)
	}
	defer tx.Rollback()

	point, err := readPoint(ctx, tx, pointID)
	if err != nil {
		return event.Event{}, false, Score{}, fmt.Errorf("undo: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		SELECT team, seq, action, player_one, player_two, tags, comments
		FROM events
		WHERE point_id = ? AND team = ?
		ORDER BY seq DESC
		LIMIT 1
	`, pointID, int(team))
	removed, err = scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, false, point.Score, nil
	}
	if err != nil {
		return event.Event{}, false, Score{}, fmt.Errorf("undo: %w", err)
	}

	score, err = deleteEvent(ctx, tx, point, removed)
	if err != nil {
		return event.Event{}, false, Score{}, fmt.Errorf("undo: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return event.Event{}, false, Score{}, fmt.Errorf("undo: commit: %w", err)
	}
	return removed, true, score, nil
}

// RemoveEvent deletes the event at exactly (team, seq) and rescores the
// point. Absent keys are a no-op so a retried undo is harmless.
func (s *Store) RemoveEvent(ctx context.Context, pointID string, team event.Team, seq int64) (Score, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Score{}, fmt.Errorf("remove event: begin tx: %w", err)
	}
	defer tx.Rollback()

	point, err := readPoint(ctx, tx, pointID)
	if err != nil {
		return Score{}, fmt.Errorf("remove event: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		SELECT team, seq, action, player_one, player_two, tags, comments
		FROM events
		WHERE point_id = ? AND team = ? AND seq = ?
	`, pointID, int(team), seq)
	existing, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return point.Score, nil
	}
	if err != nil {
		return Score{}, fmt.Errorf("remove event: %w", err)
	}

	score, err := deleteEvent(ctx, tx, point, existing)
	if err != nil {
		return Score{}, fmt.Errorf("remove event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Score{}, fmt.Errorf("remove event: commit: %w", err)
	}
	return score, nil
}

// AddComment appends a comment to an existing event. Comments are allowed
// after the point has been scored.
func (s *Store) AddComment(ctx context.Context, pointID string, team event.Team, seq int64, text string) (event.Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return event.Event{}, fmt.Errorf("add comment: begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT team, seq, action, player_one, player_two, tags, comments
		FROM events
		WHERE point_id = ? AND team = ? AND seq = ?
	`, pointID, int(team), seq)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, fmt.Errorf("add comment: event %s#%d: %w", team, seq, ErrNotFound)
	}
	if err != nil {
		return event.Event{}, fmt.Errorf("add comment: %w", err)
	}

	var next int64 = 1
	for _, c := range e.Comments {
		if c.Seq >= next {
			next = c.Seq + 1
		}
	}
	e.Comments = append(e.Comments, event.Comment{Seq: next, Text: text})
	e = e.Normalize()

	fp, err := event.Fingerprint(e)
	if err != nil {
		return event.Event{}, fmt.Errorf("add comment: %w", err)
	}
	if err := updateEvent(ctx, tx, pointID, e, fp); err != nil {
		return event.Event{}, fmt.Errorf("add comment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return event.Event{}, fmt.Errorf("add comment: commit: %w", err)
	}
	return e, nil
}

func insertEvent(ctx context.Context, q querier, pointID string, e event.Event) error {
	fp, err := event.Fingerprint(e)
	if err != nil {
		return err
	}
	tags, err := marshalTags(e.Tags)
	if err != nil {
		return err
	}
	comments, err := marshalComments(e.Comments)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO events
		(point_id, team, seq, action, player_one, player_two, tags, comments, fingerprint)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		pointID,
		int(e.Team),
		e.Seq,
		e.Type.String(),
		e.PlayerOne,
		e.PlayerTwo,
		tags,
		comments,
		fp,
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", e, err)
	}
	return nil
}

func updateEvent(ctx context.Context, q querier, pointID string, e event.Event, fp string) error {
	tags, err := marshalTags(e.Tags)
	if err != nil {
		return err
	}
	comments, err := marshalComments(e.Comments)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		UPDATE events
		SET action = ?, player_one = ?, player_two = ?, tags = ?, comments = ?, fingerprint = ?
		WHERE point_id = ? AND team = ? AND seq = ?
	`,
		e.Type.String(),
		e.PlayerOne,
		e.PlayerTwo,
		tags,
		comments,
		fp,
		pointID,
		int(e.Team),
		e.Seq,
	)
	if err != nil {
		return fmt.Errorf("update event %s: %w", e, err)
	}
	return nil
}

func deleteEvent(ctx context.Context, q querier, point Point, e event.Event) (Score, error) {
	_, err := q.ExecContext(ctx, `
		DELETE FROM events WHERE point_id = ? AND team = ? AND seq = ?
	`, point.ID, int(e.Team), e.Seq)
	if err != nil {
		return Score{}, fmt.Errorf("delete event %s: %w", e, err)
	}
	return rescore(ctx, q, point)
}

// rescore sets the point's score to the previous point's score plus at most
// one goal. Both statkeepers may report the same goal; the score event that
// was stored first decides who is credited, and the goal is only taken back
// once no score event is left on the point.
func rescore(ctx context.Context, q querier, point Point) (Score, error) {
	score, err := startingScore(ctx, q, point)
	if err != nil {
		return Score{}, err
	}

	var action string
	err = q.QueryRowContext(ctx, `
		SELECT action FROM events
		WHERE point_id = ? AND action IN (?, ?)
		ORDER BY rowid ASC
		LIMIT 1
	`, point.ID, event.TeamOneScore.String(), event.TeamTwoScore.String()).Scan(&action)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Score{}, fmt.Errorf("rescore point %s: %w", point.ID, err)
	default:
		typ, err := event.ParseActionType(action)
		if err != nil {
			return Score{}, fmt.Errorf("rescore point %s: stored action: %w", point.ID, err)
		}
		score = score.Add(typ, 1)
	}

	if err := setScore(ctx, q, point.ID, score); err != nil {
		return Score{}, err
	}
	return score, nil
}

// startingScore is the score the point opened with: the previous point's
// score, or zero for the first point of a game.
func startingScore(ctx context.Context, q querier, point Point) (Score, error) {
	if point.Ordinal <= 1 {
		return Score{}, nil
	}
	var score Score
	err := q.QueryRowContext(ctx, `
		SELECT score_one, score_two FROM points WHERE game_id = ? AND ordinal = ?
	`, point.GameID, point.Ordinal-1).Scan(&score.TeamOne, &score.TeamTwo)
	if errors.Is(err, sql.ErrNoRows) {
		return Score{}, nil
	}
	if err != nil {
		return Score{}, fmt.Errorf("starting score of point %s: %w", point.ID, err)
	}
	return score, nil
}
