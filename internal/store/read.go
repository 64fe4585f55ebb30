package store

import (
	"context"
	"fmt"

	"github.com/roach88/ultistats/internal/event"
)

// ReadPointEvents returns one team's events in a point, ORDER BY seq ASC.
// Returns an empty slice (not nil) if the team has no events.
func (s *Store) ReadPointEvents(ctx context.Context, pointID string, team event.Team) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT team, seq, action, player_one, player_two, tags, comments
		FROM events
		WHERE point_id = ? AND team = ?
		ORDER BY seq ASC
	`, pointID, int(team))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []event.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ReadPointStreams returns both teams' streams for a point, ready for the
// reconciler.
func (s *Store) ReadPointStreams(ctx context.Context, pointID string) (teamOne, teamTwo []event.Event, err error) {
	teamOne, err = s.ReadPointEvents(ctx, pointID, event.TeamOne)
	if err != nil {
		return nil, nil, err
	}
	teamTwo, err = s.ReadPointEvents(ctx, pointID, event.TeamTwo)
	if err != nil {
		return nil, nil, err
	}
	return teamOne, teamTwo, nil
}

func scanEvent(row scanner) (event.Event, error) {
	var (
		e        event.Event
		team     int
		action   string
		tags     string
		comments string
	)
	if err := row.Scan(&team, &e.Seq, &action, &e.PlayerOne, &e.PlayerTwo, &tags, &comments); err != nil {
		return event.Event{}, err
	}
	e.Team = event.Team(team)

	typ, err := event.ParseActionType(action)
	if err != nil {
		return event.Event{}, fmt.Errorf("scan event: %w", err)
	}
	e.Type = typ

	if e.Tags, err = unmarshalTags(tags); err != nil {
		return event.Event{}, fmt.Errorf("scan event: %w", err)
	}
	if e.Comments, err = unmarshalComments(comments); err != nil {
		return event.Event{}, fmt.Errorf("scan event: %w", err)
	}
	return e, nil
}
