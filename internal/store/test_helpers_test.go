package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/roach88/ultistats/internal/event"
)

// createTestStore creates a new on-disk store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestPoint creates game "g1" and its first point "p1", pulled by team one.
func createTestPoint(t *testing.T, s *Store) Point {
	t.Helper()
	ctx := context.Background()
	if err := s.CreateGame(ctx, Game{ID: "g1", TeamOne: "Hammers", TeamTwo: "Hucks"}); err != nil {
		t.Fatalf("CreateGame() failed: %v", err)
	}
	p, err := s.CreatePoint(ctx, Point{ID: "p1", GameID: "g1", Pulling: event.TeamOne})
	if err != nil {
		t.Fatalf("CreatePoint() failed: %v", err)
	}
	return p
}

func record(t *testing.T, s *Store, pointID string, team event.Team, typ event.ActionType, players ...string) event.Event {
	t.Helper()
	in := event.Intent{Team: team, Type: typ}
	if len(players) > 0 {
		in.PlayerOne = players[0]
	}
	if len(players) > 1 {
		in.PlayerTwo = players[1]
	}
	e, _, err := s.RecordAction(context.Background(), pointID, in)
	if err != nil {
		t.Fatalf("RecordAction(%s) failed: %v", typ, err)
	}
	return e
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
