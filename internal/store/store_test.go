package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"games", "points", "events"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.expected); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestMigrations_SetUserVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}

	indexes := getTableIndexes(t, s.db, "points")
	if !contains(indexes, "idx_points_game_ordinal_unique") {
		t.Errorf("points missing unique ordinal index, got %v", indexes)
	}
	if indexes := getTableIndexes(t, s.db, "events"); !contains(indexes, "idx_events_point_action") {
		t.Errorf("events missing score lookup index, got %v", indexes)
	}
}

func TestMigrations_UpgradeFromV1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.db.Exec("DROP INDEX idx_events_point_action"); err != nil {
		t.Fatalf("drop index: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 1"); err != nil {
		t.Fatalf("reset user_version: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if indexes := getTableIndexes(t, s.db, "events"); !contains(indexes, "idx_events_point_action") {
		t.Errorf("upgrade did not create score lookup index, got %v", indexes)
	}
	if err := s.verifyPragma("user_version", "2"); err != nil {
		t.Error(err)
	}
}

func TestSchema_EventsTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "events")
	expected := []string{
		"point_id", "team", "seq", "action", "player_one", "player_two",
		"tags", "comments", "fingerprint",
	}
	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("events table missing column %q", col)
		}
	}
}

func TestConstraint_EventsRejectBadTeamAndSeq(t *testing.T) {
	s := createTestStore(t)
	createTestPoint(t, s)

	_, err := s.db.Exec(`
		INSERT INTO events (point_id, team, seq, action, fingerprint)
		VALUES ('p1', 3, 1, 'pull', 'x')
	`)
	if err == nil {
		t.Error("expected CHECK failure for team 3")
	}

	_, err = s.db.Exec(`
		INSERT INTO events (point_id, team, seq, action, fingerprint)
		VALUES ('p1', 1, 0, 'pull', 'x')
	`)
	if err == nil {
		t.Error("expected CHECK failure for seq 0")
	}
}

func TestConstraint_EventsRequirePoint(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO events (point_id, team, seq, action, fingerprint)
		VALUES ('missing', 1, 1, 'pull', 'x')
	`)
	if err == nil {
		t.Error("expected foreign key failure for unknown point")
	}
}
