package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB != "ultistats.db" {
		t.Fatalf("expected default db ultistats.db, got %q", cfg.DB)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.Verbose {
		t.Fatal("expected verbose off by default")
	}
	if got := cfg.Names().Of(1); got != "Team One" {
		t.Fatalf("expected default team one name, got %q", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ULTISTATS_DB", "/tmp/game.db")
	t.Setenv("ULTISTATS_VERBOSE", "true")
	t.Setenv("ULTISTATS_TEAM_TWO", "Hucks")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB != "/tmp/game.db" || !cfg.Verbose {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if got := cfg.Names().Of(2); got != "Hucks" {
		t.Fatalf("expected Hucks, got %q", got)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("ULTISTATS_VERBOSE", "not-a-bool")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
