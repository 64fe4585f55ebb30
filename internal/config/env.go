// Package config loads process settings from the environment. Command-line
// flags override these values.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/ultistats/internal/legality"
)

// Config holds environment-level settings shared by every subcommand.
type Config struct {
	DB      string `env:"ULTISTATS_DB"       envDefault:"ultistats.db"`
	Addr    string `env:"ULTISTATS_ADDR"     envDefault:":8080"`
	Relay   string `env:"ULTISTATS_RELAY"    envDefault:"ws://localhost:8080"`
	Verbose bool   `env:"ULTISTATS_VERBOSE"  envDefault:"false"`
	TeamOne string `env:"ULTISTATS_TEAM_ONE" envDefault:"Team One"`
	TeamTwo string `env:"ULTISTATS_TEAM_TWO" envDefault:"Team Two"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Names returns the configured display names.
func (c Config) Names() legality.Names {
	return legality.Names{TeamOne: c.TeamOne, TeamTwo: c.TeamTwo}
}
