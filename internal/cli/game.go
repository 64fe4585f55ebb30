package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ultistats/internal/engine"
	"github.com/roach88/ultistats/internal/event"
	"github.com/roach88/ultistats/internal/legality"
	"github.com/roach88/ultistats/internal/store"
)

// NewGameOptions holds flags for the new-game command.
type NewGameOptions struct {
	*RootOptions
	ID      string
	TeamOne string
	TeamTwo string
	Pulling string
	Offline bool

	// IDs overrides the game and point id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs engine.IDGenerator
}

// GameSummary is the output of new-game and game.
type GameSummary struct {
	Game   store.Game    `json:"game"`
	Points []store.Point `json:"points"`
}

func (g GameSummary) String() string {
	var b strings.Builder
	mode := "online"
	if g.Game.Offline {
		mode = "offline"
	}
	fmt.Fprintf(&b, "Game %s: %s vs %s (%s)", g.Game.ID, g.Game.TeamOne, g.Game.TeamTwo, mode)
	for _, p := range g.Points {
		state := "in progress"
		if p.Finished {
			state = "finished"
		}
		fmt.Fprintf(&b, "\n  #%d %s  %d-%d  %s pulling  %s", p.Ordinal, p.ID, p.Score.TeamOne, p.Score.TeamTwo, p.Pulling, state)
	}
	return b.String()
}

// NewNewGameCommand creates the new-game command.
func NewNewGameCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NewGameOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new-game",
		Short: "Create a game and open its first point",
		Long: `Create a game and open its first point.

Team names default to $ULTISTATS_TEAM_ONE and $ULTISTATS_TEAM_TWO. Offline
games are recorded directly into the local database; online games are
recorded through a relay (see serve).

Example:
  ultistats new-game --team-one Hammers --team-two Hucks --pulling two --offline`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNewGame(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "game id (default: generated)")
	cmd.Flags().StringVar(&opts.TeamOne, "team-one", "", "team one display name")
	cmd.Flags().StringVar(&opts.TeamTwo, "team-two", "", "team two display name")
	cmd.Flags().StringVar(&opts.Pulling, "pulling", "one", "team pulling the first point (one|two)")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "record without a relay")

	return cmd
}

func runNewGame(opts *NewGameOptions, cmd *cobra.Command) error {
	pulling, err := event.ParseTeam(opts.Pulling)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --pulling", err)
	}

	ids := opts.IDs
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	game := store.Game{
		ID:      opts.ID,
		TeamOne: firstNonEmpty(opts.TeamOne, opts.Config.TeamOne),
		TeamTwo: firstNonEmpty(opts.TeamTwo, opts.Config.TeamTwo),
		Offline: opts.Offline,
	}
	if game.ID == "" {
		game.ID = ids.Generate()
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	if _, err := st.ReadGame(ctx, game.ID); err == nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("game %s already exists", game.ID))
	}
	if err := st.CreateGame(ctx, game); err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	first, err := st.CreatePoint(ctx, store.Point{ID: ids.Generate(), GameID: game.ID, Pulling: pulling})
	if err != nil {
		return fmt.Errorf("create first point: %w", err)
	}

	return newFormatter(cmd, opts.RootOptions).Success(GameSummary{Game: game, Points: []store.Point{first}})
}

// NewGameCommand creates the game command.
func NewGameCommand(rootOpts *RootOptions) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "game <game-id>",
		Short: "Show a game and its points",
		Long: `Show a game and its points.

--offline switches how the game is recorded from now on. Sessions read the
flag when they open.

Example:
  ultistats game 0192c3a4-... --offline=false`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			if cmd.Flags().Changed("offline") {
				if err := st.SetOffline(cmd.Context(), args[0], offline); err != nil {
					return err
				}
			}
			g, err := st.ReadGame(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			points, err := st.ListPoints(cmd.Context(), g.ID)
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Success(GameSummary{Game: g, Points: points})
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "set whether the game is recorded without a relay")
	return cmd
}

// gameNames prefers the names stored on the game, then the environment.
func gameNames(g store.Game, opts *RootOptions) legality.Names {
	env := opts.Config.Names()
	return legality.Names{
		TeamOne: firstNonEmpty(g.TeamOne, env.TeamOne),
		TeamTwo: firstNonEmpty(g.TeamTwo, env.TeamTwo),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
