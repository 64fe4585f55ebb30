package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ultistats/internal/event"
	"github.com/roach88/ultistats/internal/legality"
	"github.com/roach88/ultistats/internal/reconcile"
	"github.com/roach88/ultistats/internal/store"
)

// TimelineResult is the output of timeline.
type TimelineResult struct {
	Point    store.Point    `json:"point"`
	Rule     reconcile.Rule `json:"rule"`
	Timeline []event.Event  `json:"timeline"`
}

func (r TimelineResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Point #%d %s  %d-%d  %s pulling  (opening: %s)",
		r.Point.Ordinal, r.Point.ID, r.Point.Score.TeamOne, r.Point.Score.TeamTwo, r.Point.Pulling, r.Rule)
	if len(r.Timeline) == 0 {
		b.WriteString("\n  (no actions)")
	}
	for _, e := range r.Timeline {
		fmt.Fprintf(&b, "\n  %s", describe(e))
	}
	return b.String()
}

// NewTimelineCommand creates the timeline command.
func NewTimelineCommand(rootOpts *RootOptions) *cobra.Command {
	var pointID string

	cmd := &cobra.Command{
		Use:   "timeline <game-id>",
		Short: "Show a point's merged timeline, most recent first",
		Long: `Show a point's merged timeline, most recent first.

The two teams' reports are interleaved by possession: the opening pull or
drop first, then each team's actions until it turns the disc over.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			ctx := cmd.Context()
			point, err := resolvePoint(ctx, st, args[0], pointID)
			if err != nil {
				return err
			}
			one, two, err := st.ReadPointStreams(ctx, point.ID)
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Success(TimelineResult{
				Point:    point,
				Rule:     reconcile.Explain(one, two).Rule,
				Timeline: reconcile.NormalizeActions(one, two),
			})
		},
	}

	cmd.Flags().StringVar(&pointID, "point", "", "point id (default: the game's current point)")
	return cmd
}

// LegalResult is the output of legal.
type LegalResult struct {
	PointID       string            `json:"point_id"`
	Team          event.Team        `json:"team"`
	Player        string            `json:"player,omitempty"`
	Pulling       bool              `json:"pulling"`
	PlayerActions []legality.Action `json:"player_actions"`
	TeamActions   []legality.Action `json:"team_actions"`
}

func (r LegalResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Point %s, team %s", r.PointID, r.Team)
	if r.Pulling {
		b.WriteString(" (pulling)")
	}
	if r.Player != "" {
		fmt.Fprintf(&b, "\n%s may report:", r.Player)
		writeActions(&b, r.PlayerActions)
	}
	b.WriteString("\nTeam may report:")
	writeActions(&b, r.TeamActions)
	return b.String()
}

func writeActions(b *strings.Builder, actions []legality.Action) {
	if len(actions) == 0 {
		b.WriteString("\n  (nothing)")
		return
	}
	for _, a := range actions {
		fmt.Fprintf(b, "\n  %-14s %s", a.Type, a.Label)
		if len(a.Players) > 1 {
			fmt.Fprintf(b, " (from %s)", strings.Join(a.Players[1:], ", "))
		}
	}
}

// NewLegalCommand creates the legal command.
func NewLegalCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		pointID string
		pulling bool
	)

	cmd := &cobra.Command{
		Use:   "legal <game-id> <team> [player]",
		Short: "List the actions a team or player may report next",
		Long: `List the actions a team, and optionally one of its players, may report next.

Whether the team is pulling defaults to the point's pulling team; --pulling
overrides it.

Examples:
  ultistats legal g1 one
  ultistats legal g1 two Bo --format json`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			team, err := event.ParseTeam(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid team", err)
			}

			st, err := openStore(rootOpts)
			if err != nil {
				return err
			}
			defer closeStore(st)

			ctx := cmd.Context()
			g, err := st.ReadGame(ctx, args[0])
			if err != nil {
				return err
			}
			point, err := resolvePoint(ctx, st, g.ID, pointID)
			if err != nil {
				return err
			}
			one, two, err := st.ReadPointStreams(ctx, point.ID)
			if err != nil {
				return err
			}

			isPulling := team == point.Pulling
			if cmd.Flags().Changed("pulling") {
				isPulling = pulling
			}
			history := reconcile.Chronological(one, two)
			result := LegalResult{
				PointID:       point.ID,
				Team:          team,
				Pulling:       isPulling,
				PlayerActions: []legality.Action{},
				TeamActions:   legality.TeamActions(team, history, isPulling, gameNames(g, rootOpts)),
			}
			if len(args) == 3 {
				result.Player = args[2]
				result.PlayerActions = legality.PlayerActions(team, result.Player, history, isPulling)
			}
			return newFormatter(cmd, rootOpts).Success(result)
		},
	}

	cmd.Flags().StringVar(&pointID, "point", "", "point id (default: the game's current point)")
	cmd.Flags().BoolVar(&pulling, "pulling", false, "treat the team as the pulling team")
	return cmd
}
