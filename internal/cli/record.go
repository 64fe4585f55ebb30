package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ultistats/internal/engine"
	"github.com/roach88/ultistats/internal/event"
	"github.com/roach88/ultistats/internal/store"
)

// RecordResult is the output of record, undo and comment.
type RecordResult struct {
	PointID string       `json:"point_id"`
	Event   *event.Event `json:"event,omitempty"`
	Removed *Removed     `json:"removed,omitempty"`
	Score   store.Score  `json:"score"`
}

// Removed identifies an undone action.
type Removed struct {
	Team event.Team `json:"team"`
	Seq  int64      `json:"seq"`
}

func (r RecordResult) String() string {
	switch {
	case r.Event != nil:
		return fmt.Sprintf("%s on point %s (%d-%d)", describe(*r.Event), r.PointID, r.Score.TeamOne, r.Score.TeamTwo)
	case r.Removed != nil:
		return fmt.Sprintf("Removed %s#%d from point %s (%d-%d)", r.Removed.Team, r.Removed.Seq, r.PointID, r.Score.TeamOne, r.Score.TeamTwo)
	default:
		return fmt.Sprintf("Nothing to undo on point %s", r.PointID)
	}
}

// describe renders an event with its tags and comments.
func describe(e event.Event) string {
	s := e.String()
	if e.PlayerTwo != "" {
		s += " with " + e.PlayerTwo
	}
	for _, tag := range e.Tags {
		s += " #" + tag
	}
	for _, c := range e.Comments {
		s += fmt.Sprintf(" [%d: %s]", c.Seq, c.Text)
	}
	return s
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "record <game-id> <team> <action> [player-one [player-two]]",
		Short: "Record an action on the current point of an offline game",
		Long: `Record an action on the current point of an offline game.

The next sequence number for the team is assigned by the database. For a
Substitution, player-one leaves and player-two comes on.

Examples:
  ultistats record g1 one Pull Ann
  ultistats record g1 two Catch Bo --tag huck
  ultistats record g1 two TeamTwoScore`,
		Args:          cobra.RangeArgs(3, 5),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := parseIntent(args[1:], tags)
			if err != nil {
				return err
			}

			var pointID string
			updates, err := withOfflineSession(cmd, rootOpts, args[0], func(ctx context.Context, s *engine.Session) error {
				pointID = s.PointID()
				return s.Emit(ctx, in)
			})
			if err != nil {
				return err
			}
			for _, u := range updates {
				if u.Message.Kind == engine.MessageAction {
					return newFormatter(cmd, rootOpts).Success(RecordResult{PointID: u.PointID, Event: u.Message.Event, Score: u.Score})
				}
			}
			return fmt.Errorf("no event was applied to point %s", pointID)
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")
	return cmd
}

// parseIntent reads team, action and players from positional arguments.
func parseIntent(args []string, tags []string) (event.Intent, error) {
	team, err := event.ParseTeam(args[0])
	if err != nil {
		return event.Intent{}, WrapExitError(ExitCommandError, "invalid team", err)
	}
	typ, err := event.ParseActionType(args[1])
	if err != nil {
		return event.Intent{}, WrapExitError(ExitCommandError, "invalid action", err)
	}
	in := event.Intent{Team: team, Type: typ, Tags: tags}
	if len(args) > 2 {
		in.PlayerOne = args[2]
	}
	if len(args) > 3 {
		in.PlayerTwo = args[3]
	}
	return in, nil
}

// NewUndoCommand creates the undo command.
func NewUndoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <game-id> <team>",
		Short: "Remove a team's most recent action on the current point",
		Long: `Remove a team's most recent action on the current point of an offline game.

Undoing a score takes the point back off the scoreboard. With nothing
recorded for the team this is a no-op.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			team, err := event.ParseTeam(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid team", err)
			}

			var (
				pointID string
				score   store.Score
			)
			updates, err := withOfflineSession(cmd, rootOpts, args[0], func(ctx context.Context, s *engine.Session) error {
				pointID = s.PointID()
				score = s.Score()
				return s.Undo(ctx, team)
			})
			if err != nil {
				return err
			}

			result := RecordResult{PointID: pointID, Score: score}
			for _, u := range updates {
				if u.Message.Kind == engine.MessageUndo {
					result.Removed = &Removed{Team: u.Message.Team, Seq: u.Message.Seq}
					result.Score = u.Score
				}
			}
			return newFormatter(cmd, rootOpts).Success(result)
		},
	}
}

// NewCommentCommand creates the comment command.
func NewCommentCommand(rootOpts *RootOptions) *cobra.Command {
	var pointID string

	cmd := &cobra.Command{
		Use:   "comment <game-id> <team> <seq> <text>",
		Short: "Attach a comment to a recorded action",
		Long: `Attach a comment to a recorded action.

Comments are numbered per action in the order they are added. The action
is looked up on the current point unless --point is given.`,
		Args:          cobra.ExactArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			team, err := event.ParseTeam(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid team", err)
			}
			var seq int64
			if _, err := fmt.Sscan(args[2], &seq); err != nil || seq <= 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid seq %q", args[2]))
			}

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
			e, err := st.AddComment(ctx, point.ID, team, seq, args[3])
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Success(RecordResult{PointID: point.ID, Event: &e, Score: point.Score})
		},
	}

	cmd.Flags().StringVar(&pointID, "point", "", "point id (default: the game's current point)")
	return cmd
}

// resolvePoint reads pointID, or the game's current point when empty.
func resolvePoint(ctx context.Context, st *store.Store, gameID, pointID string) (store.Point, error) {
	if pointID == "" {
		return st.CurrentPoint(ctx, gameID)
	}
	p, err := st.ReadPoint(ctx, pointID)
	if err != nil {
		return store.Point{}, err
	}
	if p.GameID != gameID {
		return store.Point{}, NewExitError(ExitCommandError, fmt.Sprintf("point %s belongs to game %s", pointID, p.GameID))
	}
	return p, nil
}

// PointResult is the output of next-point.
type PointResult struct {
	Previous string      `json:"previous"`
	Point    store.Point `json:"point"`
}

func (r PointResult) String() string {
	return fmt.Sprintf("Point #%d %s started (%d-%d), %s pulling",
		r.Point.Ordinal, r.Point.ID, r.Point.Score.TeamOne, r.Point.Score.TeamTwo, r.Point.Pulling)
}

// NewNextPointCommand creates the next-point command.
func NewNextPointCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "next-point <game-id>",
		Short: "Finish the current point and open the next",
		Long: `Finish the current point and open the next one.

The team that scored pulls next. If the point has no score the pull
alternates. The finished point's actions are kept.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PointResult
			_, err := withOfflineSession(cmd, rootOpts, args[0], func(ctx context.Context, s *engine.Session) error {
				result.Previous = s.PointID()
				done, err := s.NextPoint(ctx)
				if err != nil {
					return err
				}
				select {
				case <-done:
				case <-ctx.Done():
					return ctx.Err()
				}
				result.Point = s.Point()
				return nil
			})
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Success(result)
		},
	}
}
