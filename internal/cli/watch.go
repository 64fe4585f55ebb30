package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/ultistats/internal/engine"
	"github.com/roach88/ultistats/internal/transport"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Relay string
}

// UpdateLine is one line of watch output.
type UpdateLine struct {
	Revision int64  `json:"revision"`
	Kind     string `json:"kind"`
	PointID  string `json:"point_id"`
	Detail   string `json:"detail,omitempty"`
	Score    [2]int `json:"score"`
	Events   int    `json:"events"`
}

func (l UpdateLine) String() string {
	return fmt.Sprintf("[%d] %-14s %s  %d-%d  %s", l.Revision, l.Kind, l.PointID, l.Score[0], l.Score[1], l.Detail)
}

func newUpdateLine(u engine.Update) UpdateLine {
	line := UpdateLine{
		Revision: u.Revision,
		Kind:     u.Message.Kind.String(),
		PointID:  u.PointID,
		Score:    [2]int{u.Score.TeamOne, u.Score.TeamTwo},
		Events:   len(u.Timeline),
	}
	switch u.Message.Kind {
	case engine.MessageAction:
		line.Detail = describe(*u.Message.Event)
	case engine.MessageUndo:
		line.Detail = fmt.Sprintf("removed %s#%d", u.Message.Team, u.Message.Seq)
	case engine.MessagePointAdvanced:
		line.Detail = fmt.Sprintf("%s pulling", u.Message.Pulling)
	case engine.MessageError:
		line.Detail = u.Message.Error
	}
	return line
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <game-id>",
		Short: "Follow an online game through the relay",
		Long: `Follow an online game through the relay.

The game must exist in the local database, positioned on the point the relay
is on or earlier. Every event the relay sends is mirrored into the local
database and printed as it is applied.

Example:
  ultistats watch g1 --relay ws://relay.local:8080`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Relay, "relay", "", "relay URL (default $ULTISTATS_RELAY)")
	return cmd
}

func runWatch(opts *WatchOptions, gameID string, cmd *cobra.Command) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore(st)

	g, err := st.ReadGame(ctx, gameID)
	if err != nil {
		return err
	}
	if g.Offline {
		return NewExitError(ExitCommandError, fmt.Sprintf("game %s is offline; there is no relay to follow", gameID))
	}

	relay := firstNonEmpty(opts.Relay, opts.Config.Relay)
	client, err := transport.Dial(ctx, relay, gameID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to reach relay", err)
	}
	defer client.Close()

	f := newFormatter(cmd, opts.RootOptions)
	lines := make(chan UpdateLine, 64)
	sess, err := engine.Open(ctx, engine.Config{
		GameID:    gameID,
		Store:     st,
		Transport: client,
		Names:     gameNames(g, opts.RootOptions),
	})
	if err != nil {
		return err
	}
	sess.Subscribe(func(u engine.Update) {
		select {
		case lines <- newUpdateLine(u):
		default:
			slog.Warn("watch output behind, dropping update", "revision", u.Revision)
		}
	})
	client.Start(sess)

	done := make(chan error, 1)
	go func() {
		done <- sess.Run(ctx)
	}()

	for {
		select {
		case line := <-lines:
			if err := f.Success(line); err != nil {
				return err
			}
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				return WrapExitError(ExitFailure, "session error", err)
			}
			return nil
		}
	}
}
