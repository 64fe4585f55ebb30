package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/ultistats/internal/engine"
	"github.com/roach88/ultistats/internal/store"
)

// openStore opens the configured database.
func openStore(opts *RootOptions) (*store.Store, error) {
	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// withOfflineSession opens an offline session on gameID, runs fn while the
// loop is live, then drains the loop and returns the updates it applied.
//
// Online games are recorded through a relay connection, so they are refused.
func withOfflineSession(cmd *cobra.Command, opts *RootOptions, gameID string, fn func(ctx context.Context, s *engine.Session) error) ([]engine.Update, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openStore(opts)
	if err != nil {
		return nil, err
	}
	defer closeStore(st)

	g, err := st.ReadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !g.Offline {
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("game %s is online; record it from a device connected to the relay", gameID))
	}

	var updates []engine.Update
	sess, err := engine.Open(ctx, engine.Config{
		GameID: gameID,
		Store:  st,
		Names:  gameNames(g, opts),
	}, engine.WithListener(func(u engine.Update) {
		updates = append(updates, u)
	}))
	if err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		done <- sess.Run(context.Background())
	}()

	fnErr := fn(ctx, sess)
	sess.Stop()
	if err := <-done; err != nil {
		slog.Warn("session loop ended with error", "error", err)
	}
	// The loop has returned, so updates is no longer written.
	return updates, fnErr
}
