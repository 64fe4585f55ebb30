package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/ultistats/internal/transport"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay for online games",
		Long: `Run the relay for online games.

Devices connect to /games/{game}/ws. The relay assigns sequence numbers,
stores every action and broadcasts it to all devices on the game. Read-only
views are served at /games/{game}, /points/{point}/timeline and
/points/{point}/legal.

Example:
  ultistats serve --db ./relay.db --addr :8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default $ULTISTATS_ADDR or :8080)")
	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	addr := firstNonEmpty(opts.Addr, opts.Config.Addr)

	slog.Info("opening database", "path", opts.DB)
	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, stop := signalContext(cmd)
	defer stop()

	hub := transport.NewHub(st)
	fmt.Fprintf(cmd.OutOrStdout(), "Relay listening on %s. Press Ctrl-C to stop.\n", addr)
	if err := hub.ListenAndServe(ctx, addr); err != nil {
		return WrapExitError(ExitFailure, "relay error", err)
	}
	slog.Info("relay stopped gracefully")
	return nil
}

// signalContext derives a context from the command's that is cancelled on
// SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
