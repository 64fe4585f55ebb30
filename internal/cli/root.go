package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ultistats/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DB      string

	// Config holds the environment settings; flags override them.
	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ultistats CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ultistats",
		Short: "ultistats - two-statkeeper point recording",
		Long: `Record an ultimate point from two statkeepers' per-team reports.

Each team's statkeeper reports only their own team's events. ultistats merges
the two streams into one timeline, works out what each player and team may
report next, and relays events between devices for online games.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "path to SQLite database (default $ULTISTATS_DB or ultistats.db)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewNewGameCommand(opts))
	cmd.AddCommand(NewGameCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewUndoCommand(opts))
	cmd.AddCommand(NewCommentCommand(opts))
	cmd.AddCommand(NewNextPointCommand(opts))
	cmd.AddCommand(NewTimelineCommand(opts))
	cmd.AddCommand(NewLegalCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// resolve layers the environment under any flags the user set and
// configures logging.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid environment", err)
	}
	o.Config = cfg

	flags := cmd.Flags()
	if !flags.Changed("db") {
		o.DB = cfg.DB
	}
	if !flags.Changed("verbose") && cfg.Verbose {
		o.Verbose = true
	}

	setupLogging(o.Verbose, cmd.ErrOrStderr())
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
