package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/fleetdesk/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DB      string
	LogFile string
	Roster  string // CUE file replacing the built-in sample drivers

	logger    *slog.Logger
	logCloser io.Closer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON}

// NewRootCommand creates the root command for the fleetdesk CLI.
func NewRootCommand() *cobra.Command {
	env := config.FromEnv()
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fleetdesk",
		Short: "fleetdesk - fleet driver records",
		Long: `Manage a fleet's drivers, their identity and vehicle documents,
vehicles and the manager profile from a local SQLite key-value store.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.logger, opts.logCloser = config.NewLogger(config.Config{
				LogFile: opts.LogFile,
				Verbose: opts.Verbose,
			}, cmd.ErrOrStderr())
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logCloser == nil {
				return nil
			}
			return opts.logCloser.Close()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", env.Format, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", env.DBPath, "path to SQLite database (env "+config.EnvDB+")")
	cmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", env.LogFile, "write logs to a rotated file instead of stderr (env "+config.EnvLogFile+")")
	cmd.PersistentFlags().StringVar(&opts.Roster, "roster", "", "CUE roster used when the store is empty (default: built-in sample drivers)")

	// Add subcommands
	cmd.AddCommand(NewDriversCommand(opts))
	cmd.AddCommand(NewDocsCommand(opts))
	cmd.AddCommand(NewVehiclesCommand(opts))
	cmd.AddCommand(NewProfileCommand(opts))
	cmd.AddCommand(NewOTPCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// Logger returns the logger built for the running command, or
// slog.Default() before PersistentPreRunE has run.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}
