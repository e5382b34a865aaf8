package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string // overrides the configured database
	Config   string // config file path; DOCGRAPH_CONFIG when empty
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the docgraph CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "docgraph",
		Short: "docgraph - content-addressed document graph",
		Long: `An append-only store of content-addressed documents.

Documents are identified by the hash of their canonical encoding. Forks
link a child to its parent by hash and reconstruction merges a document
with its ancestry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to config file")

	// Add subcommands
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewForkCommand(opts))
	cmd.AddCommand(NewCertifyCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewReconstructCommand(opts))
	cmd.AddCommand(NewHashCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
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
