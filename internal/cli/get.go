package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/docgraph/internal/flex"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Hash    string
	Creator string
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get [document-id]",
		Short: "Read stored documents",
		Long: `Read documents by id, by content hash or by creator.

Exactly one of a document id, --hash or --creator must be given.

Examples:
  docgraph get 2
  docgraph get --hash 7d075819d2825a71ea924db1c859a59016551b6a579e2ecad7fcea9b4240107c
  docgraph get --creator alice --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Hash, "hash", "", "content hash (hex)")
	cmd.Flags().StringVar(&opts.Creator, "creator", "", "creator identifier")

	return cmd
}

func runGet(opts *GetOptions, cmd *cobra.Command, args []string) error {
	f := newFormatter(cmd, opts.RootOptions)

	selectors := len(args)
	if opts.Hash != "" {
		selectors++
	}
	if opts.Creator != "" {
		selectors++
	}
	if selectors != 1 {
		return f.fail("", NewExitError(ExitCommandError, "exactly one of a document id, --hash or --creator is required"))
	}

	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return f.fail("", err)
	}
	defer e.Close()

	ctx := cmd.Context()
	switch {
	case opts.Creator != "":
		docs, err := e.store.GetByCreator(ctx, flex.Identifier(opts.Creator))
		if err != nil {
			return f.fail("get failed", err)
		}
		return f.Success(docs, func(w io.Writer) {
			for i, doc := range docs {
				if i > 0 {
					fmt.Fprintln(w)
				}
				printDocument(w, doc)
			}
		})

	case opts.Hash != "":
		hash, err := flex.ParseDigest(opts.Hash)
		if err != nil {
			return f.fail("invalid hash", err)
		}
		doc, err := e.store.GetByHash(ctx, hash)
		if err != nil {
			return f.fail("get failed", err)
		}
		return f.Success(doc, func(w io.Writer) { printDocument(w, doc) })

	default:
		id, err := parseID(args[0])
		if err != nil {
			return f.fail("invalid document id", err)
		}
		doc, err := e.store.GetByID(ctx, id)
		if err != nil {
			return f.fail("get failed", err)
		}
		return f.Success(doc, func(w io.Writer) { printDocument(w, doc) })
	}
}
