package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/docgraph/internal/engine"
	"github.com/roach88/docgraph/internal/flex"
)

// ReconstructOptions holds flags for the reconstruct command.
type ReconstructOptions struct {
	*RootOptions
	MaxDepth int
}

// ReconstructResult is the JSON form of a reconstruction.
type ReconstructResult struct {
	DocumentID    uint64              `json:"document_id"`
	Hash          flex.Digest         `json:"hash"`
	Depth         int                 `json:"depth"`
	Lineage       []flex.Digest       `json:"lineage"`
	ContentGroups []flex.ContentGroup `json:"content_groups"`
}

// NewReconstructCommand creates the reconstruct command.
func NewReconstructCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconstructOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reconstruct <document-id>",
		Short: "Materialize a document with its ancestry",
		Long: `Materialize the effective content of a document by merging it with
its fork ancestry, root first.

--max-depth bounds the number of fork edges followed; the configured
max_depth applies when it is not given.

Example:
  docgraph reconstruct 4 --max-depth 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconstruct(opts, cmd, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", engine.DefaultMaxDepth, "maximum fork edges to follow")

	return cmd
}

func runReconstruct(opts *ReconstructOptions, cmd *cobra.Command, idArg string) error {
	f := newFormatter(cmd, opts.RootOptions)

	id, err := parseID(idArg)
	if err != nil {
		return f.fail("invalid document id", err)
	}

	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return f.fail("", err)
	}
	defer e.Close()

	maxDepth := e.engine.MaxDepth()
	if cmd.Flags().Changed("max-depth") {
		maxDepth = opts.MaxDepth
	}

	r, err := e.engine.Reconstruct(cmd.Context(), id, maxDepth)
	if err != nil {
		return f.fail("reconstruct failed", err)
	}

	result := ReconstructResult{
		DocumentID:    r.DocumentID,
		Hash:          r.Hash,
		Depth:         r.Depth,
		Lineage:       r.Lineage,
		ContentGroups: r.Groups,
	}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "id:       %d\n", r.DocumentID)
		fmt.Fprintf(w, "hash:     %s\n", r.Hash)
		fmt.Fprintf(w, "depth:    %d\n", r.Depth)
		fmt.Fprintln(w, "lineage:")
		for _, h := range r.Lineage {
			fmt.Fprintf(w, "  %s\n", h)
		}
		fmt.Fprintln(w, "groups:")
		printGroups(w, r.Groups)
	})
}
