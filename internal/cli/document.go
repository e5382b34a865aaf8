package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/docgraph/internal/flex"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var creator string

	cmd := &cobra.Command{
		Use:   "create <content-file>",
		Short: "Store a new root document",
		Long: `Store a new root document from a content file.

The content file is YAML, JSON (comments allowed) or CUE and holds a
list of groups, each a list of {label, type, value} contents. Use - to
read YAML or JSON from stdin.

Examples:
  docgraph create --creator alice doc.yaml
  docgraph create --creator alice proposal.cue --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(rootOpts, cmd, creator, args[0])
		},
	}

	cmd.Flags().StringVar(&creator, "creator", "", "creator identifier (required)")
	_ = cmd.MarkFlagRequired("creator")

	return cmd
}

func runCreate(opts *RootOptions, cmd *cobra.Command, creator, path string) error {
	f := newFormatter(cmd, opts)

	groups, err := LoadGroups(path, cmd.InOrStdin())
	if err != nil {
		return f.fail("failed to load content", err)
	}

	e, err := openEnv(opts, cmd)
	if err != nil {
		return f.fail("", err)
	}
	defer e.Close()

	doc, err := e.store.Create(cmd.Context(), flex.Identifier(creator), groups)
	if err != nil {
		return f.fail("create failed", err)
	}
	return f.Success(doc, func(w io.Writer) { printDocument(w, doc) })
}

// NewForkCommand creates the fork command.
func NewForkCommand(rootOpts *RootOptions) *cobra.Command {
	var creator string
	var diff bool

	cmd := &cobra.Command{
		Use:   "fork <parent-id> <content-file>",
		Short: "Fork a document",
		Long: `Fork a document, linking the child to the parent by hash.

The content file holds the groups that change. With --diff it holds the
complete desired content and only the difference from the parent's
reconstruction is stored.

Examples:
  docgraph fork --creator alice 1 changes.yaml
  docgraph fork --creator alice --diff 1 full.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFork(rootOpts, cmd, creator, diff, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&creator, "creator", "", "creator identifier (required)")
	_ = cmd.MarkFlagRequired("creator")
	cmd.Flags().BoolVar(&diff, "diff", false, "store only the difference from the parent")

	return cmd
}

func runFork(opts *RootOptions, cmd *cobra.Command, creator string, diff bool, parentArg, path string) error {
	f := newFormatter(cmd, opts)

	parentID, err := parseID(parentArg)
	if err != nil {
		return f.fail("invalid parent id", err)
	}
	groups, err := LoadGroups(path, cmd.InOrStdin())
	if err != nil {
		return f.fail("failed to load content", err)
	}

	e, err := openEnv(opts, cmd)
	if err != nil {
		return f.fail("", err)
	}
	defer e.Close()

	var doc flex.Document
	if diff {
		doc, err = e.engine.ForkDiff(cmd.Context(), parentID, groups, flex.Identifier(creator))
	} else {
		doc, err = e.engine.Fork(cmd.Context(), parentID, groups, flex.Identifier(creator))
	}
	if err != nil {
		return f.fail("fork failed", err)
	}
	return f.Success(doc, func(w io.Writer) { printDocument(w, doc) })
}

// NewCertifyCommand creates the certify command.
func NewCertifyCommand(rootOpts *RootOptions) *cobra.Command {
	var certifier, notes string

	cmd := &cobra.Command{
		Use:   "certify <document-id>",
		Short: "Attach a certificate to a document",
		Long: `Attach a certificate to a document.

The certifier must be listed under certifiers in the configuration.
Certificates never change the document's hash.

Example:
  docgraph certify --certifier auditor --notes "reviewed" 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCertify(rootOpts, cmd, certifier, notes, args[0])
		},
	}

	cmd.Flags().StringVar(&certifier, "certifier", "", "certifier identifier (required)")
	_ = cmd.MarkFlagRequired("certifier")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")

	return cmd
}

func runCertify(opts *RootOptions, cmd *cobra.Command, certifier, notes, idArg string) error {
	f := newFormatter(cmd, opts)

	id, err := parseID(idArg)
	if err != nil {
		return f.fail("invalid document id", err)
	}

	e, err := openEnv(opts, cmd)
	if err != nil {
		return f.fail("", err)
	}
	defer e.Close()

	cert, err := e.store.Certify(cmd.Context(), id, flex.Identifier(certifier), notes)
	if err != nil {
		return f.fail("certify failed", err)
	}
	return f.Success(cert, func(w io.Writer) {
		fmt.Fprintf(w, "certified document %d\n", id)
		printCertificate(w, cert)
	})
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%q is not a document id", s)
	}
	return id, nil
}

func printDocument(w io.Writer, doc flex.Document) {
	fmt.Fprintf(w, "id:       %d\n", doc.ID)
	fmt.Fprintf(w, "hash:     %s\n", doc.Hash)
	fmt.Fprintf(w, "creator:  %s\n", doc.Creator)
	fmt.Fprintf(w, "created:  %s\n", doc.CreatedAt)
	fmt.Fprintln(w, "groups:")
	printGroups(w, doc.ContentGroups)
	if len(doc.Certificates) > 0 {
		fmt.Fprintln(w, "certificates:")
		for _, c := range doc.Certificates {
			printCertificate(w, c)
		}
	}
}

func printGroups(w io.Writer, groups []flex.ContentGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for i, g := range groups {
		if len(g) == 0 {
			fmt.Fprintf(w, "  [%d] (empty)\n", i)
			continue
		}
		for _, c := range g {
			fmt.Fprintf(w, "  [%d] %s = %s (%s)\n", i, c.Label, c.Value, c.Value.Kind())
		}
	}
}

func printCertificate(w io.Writer, c flex.Certificate) {
	fmt.Fprintf(w, "  %s  %s  %s", c.ID, c.Certifier, c.CertifiedAt)
	if c.Notes != "" {
		fmt.Fprintf(w, "  %q", c.Notes)
	}
	fmt.Fprintln(w)
}
