package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/docgraph/internal/flex"
)

// HashOptions holds flags for the hash command.
type HashOptions struct {
	*RootOptions
	Algorithm string
	Canonical bool
}

// HashResult is the output of the hash command.
type HashResult struct {
	Hash      flex.Digest    `json:"hash"`
	Algorithm flex.Algorithm `json:"algorithm"`
	Size      int            `json:"size"`
	Canonical string         `json:"canonical,omitempty"`
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HashOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hash <content-file>",
		Short: "Compute a content hash without storing",
		Long: `Compute the content hash of a content file without opening a database.

The algorithm defaults to the configured hash. --canonical also prints
the canonical encoding in hex.

Examples:
  docgraph hash doc.yaml
  docgraph hash --algorithm blake3 doc.json --canonical`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Algorithm, "algorithm", "", "hash algorithm (sha256|blake3)")
	cmd.Flags().BoolVar(&opts.Canonical, "canonical", false, "print the canonical encoding")

	return cmd
}

func runHash(opts *HashOptions, cmd *cobra.Command, path string) error {
	f := newFormatter(cmd, opts.RootOptions)

	alg := opts.Algorithm
	if alg == "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return f.fail("", err)
		}
		alg = cfg.Hash
	}
	hasher, err := flex.NewHasher(flex.Algorithm(alg))
	if err != nil {
		return f.fail("invalid algorithm", err)
	}

	groups, err := LoadGroups(path, cmd.InOrStdin())
	if err != nil {
		return f.fail("failed to load content", err)
	}
	payload, err := flex.MarshalCanonical(groups)
	if err != nil {
		return f.fail("encode failed", err)
	}

	result := HashResult{
		Hash:      hasher.Sum(payload),
		Algorithm: hasher.Algorithm(),
		Size:      len(payload),
	}
	if opts.Canonical {
		result.Canonical = fmt.Sprintf("%x", payload)
	}
	return f.Success(result, func(w io.Writer) {
		fmt.Fprintln(w, result.Hash)
		f.VerboseLog("algorithm=%s size=%d", result.Algorithm, result.Size)
		if opts.Canonical {
			fmt.Fprintln(w, result.Canonical)
		}
	})
}
