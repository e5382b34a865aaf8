package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/docgraph/internal/event"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	After  int64
	Limit  int
	Verify bool
}

// EventsResult holds the events command output.
type EventsResult struct {
	Events   []event.Event `json:"events"`
	LastSeq  int64         `json:"last_seq"`
	Verified bool          `json:"verified,omitempty"`
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the event log",
		Long: `List committed create, fork and certify events in commit order.

Pass the last seen seq as --after to resume. --verify re-hashes the
payload of every create and fork event and fails on a mismatch.

Examples:
  docgraph events --after 10 --limit 100
  docgraph events --verify --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.After, "after", 0, "only events with seq greater than this")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum events to list (0 for all)")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "verify payload hashes")

	return cmd
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts.RootOptions)

	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return f.fail("", err)
	}
	defer e.Close()

	events, err := e.store.Events(cmd.Context(), opts.After, opts.Limit)
	if err != nil {
		return f.fail("failed to read events", err)
	}

	if events == nil {
		events = []event.Event{}
	}
	result := EventsResult{Events: events, LastSeq: opts.After}
	if n := len(events); n > 0 {
		result.LastSeq = events[n-1].Seq
	}

	if opts.Verify {
		for _, ev := range events {
			if err := ev.Verify(e.store.Hasher()); err != nil {
				return f.fail(fmt.Sprintf("event %d failed verification", ev.Seq), err)
			}
		}
		result.Verified = true
	}

	return f.Success(result, func(w io.Writer) {
		if len(events) == 0 {
			fmt.Fprintln(w, "No events.")
			return
		}
		for _, ev := range events {
			fmt.Fprintf(w, "%6d  %-8s  doc=%-6d  %s  %s  %s\n",
				ev.Seq, ev.Operation, ev.DocumentID, ev.Hash, ev.Creator, ev.Timestamp)
		}
		if result.Verified {
			fmt.Fprintf(w, "verified %d events\n", len(events))
		}
	})
}
