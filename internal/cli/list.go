package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/worrylog/internal/journal"
	"github.com/roach88/worrylog/internal/render"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Sort   string
	Search string
}

// ListResult is the JSON form of list output.
type ListResult struct {
	Entries   []entryView `json:"entries"`
	Total     int         `json:"total"`
	LastSaved *time.Time  `json:"lastSaved,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List journal entries",
		Long: `List entries with their expected cost.

Sort orders:
  newest  date, most recent first (default)
  oldest  date, earliest first
  cost    expected cost, highest first (alias: prob-desc)

--search keeps entries whose title, anxiety, reflection or reset contains
the query, ignoring case.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Sort, "sort", string(journal.SortNewest), fmt.Sprintf("sort order %v", journal.SortOrders))
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "case-insensitive search text")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	order, err := journal.ParseSortOrder(opts.Sort)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeUsage, err.Error(), nil)
	}

	s, err := openUnlocked(cmd, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	doc := s.records.Load(cmd.Context())
	entries := journal.Sort(journal.Filter(doc.Entries, opts.Search), order)
	opts.Logger().Debug("listing entries", "total", len(doc.Entries), "shown", len(entries), "sort", order)

	var lastSaved *time.Time
	if at, ok, err := s.records.LastSaved(cmd.Context()); err != nil {
		opts.Logger().Warn("reading last saved time failed", "error", err)
	} else if ok {
		lastSaved = &at
	}

	if f.Format == "json" {
		views := make([]entryView, 0, len(entries))
		for _, e := range entries {
			views = append(views, entryView{Entry: e, ExpectedCost: journal.ExpectedCost(e.Scenarios)})
		}
		return f.Success(ListResult{Entries: views, Total: len(views), LastSaved: lastSaved})
	}

	if len(entries) == 0 {
		return f.Success("No entries.")
	}
	out := render.Table(entries)
	if lastSaved != nil {
		out += "\nLast saved: " + lastSaved.Local().Format("2006-01-02 15:04")
	}
	return f.Success(out)
}
