package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/worrylog/internal/journal"
	"github.com/roach88/worrylog/internal/records"
	"github.com/roach88/worrylog/internal/render"
)

// EntryOptions holds the entry field flags shared by add and edit.
type EntryOptions struct {
	*RootOptions
	File            string
	Title           string
	Date            string
	Anxiety         string
	Scenarios       []string // "text|prob|plan"
	Benefits        []string
	EvidenceFor     string
	EvidenceAgainst string
	TinyAction      string
	TinyWhen        string
	Reset           string
	Reflection      string

	// Now supplies today's date for new entries. Defaults to time.Now.
	Now func() time.Time
}

func bindEntryFlags(cmd *cobra.Command, opts *EntryOptions) {
	fl := cmd.Flags()
	fl.StringVarP(&opts.File, "file", "f", "", "read the entry from a YAML or JSON file")
	fl.StringVar(&opts.Title, "title", "", "short title")
	fl.StringVar(&opts.Date, "date", "", "date of the worry (YYYY-MM-DD, default today)")
	fl.StringVar(&opts.Anxiety, "anxiety", "", "what you are anxious about")
	fl.StringArrayVar(&opts.Scenarios, "scenario", nil, `feared scenario as "text|prob|plan" (repeatable)`)
	fl.StringArrayVar(&opts.Benefits, "benefit", nil, "possible benefit (repeatable)")
	fl.StringVar(&opts.EvidenceFor, "evidence-for", "", "evidence the worry is justified")
	fl.StringVar(&opts.EvidenceAgainst, "evidence-against", "", "evidence against the worry")
	fl.StringVar(&opts.TinyAction, "tiny-action", "", "one small next step")
	fl.StringVar(&opts.TinyWhen, "tiny-when", "", "when to take the tiny action")
	fl.StringVar(&opts.Reset, "reset", "", "how you will reset (breathing, walk, ...)")
	fl.StringVar(&opts.Reflection, "reflection", "", "reflection afterwards")
}

// parseScenario parses "text|prob|plan". prob and plan are optional.
func parseScenario(s string) (journal.Scenario, error) {
	parts := strings.SplitN(s, "|", 3)
	sc := journal.Scenario{Text: parts[0]}
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		p, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(parts[1]), "%"), 64)
		if err != nil {
			return journal.Scenario{}, fmt.Errorf("scenario %q: invalid probability %q", s, parts[1])
		}
		sc.Prob = p
	}
	if len(parts) > 2 {
		sc.Plan = parts[2]
	}
	return sc, nil
}

// apply overlays the flags the user set onto e.
func (o *EntryOptions) apply(cmd *cobra.Command, e journal.Entry) (journal.Entry, error) {
	fl := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if fl.Changed(name) {
			*dst = v
		}
	}
	set("title", &e.Title, o.Title)
	set("date", &e.Date, o.Date)
	set("anxiety", &e.Anxiety, o.Anxiety)
	set("evidence-for", &e.EvidenceFor, o.EvidenceFor)
	set("evidence-against", &e.EvidenceAgainst, o.EvidenceAgainst)
	set("tiny-action", &e.TinyAction, o.TinyAction)
	set("tiny-when", &e.TinyWhen, o.TinyWhen)
	set("reset", &e.Reset, o.Reset)
	set("reflection", &e.Reflection, o.Reflection)

	if fl.Changed("scenario") {
		e.Scenarios = make([]journal.Scenario, 0, len(o.Scenarios))
		for _, raw := range o.Scenarios {
			sc, err := parseScenario(raw)
			if err != nil {
				return journal.Entry{}, err
			}
			e.Scenarios = append(e.Scenarios, sc)
		}
	}
	if fl.Changed("benefit") {
		e.Benefits = make([]journal.Benefit, 0, len(o.Benefits))
		for _, b := range o.Benefits {
			e.Benefits = append(e.Benefits, journal.Benefit{Text: b})
		}
	}
	return e, nil
}

var errEntryFile = errors.New("read entry file")

// readEntryFile loads an entry from --file.
func (o *EntryOptions) readEntryFile() (journal.Entry, bool, error) {
	if o.File == "" {
		return journal.Entry{}, false, nil
	}
	data, err := os.ReadFile(o.File)
	if err != nil {
		return journal.Entry{}, true, fmt.Errorf("%w: %w", errEntryFile, err)
	}
	e, err := journal.ParseEntry(data)
	return e, true, err
}

func (o *EntryOptions) today() string {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	return now().Format(time.DateOnly)
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EntryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a journal entry",
		Long: `Add a journal entry from flags, a YAML/JSON file, or both.
Flags override fields read from the file.

Example:
  worrylog add --title "Job interview" --anxiety "I will freeze" \
    --scenario "I blank on a question|50|Ask to come back to it" \
    --scenario "They reject me|20" --benefit "Practice"
  worrylog add -f entry.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, cmd)
		},
	}
	bindEntryFlags(cmd, opts)
	return cmd
}

func runAdd(opts *EntryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	e, _, err := opts.readEntryFile()
	if err != nil {
		return entryFileError(f, err)
	}
	e, err = opts.apply(cmd, e)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidEntry, err.Error(), nil)
	}
	e.ID = "" // always a new entry
	if strings.TrimSpace(e.Date) == "" {
		e.Date = opts.today()
	}

	s, err := openUnlocked(cmd, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	stored, err := s.records.Upsert(cmd.Context(), e)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeStorage, "failed to save entry", err)
	}
	opts.Logger().Info("entry added", "id", stored.ID)

	if f.Format == "json" {
		return f.Success(stored)
	}
	return f.Success(fmt.Sprintf("Added entry %s", stored.ID))
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EntryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a journal entry",
		Long: `Edit an existing entry in place. The entry keeps its id and position.

With --file the file replaces the entry's content; flags then override
individual fields. --scenario and --benefit replace the whole list.

Example:
  worrylog edit 0190f5c2-... --reflection "It went fine"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(opts, args[0], cmd)
		},
	}
	bindEntryFlags(cmd, opts)
	return cmd
}

func runEdit(opts *EntryOptions, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	fromFile, hasFile, err := opts.readEntryFile()
	if err != nil {
		return entryFileError(f, err)
	}

	s, err := openUnlocked(cmd, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	e, err := s.records.Get(ctx, id)
	if err != nil {
		return notFound(f, id, err)
	}
	if hasFile {
		e = fromFile
	}
	e, err = opts.apply(cmd, e)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidEntry, err.Error(), nil)
	}
	e.ID = id

	stored, err := s.records.Upsert(ctx, e)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeStorage, "failed to save entry", err)
	}
	opts.Logger().Info("entry updated", "id", stored.ID)

	if f.Format == "json" {
		return f.Success(stored)
	}
	return f.Success(fmt.Sprintf("Updated entry %s", stored.ID))
}

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Raw   bool
	Width int
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "show <id>",
		Short:         "Show one journal entry",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "print Markdown without terminal styling")
	cmd.Flags().IntVar(&opts.Width, "width", 80, "wrap width for styled output")
	cmd.Flags().StringVar(&opts.Style, "style", opts.Style, "Glamour style (dark, light, notty, ...)")

	return cmd
}

func runShow(opts *ShowOptions, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, err := openUnlocked(cmd, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	e, err := s.records.Get(cmd.Context(), id)
	if err != nil {
		return notFound(f, id, err)
	}

	if f.Format == "json" {
		return f.Success(entryView{Entry: e, ExpectedCost: journal.ExpectedCost(e.Scenarios)})
	}

	md := render.Markdown(e)
	if opts.Raw {
		_, err = fmt.Fprint(f.Writer, md)
		return err
	}
	_, err = fmt.Fprint(f.Writer, render.Terminal(md, opts.Style, opts.Width))
	return err
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "delete <id>",
		Aliases:       []string{"rm"},
		Short:         "Delete one journal entry",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runDelete(opts *RootOptions, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, err := openUnlocked(cmd, opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.records.Delete(cmd.Context(), id); err != nil {
		return notFound(f, id, err)
	}
	opts.Logger().Info("entry deleted", "id", id)

	if f.Format == "json" {
		return f.Success(map[string]string{"deleted": id})
	}
	return f.Success(fmt.Sprintf("Deleted entry %s", id))
}

// entryView is an entry plus its derived expected cost.
type entryView struct {
	journal.Entry
	ExpectedCost float64 `json:"expectedCost"`
}

func notFound(f *OutputFormatter, id string, err error) error {
	if errors.Is(err, records.ErrEntryNotFound) {
		return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("entry %q not found", id), nil)
	}
	return f.Fail(ExitFailure, ErrCodeStorage, "storage error", err)
}

func entryFileError(f *OutputFormatter, err error) error {
	if errors.Is(err, errEntryFile) {
		return f.Fail(ExitCommandError, ErrCodeFile, "failed to read entry file", err)
	}
	return f.Fail(ExitCommandError, ErrCodeInvalidEntry, "invalid entry file", err)
}
