// Package render turns journal entries into text for the terminal: a list
// table, a Markdown card per entry and a Glamour rendering of that card.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/roach88/worrylog/internal/journal"
)

// Untitled is shown for entries with an empty title.
const Untitled = "Untitled"

// Cost formats an expected cost with two decimals.
func Cost(scenarios []journal.Scenario) string {
	return strconv.FormatFloat(journal.ExpectedCost(scenarios), 'f', 2, 64)
}

func title(e journal.Entry) string {
	if strings.TrimSpace(e.Title) == "" {
		return Untitled
	}
	return e.Title
}

func percent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Table renders entries as a bordered table, one row per entry, in the
// order given.
func Table(entries []journal.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID,
			e.Date,
			title(e),
			strconv.Itoa(len(e.Scenarios)),
			Cost(e.Scenarios),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderHeader(true).
		BorderRow(false).
		Headers("ID", "Date", "Title", "Scenarios", "Expected cost").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

// Markdown renders one entry as a Markdown card. Sections with no content
// are left out.
func Markdown(e journal.Entry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", title(e))
	fmt.Fprintf(&b, "`%s` · Scenarios: %d · Expected cost: %s\n\n", e.Date, len(e.Scenarios), Cost(e.Scenarios))
	fmt.Fprintf(&b, "**Anxiety:** %s\n", e.Anxiety)

	if len(e.Scenarios) > 0 {
		b.WriteString("\n## Scenarios\n\n")
		for i, s := range e.Scenarios {
			fmt.Fprintf(&b, "%d. %s (prob %s)\n", i+1, s.Text, percent(s.Prob))
			if strings.TrimSpace(s.Plan) != "" {
				fmt.Fprintf(&b, "   - Plan: %s\n", s.Plan)
			}
		}
	}

	if len(e.Benefits) > 0 {
		texts := make([]string, len(e.Benefits))
		for i, bn := range e.Benefits {
			texts[i] = bn.Text
		}
		fmt.Fprintf(&b, "\n**Benefits:** %s\n", strings.Join(texts, " • "))
	}

	if e.EvidenceFor != "" || e.EvidenceAgainst != "" {
		fmt.Fprintf(&b, "\n**Evidence** For: %s | Against: %s\n", e.EvidenceFor, e.EvidenceAgainst)
	}

	if e.TinyAction != "" {
		fmt.Fprintf(&b, "\n**Tiny action:** %s", e.TinyAction)
		if e.TinyWhen != "" {
			fmt.Fprintf(&b, " @ %s", strings.Replace(e.TinyWhen, "T", " ", 1))
		}
		b.WriteString("\n")
	}

	if e.Reset != "" {
		fmt.Fprintf(&b, "\n**Reset:** %s\n", e.Reset)
	}
	if e.Reflection != "" {
		fmt.Fprintf(&b, "\n**Reflection:** %s\n", e.Reflection)
	}
	return b.String()
}

var (
	rendererMu sync.Mutex
	// Keyed by style and wrap width.
	renderers = map[string]*glamour.TermRenderer{}
)

// DefaultStyle is the Glamour style used when none is configured.
const DefaultStyle = "dark"

// Terminal renders Markdown with Glamour using a fixed standard style.
// If the renderer cannot be built or fails, md is returned unchanged.
func Terminal(md, style string, width int) string {
	if style == "" {
		style = DefaultStyle
	}
	if width < 20 {
		width = 20
	}

	key := style + ":" + strconv.Itoa(width)
	rendererMu.Lock()
	r := renderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			rendererMu.Unlock()
			return md
		}
		renderers[key] = rr
		r = rr
	}
	rendererMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n") + "\n"
}
