package journal

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrMissingID is returned when an entry without an id reaches a
	// document operation that needs one.
	ErrMissingID = errors.New("journal: entry has no id")

	// ErrDuplicateID is returned when two entries in a document share an id.
	ErrDuplicateID = errors.New("journal: duplicate entry id")
)

// Normalize cleans user input before it is stored: text fields are trimmed
// and NFC-normalized, scenarios and benefits with empty text are dropped.
// The id and the date-time fields are left as given apart from trimming.
func Normalize(e Entry) Entry {
	out := Entry{
		ID:              strings.TrimSpace(e.ID),
		Date:            strings.TrimSpace(e.Date),
		Title:           cleanText(e.Title),
		Anxiety:         cleanText(e.Anxiety),
		EvidenceFor:     cleanText(e.EvidenceFor),
		EvidenceAgainst: cleanText(e.EvidenceAgainst),
		TinyAction:      cleanText(e.TinyAction),
		TinyWhen:        strings.TrimSpace(e.TinyWhen),
		Reset:           cleanText(e.Reset),
		Reflection:      cleanText(e.Reflection),
		Scenarios:       []Scenario{},
		Benefits:        []Benefit{},
	}
	for _, s := range e.Scenarios {
		text := cleanText(s.Text)
		if text == "" {
			continue
		}
		out.Scenarios = append(out.Scenarios, Scenario{Text: text, Prob: s.Prob, Plan: cleanText(s.Plan)})
	}
	for _, b := range e.Benefits {
		text := cleanText(b.Text)
		if text == "" {
			continue
		}
		out.Benefits = append(out.Benefits, Benefit{Text: text})
	}
	return out
}

func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Find returns the entry with the given id.
func (d Document) Find(id string) (Entry, bool) {
	if i := d.index(id); i >= 0 {
		return d.Entries[i], true
	}
	return Entry{}, false
}

// Upsert replaces the entry with the same id in place, or appends e when no
// entry has that id. Reports whether an existing entry was replaced.
func (d *Document) Upsert(e Entry) (bool, error) {
	if e.ID == "" {
		return false, ErrMissingID
	}
	if i := d.index(e.ID); i >= 0 {
		d.Entries[i] = e
		return true, nil
	}
	d.Entries = append(d.Entries, e)
	return false, nil
}

// Delete removes the entry with the given id, keeping the order of the rest.
// Reports whether an entry was removed.
func (d *Document) Delete(id string) bool {
	i := d.index(id)
	if i < 0 {
		return false
	}
	kept := make([]Entry, 0, len(d.Entries)-1)
	kept = append(kept, d.Entries[:i]...)
	kept = append(kept, d.Entries[i+1:]...)
	d.Entries = kept
	return true
}

// Validate checks document-level invariants: every entry has an id and ids
// are unique.
func (d Document) Validate() error {
	seen := make(map[string]int, len(d.Entries))
	for i, e := range d.Entries {
		if e.ID == "" {
			return fmt.Errorf("entry %d: %w", i, ErrMissingID)
		}
		if prev, ok := seen[e.ID]; ok {
			return fmt.Errorf("entries %d and %d share id %q: %w", prev, i, e.ID, ErrDuplicateID)
		}
		seen[e.ID] = i
	}
	return nil
}

func (d Document) index(id string) int {
	for i, e := range d.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
