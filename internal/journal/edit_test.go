package journal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_DropsEmptyRows(t *testing.T) {
	e := Normalize(Entry{
		ID:    "e1",
		Title: "  Flight tomorrow  ",
		Scenarios: []Scenario{
			{Text: "delay", Prob: 30, Plan: " bring a book "},
			{Text: "   ", Prob: 90, Plan: "ignored"},
			{Text: "", Prob: 10},
		},
		Benefits: []Benefit{{Text: ""}, {Text: " see family "}},
	})

	assert.Equal(t, "Flight tomorrow", e.Title)
	require.Len(t, e.Scenarios, 1)
	assert.Equal(t, Scenario{Text: "delay", Prob: 30, Plan: "bring a book"}, e.Scenarios[0])
	assert.Equal(t, []Benefit{{Text: "see family"}}, e.Benefits)
}

func TestNormalize_NonNilSlices(t *testing.T) {
	e := Normalize(Entry{ID: "e1"})
	assert.NotNil(t, e.Scenarios)
	assert.NotNil(t, e.Benefits)
}

func TestNormalize_NFC(t *testing.T) {
	// "é" as e + combining acute accent
	decomposed := "cafe\u0301"
	e := Normalize(Entry{Title: decomposed})
	assert.Equal(t, "caf\u00e9", e.Title)
}

func TestUpsert_AppendsNew(t *testing.T) {
	d := NewDocument()

	replaced, err := d.Upsert(Entry{ID: "a"})
	require.NoError(t, err)
	assert.False(t, replaced)

	replaced, err = d.Upsert(Entry{ID: "b"})
	require.NoError(t, err)
	assert.False(t, replaced)

	assert.Equal(t, []string{"a", "b"}, ids(d.Entries))
}

func TestUpsert_ReplacesInPlace(t *testing.T) {
	d := Document{Entries: []Entry{{ID: "a"}, {ID: "b", Title: "old"}, {ID: "c"}}}

	replaced, err := d.Upsert(Entry{ID: "b", Title: "new"})
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, []string{"a", "b", "c"}, ids(d.Entries))
	assert.Equal(t, "new", d.Entries[1].Title)
}

func TestUpsert_RequiresID(t *testing.T) {
	d := NewDocument()
	_, err := d.Upsert(Entry{Title: "no id"})
	assert.True(t, errors.Is(err, ErrMissingID))
	assert.Empty(t, d.Entries)
}

func TestDelete_KeepsOthersInOrder(t *testing.T) {
	d := Document{Entries: []Entry{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}}
	before := d.Clone()

	assert.True(t, d.Delete("b"))
	assert.Equal(t, []string{"a", "c", "d"}, ids(d.Entries))

	assert.False(t, d.Delete("b"))
	assert.Equal(t, []string{"a", "c", "d"}, ids(d.Entries))

	// the clone taken before is unaffected
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(before.Entries))
}

func TestFind(t *testing.T) {
	d := Document{Entries: []Entry{{ID: "a", Title: "A"}}}

	e, ok := d.Find("a")
	require.True(t, ok)
	assert.Equal(t, "A", e.Title)

	_, ok = d.Find("z")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Document{Entries: []Entry{{ID: "a"}, {ID: "b"}}}.Validate())
	assert.ErrorIs(t, Document{Entries: []Entry{{ID: "a"}, {ID: "a"}}}.Validate(), ErrDuplicateID)
	assert.ErrorIs(t, Document{Entries: []Entry{{ID: ""}}}.Validate(), ErrMissingID)
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("e-1", "e-2")
	assert.Equal(t, "e-1", gen.Generate())
	assert.Equal(t, "e-2", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestUUIDv7Generator_Unique(t *testing.T) {
	gen := UUIDv7Generator{}
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := gen.Generate()
		assert.Len(t, id, 36)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
