package records

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/worrylog/internal/journal"
	"github.com/roach88/worrylog/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestRecords opens a temp SQLite store and wraps it.
func createTestRecords(t *testing.T, opts ...Option) (*Store, *store.Store) {
	t.Helper()
	kv, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return New(kv, opts...), kv
}

func twoEntryDoc() journal.Document {
	return journal.Document{Entries: []journal.Entry{
		{
			ID:        "a",
			Date:      "2026-01-02",
			Title:     "First",
			Scenarios: []journal.Scenario{{Text: "s", Prob: 50, Plan: "p"}},
			Benefits:  []journal.Benefit{{Text: "b"}},
		},
		{
			ID:        "b",
			Date:      "2026-01-03",
			Title:     "Second",
			Scenarios: []journal.Scenario{},
			Benefits:  []journal.Benefit{},
		},
	}}
}

func TestLoad_Absent(t *testing.T) {
	rs, _ := createTestRecords(t)
	assert.Equal(t, journal.NewDocument(), rs.Load(context.Background()))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	rs, _ := createTestRecords(t)
	ctx := context.Background()

	doc := twoEntryDoc()
	require.NoError(t, rs.Save(ctx, doc))
	assert.Equal(t, doc, rs.Load(ctx))
}

func TestSaveLoad_NilListsLoadAsEmpty(t *testing.T) {
	rs, _ := createTestRecords(t)
	ctx := context.Background()

	require.NoError(t, rs.Save(ctx, journal.Document{Entries: []journal.Entry{{ID: "n", Title: "Nil lists"}}}))

	got := rs.Load(ctx)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, []journal.Scenario{}, got.Entries[0].Scenarios)
	assert.Equal(t, []journal.Benefit{}, got.Entries[0].Benefits)
}

func TestSave_Overwrites(t *testing.T) {
	rs, _ := createTestRecords(t)
	ctx := context.Background()

	require.NoError(t, rs.Save(ctx, twoEntryDoc()))
	require.NoError(t, rs.Save(ctx, journal.NewDocument()))
	assert.Empty(t, rs.Load(ctx).Entries)
}

func TestLoad_CorruptSelfHeals(t *testing.T) {
	rs, kv := createTestRecords(t)
	ctx := context.Background()

	for _, raw := range []string{"{not json", "", "null", `"a string"`} {
		require.NoError(t, kv.Put(ctx, DocumentKey, raw))
		assert.Equal(t, journal.NewDocument(), rs.Load(ctx), "raw=%q", raw)
	}

	require.NoError(t, rs.Save(ctx, twoEntryDoc()))
	assert.Equal(t, twoEntryDoc(), rs.Load(ctx))
}

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (string, error) { return "", errors.New("disk on fire") }
func (brokenKV) Put(context.Context, string, string) error { return errors.New("disk on fire") }
func (brokenKV) Delete(context.Context, ...string) error { return errors.New("disk on fire") }

func TestLoad_ReadErrorIsEmpty(t *testing.T) {
	rs := New(brokenKV{}, WithLogger(quietLogger()))
	assert.Equal(t, journal.NewDocument(), rs.Load(context.Background()))
}

// flakyKV fails the next failGets reads of the journal document.
type flakyKV struct {
	*store.Store
	failGets int
	puts     int
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, error) {
	if key == DocumentKey && f.failGets > 0 {
		f.failGets--
		return "", errors.New("database is locked")
	}
	return f.Store.Get(ctx, key)
}

func (f *flakyKV) Put(ctx context.Context, key, value string) error {
	f.puts++
	return f.Store.Put(ctx, key, value)
}

func TestWriteBack_ReadErrorKeepsEntries(t *testing.T) {
	_, kv := createTestRecords(t)
	flaky := &flakyKV{Store: kv}
	rs := New(flaky, WithLogger(quietLogger()))
	ctx := context.Background()
	require.NoError(t, rs.Save(ctx, twoEntryDoc()))
	flaky.puts = 0

	flaky.failGets = 1
	_, err := rs.Upsert(ctx, journal.Entry{Title: "third"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEntryNotFound)

	flaky.failGets = 1
	err = rs.Delete(ctx, "a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEntryNotFound)

	flaky.failGets = 1
	_, err = rs.Get(ctx, "a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEntryNotFound)

	flaky.failGets = 1
	assert.Error(t, rs.Export(ctx, &bytes.Buffer{}))

	assert.Zero(t, flaky.puts, "nothing is written after a failed read")
	assert.Equal(t, twoEntryDoc(), rs.Load(ctx))
}

func TestLastSaved(t *testing.T) {
	rs, kv := createTestRecords(t)
	ctx := context.Background()
	at := time.Date(2026, 4, 2, 8, 15, 0, 0, time.UTC)
	kv.SetClock(func() time.Time { return at })

	_, ok, err := rs.LastSaved(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rs.Save(ctx, twoEntryDoc()))
	got, ok, err := rs.LastSaved(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.Equal(at), "LastSaved = %v, want %v", got, at)

	_, ok, err = New(brokenKV{}, WithLogger(quietLogger())).LastSaved(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "backends without write times report nothing")
}

func TestSave_PropagatesWriteError(t *testing.T) {
	rs := New(brokenKV{}, WithLogger(quietLogger()))
	assert.Error(t, rs.Save(context.Background(), twoEntryDoc()))
}

func TestWipe_RemovesDocumentAndPIN(t *testing.T) {
	rs, kv := createTestRecords(t)
	ctx := context.Background()

	require.NoError(t, rs.Save(ctx, twoEntryDoc()))
	require.NoError(t, rs.SetPINDigest(ctx, "deadbeef"))
	require.NoError(t, kv.Put(ctx, "unrelated", "keep"))

	require.NoError(t, rs.Wipe(ctx))

	assert.Empty(t, rs.Load(ctx).Entries)
	_, ok, err := rs.PINDigest(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := kv.Get(ctx, "unrelated")
	require.NoError(t, err)
	assert.Equal(t, "keep", got)
	_, err = kv.Get(ctx, DocumentKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpsert_NewEntryGetsIDAndIsNormalized(t *testing.T) {
	rs, _ := createTestRecords(t, WithIDGenerator(journal.NewFixedGenerator("id-1", "id-2")))
	ctx := context.Background()

	e, err := rs.Upsert(ctx, journal.Entry{
		Title:     "  Trip ",
		Scenarios: []journal.Scenario{{Text: "", Prob: 10}, {Text: "lost luggage", Prob: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", e.ID)
	assert.Equal(t, "Trip", e.Title)
	assert.Len(t, e.Scenarios, 1)

	e2, err := rs.Upsert(ctx, journal.Entry{Title: "Second"})
	require.NoError(t, err)
	assert.Equal(t, "id-2", e2.ID)

	doc := rs.Load(ctx)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "id-1", doc.Entries[0].ID)
	assert.Equal(t, "id-2", doc.Entries[1].ID)
}

func TestUpsert_EditKeepsIDAndPosition(t *testing.T) {
	rs, _ := createTestRecords(t, WithIDGenerator(journal.NewFixedGenerator()))
	ctx := context.Background()
	require.NoError(t, rs.Save(ctx, twoEntryDoc()))

	edited, err := rs.Get(ctx, "a")
	require.NoError(t, err)
	edited.Title = "First, revised"

	// FixedGenerator with no ids panics if a new id is requested.
	got, err := rs.Upsert(ctx, edited)
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	doc := rs.Load(ctx)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "a", doc.Entries[0].ID)
	assert.Equal(t, "First, revised", doc.Entries[0].Title)
	assert.Equal(t, "b", doc.Entries[1].ID)
}

func TestDelete_RemovesExactlyOne(t *testing.T) {
	rs, _ := createTestRecords(t)
	ctx := context.Background()

	doc := twoEntryDoc()
	doc.Entries = append(doc.Entries, journal.Entry{ID: "c", Scenarios: []journal.Scenario{}, Benefits: []journal.Benefit{}})
	require.NoError(t, rs.Save(ctx, doc))

	require.NoError(t, rs.Delete(ctx, "b"))

	got := rs.Load(ctx)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, doc.Entries[0], got.Entries[0])
	assert.Equal(t, doc.Entries[2], got.Entries[1])
}

func TestDelete_Unknown(t *testing.T) {
	rs, _ := createTestRecords(t)
	ctx := context.Background()
	require.NoError(t, rs.Save(ctx, twoEntryDoc()))

	err := rs.Delete(ctx, "zzz")
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.Equal(t, twoEntryDoc(), rs.Load(ctx))
}

func TestGet_Unknown(t *testing.T) {
	rs, _ := createTestRecords(t)
	_, err := rs.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestExport_PrettyJSON(t *testing.T) {
	rs, _ := createTestRecords(t)
	ctx := context.Background()
	require.NoError(t, rs.Save(ctx, twoEntryDoc()))

	var buf bytes.Buffer
	require.NoError(t, rs.Export(ctx, &buf))

	want, err := journal.EncodePretty(twoEntryDoc())
	require.NoError(t, err)
	assert.Equal(t, string(want), buf.String())
	assert.Contains(t, buf.String(), "\n  \"entries\": [")
}

func TestImport_ReplacesWholesale(t *testing.T) {
	rs, _ := createTestRecords(t)
	ctx := context.Background()
	require.NoError(t, rs.Save(ctx, twoEntryDoc()))

	doc, err := rs.Import(ctx, strings.NewReader(`{"entries":[{"id":"z","title":"Imported"}]}`))
	require.NoError(t, err)
	require.Len(t, doc.Entries, 1)

	got := rs.Load(ctx)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "z", got.Entries[0].ID)
	assert.Equal(t, "Imported", got.Entries[0].Title)
}

func TestImport_InvalidLeavesStateUnchanged(t *testing.T) {
	rs, _ := createTestRecords(t)
	ctx := context.Background()
	require.NoError(t, rs.Save(ctx, twoEntryDoc()))

	for _, payload := range []string{
		"not json at all",
		`{"entries": [{"id": "x"}, {"id": "x"}]}`,
		`{"entries": "nope"}`,
	} {
		_, err := rs.Import(ctx, strings.NewReader(payload))
		require.Error(t, err, payload)
		assert.ErrorIs(t, err, ErrInvalidImport)
		assert.Equal(t, twoEntryDoc(), rs.Load(ctx), "state changed after %q", payload)
	}
}

func TestImport_NormalizesEntries(t *testing.T) {
	rs, _ := createTestRecords(t)
	ctx := context.Background()

	doc, err := rs.Import(ctx, strings.NewReader(`{"entries":[{"id":"m","title":" Move ",
		"scenarios":[{"text":"","prob":10},{"text":"boxes lost","prob":20}],
		"benefits":[{"text":""},{"text":"fresh start"}]}]}`))
	require.NoError(t, err)

	want := []journal.Entry{{
		ID:        "m",
		Title:     "Move",
		Scenarios: []journal.Scenario{{Text: "boxes lost", Prob: 20}},
		Benefits:  []journal.Benefit{{Text: "fresh start"}},
	}}
	assert.Equal(t, want, doc.Entries)
	assert.Equal(t, want, rs.Load(ctx).Entries)
}

func TestImport_IDsCollidingAfterTrimAreRejected(t *testing.T) {
	rs, _ := createTestRecords(t)
	ctx := context.Background()
	require.NoError(t, rs.Save(ctx, twoEntryDoc()))

	_, err := rs.Import(ctx, strings.NewReader(`{"entries":[{"id":"x"},{"id":" x "}]}`))
	assert.ErrorIs(t, err, ErrInvalidImport)
	assert.Equal(t, twoEntryDoc(), rs.Load(ctx))
}

func TestExportImport_RoundTrip(t *testing.T) {
	src, _ := createTestRecords(t)
	dst, _ := createTestRecords(t)
	ctx := context.Background()
	require.NoError(t, src.Save(ctx, twoEntryDoc()))

	var buf bytes.Buffer
	require.NoError(t, src.Export(ctx, &buf))

	_, err := dst.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, twoEntryDoc(), dst.Load(ctx))
}

func TestPINDigest(t *testing.T) {
	rs, _ := createTestRecords(t)
	ctx := context.Background()

	_, ok, err := rs.PINDigest(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rs.SetPINDigest(ctx, "abc123"))
	d, ok, err := rs.PINDigest(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", d)
}
