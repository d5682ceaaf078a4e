// Package records is the journal's record store: it loads and saves the
// whole journal document and the PIN digest through a key-value backend.
//
// Load never fails. A missing or corrupt document reads as an empty one,
// and the next Save overwrites it. Operations that write the document back
// (Upsert, Delete) refuse to run when the stored document cannot be read,
// so a storage failure never replaces existing entries.
package records

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/worrylog/internal/journal"
	"github.com/roach88/worrylog/internal/store"
)

// Storage keys. They match the original browser storage layout.
const (
	DocumentKey  = "aj_db_v1"
	PINDigestKey = "aj_pin_hash_v1"
)

// ErrInvalidImport is returned by Import when the payload is rejected.
// Persisted state is unchanged when it is returned.
var ErrInvalidImport = errors.New("records: invalid import")

// ErrEntryNotFound is returned when an operation names an unknown entry id.
var ErrEntryNotFound = errors.New("records: entry not found")

// KV is the persistence the record store needs.
// Get must return store.ErrNotFound for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Store reads and writes the journal document and the PIN digest.
type Store struct {
	kv     KV
	ids    journal.IDGenerator
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the id generator used for new entries.
func WithIDGenerator(g journal.IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns a record store over kv.
func New(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		ids:    journal.UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the persisted document, or an empty document when nothing
// usable is stored. Read errors are logged and also read as empty.
func (s *Store) Load(ctx context.Context) journal.Document {
	doc, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("reading journal failed, using empty document", "error", err)
		return journal.NewDocument()
	}
	return doc
}

// load is Load for callers that write back: an absent or malformed
// document is empty, but a failed read is returned.
func (s *Store) load(ctx context.Context) (journal.Document, error) {
	raw, err := s.kv.Get(ctx, DocumentKey)
	if errors.Is(err, store.ErrNotFound) {
		return journal.NewDocument(), nil
	}
	if err != nil {
		return journal.Document{}, fmt.Errorf("load: %w", err)
	}

	doc, err := journal.DecodeStored([]byte(raw))
	if err != nil {
		s.logger.Debug("stored journal is malformed, using empty document", "error", err)
		return journal.NewDocument(), nil
	}
	return doc, nil
}

// Save overwrites the persisted document with doc. Nil scenario and
// benefit lists are stored as empty lists, so they load back as [] rather
// than nil.
func (s *Store) Save(ctx context.Context, doc journal.Document) error {
	data, err := journal.Encode(doc)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := s.kv.Put(ctx, DocumentKey, string(data)); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	s.logger.Debug("journal saved", "entries", len(doc.Entries))
	return nil
}

// Wipe deletes the journal document and the PIN digest together.
func (s *Store) Wipe(ctx context.Context) error {
	if err := s.kv.Delete(ctx, DocumentKey, PINDigestKey); err != nil {
		return fmt.Errorf("wipe: %w", err)
	}
	s.logger.Info("local journal data wiped")
	return nil
}

// Upsert normalizes e and stores it. An entry without an id gets a fresh
// one and is appended; an entry whose id exists replaces it in place.
// Returns the stored entry.
func (s *Store) Upsert(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	e = journal.Normalize(e)
	if e.ID == "" {
		e.ID = s.ids.Generate()
	}

	doc, err := s.load(ctx)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("upsert: %w", err)
	}
	replaced, err := doc.Upsert(e)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("upsert: %w", err)
	}
	if err := s.Save(ctx, doc); err != nil {
		return journal.Entry{}, err
	}
	s.logger.Debug("entry stored", "id", e.ID, "replaced", replaced)
	return e, nil
}

// Get returns the entry with the given id, or ErrEntryNotFound.
func (s *Store) Get(ctx context.Context, id string) (journal.Entry, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("get: %w", err)
	}
	e, ok := doc.Find(id)
	if !ok {
		return journal.Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return e, nil
}

// Delete removes the entry with the given id, or returns ErrEntryNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	doc, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if !doc.Delete(id) {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if err := s.Save(ctx, doc); err != nil {
		return err
	}
	s.logger.Debug("entry deleted", "id", id)
	return nil
}

// Export writes the whole document to w as indented JSON.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	doc, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	data, err := journal.EncodePretty(doc)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// Import replaces the persisted document with the one read from r.
// It is all or nothing: on any error the existing document is untouched.
func (s *Store) Import(ctx context.Context, r io.Reader) (journal.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return journal.Document{}, fmt.Errorf("import: read: %w", err)
	}

	doc, err := journal.Decode(data)
	if err != nil {
		return journal.Document{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	for i, e := range doc.Entries {
		doc.Entries[i] = journal.Normalize(e)
	}
	if err := doc.Validate(); err != nil {
		return journal.Document{}, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	if err := s.Save(ctx, doc); err != nil {
		return journal.Document{}, fmt.Errorf("import: %w", err)
	}
	s.logger.Info("journal imported", "entries", len(doc.Entries))
	return doc, nil
}

// PINDigest returns the stored PIN digest and whether one is set.
func (s *Store) PINDigest(ctx context.Context) (string, bool, error) {
	d, err := s.kv.Get(ctx, PINDigestKey)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read pin digest: %w", err)
	}
	if d == "" {
		return "", false, nil
	}
	return d, true, nil
}

// SetPINDigest stores the PIN digest, replacing any previous one.
func (s *Store) SetPINDigest(ctx context.Context, digest string) error {
	if err := s.kv.Put(ctx, PINDigestKey, digest); err != nil {
		return fmt.Errorf("write pin digest: %w", err)
	}
	return nil
}

// stamper is implemented by backends that record write times.
type stamper interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}

// LastSaved reports when the journal document was last written. ok is
// false when nothing has been saved or the backend keeps no write times.
func (s *Store) LastSaved(ctx context.Context) (at time.Time, ok bool, err error) {
	st, isStamper := s.kv.(stamper)
	if !isStamper {
		return time.Time{}, false, nil
	}
	at, err = st.UpdatedAt(ctx, DocumentKey)
	if errors.Is(err, store.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("last saved: %w", err)
	}
	return at, !at.IsZero(), nil
}
