// Package docstore implements a schemaless, collection-keyed document store
// on top of a storage.Backend.
//
// The store keeps an in-memory mirror of the last persisted snapshot. Reads
// run concurrently against the mirror. Every write holds the store's write
// lock for the whole reload, mutate, persist sequence, so concurrent writers
// never overwrite each other's changes. Writes are copy-on-write: the mirror
// is swapped only after the backend accepted the new snapshot.
package docstore

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/expense-tracker/internal/errs"
	"github.com/mmynk/expense-tracker/internal/storage"
)

// Predicate selects documents in FindOne and Filter. A nil Predicate matches everything.
// Predicates see the stored document and must not modify it.
type Predicate func(doc *storage.Document) bool

// Querier is the set of operations shared by Store and Tx. Repositories are
// written against Querier so the same code runs inside and outside a transaction.
type Querier interface {
	// FindByID returns the document with the given _id, or nil if absent.
	FindByID(ctx context.Context, collection, id string) (*storage.Document, error)
	// FindOne returns the first matching document in store order, or nil.
	FindOne(ctx context.Context, collection string, pred Predicate) (*storage.Document, error)
	// Filter returns all matching documents in store order.
	Filter(ctx context.Context, collection string, pred Predicate) ([]*storage.Document, error)
	// Create assigns _id, createdAt and updatedAt, appends the document and returns the stored copy.
	Create(ctx context.Context, collection string, doc *storage.Document) (*storage.Document, error)
	// Update merges fields into the document and refreshes updatedAt; nil if absent.
	Update(ctx context.Context, collection, id string, fields *storage.Document) (*storage.Document, error)
	// Delete removes the document and reports whether it existed.
	Delete(ctx context.Context, collection, id string) (bool, error)
	// RunInTx runs fn with a Querier whose writes commit together or not at all.
	RunInTx(ctx context.Context, fn func(q Querier) error) error
}

// Ensure Store implements Querier
var _ Querier = (*Store)(nil)

// Store is the document store. Construct it once with Open and share it.
type Store struct {
	mu      sync.RWMutex
	backend storage.Backend
	mirror  *storage.Snapshot
	// stale is set when startup recovery could not make the backend readable;
	// the next write then persists the mirror without reloading.
	stale bool

	newID   func() string
	now     func() time.Time
	metrics *Metrics
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics records operation metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Open loads the backend's snapshot into a new Store.
//
// A backend that cannot be read or decoded does not fail Open: the store
// starts empty and logs a warning. Corrupt data is moved aside first when the
// backend supports it, so the next write does not destroy it.
func Open(ctx context.Context, backend storage.Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend: backend,
		newID:   uuid.NewString,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	snap, err := backend.Load(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("Durable data unreadable, starting with an empty store", "error", err)
		snap = storage.NewSnapshot()
		s.stale = true
		if q, ok := backend.(storage.Quarantiner); ok && errors.Is(err, storage.ErrCorrupt) {
			if dst, qErr := q.Quarantine(ctx); qErr != nil {
				s.logger.Error("Failed to move corrupt data aside", "error", qErr)
			} else {
				s.logger.Warn("Corrupt data moved aside", "path", dst)
				s.stale = false
			}
		}
	}

	s.mirror = snap
	s.metrics.setDocuments(snap)
	s.logger.Info("Document store opened", "collections", len(snap.Names()), "documents", snap.Len())
	return s, nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Refresh reloads the mirror from the backend.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.reloadLocked(ctx); err != nil {
		return &errs.StorageError{Op: "refresh", Err: err}
	}
	return nil
}

// Collections returns the collection names in the mirror.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mirror.Names()
}

// Count returns the number of documents in a collection.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mirror.Collection(collection))
}

// FindByID returns a copy of the document with the given id, or nil if absent.
func (s *Store) FindByID(ctx context.Context, collection, id string) (*storage.Document, error) {
	docs, err := s.read(ctx, "findById", collection)
	if err != nil {
		return nil, err
	}
	return cloneOrNil(findByID(docs, id)), nil
}

// FindOne returns a copy of the first matching document, or nil.
func (s *Store) FindOne(ctx context.Context, collection string, pred Predicate) (*storage.Document, error) {
	docs, err := s.read(ctx, "findOne", collection)
	if err != nil {
		return nil, err
	}
	return cloneOrNil(findOne(docs, pred)), nil
}

// Filter returns copies of all matching documents in store order.
func (s *Store) Filter(ctx context.Context, collection string, pred Predicate) ([]*storage.Document, error) {
	docs, err := s.read(ctx, "filter", collection)
	if err != nil {
		return nil, err
	}
	return filter(docs, pred), nil
}

// Create stores a new document and returns the stored copy.
func (s *Store) Create(ctx context.Context, collection string, doc *storage.Document) (*storage.Document, error) {
	var created *storage.Document
	err := s.write(ctx, "create", collection, func(snap *storage.Snapshot) (bool, error) {
		created = s.create(snap, collection, doc)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return created.Clone(), nil
}

// Update merges fields into an existing document. It returns nil when the id is absent.
func (s *Store) Update(ctx context.Context, collection, id string, fields *storage.Document) (*storage.Document, error) {
	var updated *storage.Document
	err := s.write(ctx, "update", collection, func(snap *storage.Snapshot) (bool, error) {
		updated = s.update(snap, collection, id, fields)
		return updated != nil, nil
	})
	if err != nil || updated == nil {
		return nil, err
	}
	return updated.Clone(), nil
}

// Delete removes a document and reports whether it existed.
func (s *Store) Delete(ctx context.Context, collection, id string) (bool, error) {
	var found bool
	err := s.write(ctx, "delete", collection, func(snap *storage.Snapshot) (bool, error) {
		found = remove(snap, collection, id)
		return found, nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// RunInTx runs fn inside a transaction. Writes made through the Querier passed
// to fn are applied to a private snapshot and persisted once when fn returns
// nil; if fn returns an error nothing is persisted.
//
// The store's write lock is held while fn runs, so fn must use only the
// Querier it is given, never the Store itself.
func (s *Store) RunInTx(ctx context.Context, fn func(q Querier) error) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.reloadLocked(ctx)
	if err != nil {
		s.metrics.observe("tx", "", err)
		return &errs.StorageError{Op: "tx", Err: err}
	}

	tx := &Tx{store: s, snap: base.Clone()}
	err = fn(tx)
	tx.closed = true
	if err != nil {
		s.metrics.observe("tx", "", err)
		s.logger.Debug("Transaction rolled back", "error", err)
		return err
	}
	if !tx.dirty {
		s.metrics.observe("tx", "", nil)
		return nil
	}

	if err := s.persistLocked(ctx, tx.snap); err != nil {
		s.metrics.observe("tx", "", err)
		return &errs.StorageError{Op: "tx", Err: err}
	}
	s.metrics.observe("tx", "", nil)
	s.logger.Debug("Transaction committed", "writes", tx.writes, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// read returns the current records of a collection. The returned slice is
// never modified, so it can be used after the lock is released.
func (s *Store) read(ctx context.Context, op, collection string) ([]*storage.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	docs := s.mirror.Collection(collection)
	s.mu.RUnlock()
	s.metrics.observe(op, collection, nil)
	return docs, nil
}

// write runs mutate against a copy of the freshly reloaded snapshot under the
// write lock and persists the copy when mutate reports a change.
func (s *Store) write(ctx context.Context, op, collection string, mutate func(snap *storage.Snapshot) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.reloadLocked(ctx)
	if err != nil {
		s.metrics.observe(op, collection, err)
		return &errs.StorageError{Op: op, Collection: collection, Err: err}
	}

	work := base.Clone()
	changed, err := mutate(work)
	if err != nil {
		s.metrics.observe(op, collection, err)
		return err
	}
	if !changed {
		s.metrics.observe(op, collection, nil)
		return nil
	}

	if err := s.persistLocked(ctx, work); err != nil {
		s.metrics.observe(op, collection, err)
		s.logger.Error("Failed to persist document store", "op", op, "collection", collection, "error", err)
		return &errs.StorageError{Op: op, Collection: collection, Err: err}
	}
	s.metrics.observe(op, collection, nil)
	return nil
}

// reloadLocked replaces the mirror with the backend's current snapshot and
// returns it. Caller must hold the write lock.
func (s *Store) reloadLocked(ctx context.Context) (*storage.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.stale {
		return s.mirror, nil
	}
	snap, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.mirror = snap
	return snap, nil
}

// persistLocked saves snap and makes it the mirror. Caller must hold the write lock.
func (s *Store) persistLocked(ctx context.Context, snap *storage.Snapshot) error {
	start := time.Now()
	if err := s.backend.Save(ctx, snap); err != nil {
		return err
	}
	s.metrics.observePersist(time.Since(start))
	s.mirror = snap
	s.stale = false
	s.metrics.setDocuments(snap)
	return nil
}

func (s *Store) timestamp() string {
	return storage.FormatTime(s.now())
}

// create builds the stored form of doc (_id first, metadata last) and appends it.
func (s *Store) create(snap *storage.Snapshot, collection string, doc *storage.Document) *storage.Document {
	ts := s.timestamp()
	stored := storage.NewDocument()
	stored.Set(storage.KeyID, s.newID())
	if doc != nil {
		for _, k := range doc.Keys() {
			if isReserved(k) {
				continue
			}
			raw, _ := doc.Raw(k)
			stored.SetRaw(k, raw)
		}
	}
	stored.Set(storage.KeyCreatedAt, ts)
	stored.Set(storage.KeyUpdatedAt, ts)

	docs := snap.Collection(collection)
	next := make([]*storage.Document, len(docs), len(docs)+1)
	copy(next, docs)
	snap.SetCollection(collection, append(next, stored))
	return stored
}

// update replaces the document with a merged copy. Nil when id is absent.
func (s *Store) update(snap *storage.Snapshot, collection, id string, fields *storage.Document) *storage.Document {
	docs := snap.Collection(collection)
	idx := indexOf(docs, id)
	if idx < 0 {
		return nil
	}

	merged := docs[idx].Clone()
	if fields != nil {
		for _, k := range fields.Keys() {
			if k == storage.KeyID || k == storage.KeyCreatedAt {
				continue
			}
			raw, _ := fields.Raw(k)
			merged.SetRaw(k, raw)
		}
	}
	merged.Set(storage.KeyUpdatedAt, s.timestamp())

	next := make([]*storage.Document, len(docs))
	copy(next, docs)
	next[idx] = merged
	snap.SetCollection(collection, next)
	return merged
}

func remove(snap *storage.Snapshot, collection, id string) bool {
	docs := snap.Collection(collection)
	idx := indexOf(docs, id)
	if idx < 0 {
		return false
	}
	next := make([]*storage.Document, 0, len(docs)-1)
	next = append(next, docs[:idx]...)
	next = append(next, docs[idx+1:]...)
	snap.SetCollection(collection, next)
	return true
}

func isReserved(key string) bool {
	return key == storage.KeyID || key == storage.KeyCreatedAt || key == storage.KeyUpdatedAt
}

func indexOf(docs []*storage.Document, id string) int {
	for i, d := range docs {
		if d.ID() == id {
			return i
		}
	}
	return -1
}

func findByID(docs []*storage.Document, id string) *storage.Document {
	if i := indexOf(docs, id); i >= 0 {
		return docs[i]
	}
	return nil
}

func findOne(docs []*storage.Document, pred Predicate) *storage.Document {
	for _, d := range docs {
		if pred == nil || pred(d) {
			return d
		}
	}
	return nil
}

func filter(docs []*storage.Document, pred Predicate) []*storage.Document {
	out := []*storage.Document{}
	for _, d := range docs {
		if pred == nil || pred(d) {
			out = append(out, d.Clone())
		}
	}
	return out
}

func cloneOrNil(doc *storage.Document) *storage.Document {
	if doc == nil {
		return nil
	}
	return doc.Clone()
}
