package docstore

import (
	"context"
	"errors"

	"github.com/mmynk/expense-tracker/internal/storage"
)

// ErrTxClosed is returned when a Tx is used after its RunInTx call returned.
var ErrTxClosed = errors.New("transaction already closed")

// Ensure Tx implements Querier
var _ Querier = (*Tx)(nil)

// Tx is a Querier over a private copy of the store's snapshot. Reads inside
// the transaction see its own uncommitted writes.
type Tx struct {
	store  *Store
	snap   *storage.Snapshot
	closed bool
	dirty  bool
	writes int
}

func (tx *Tx) check(ctx context.Context) error {
	if tx.closed {
		return ErrTxClosed
	}
	return ctx.Err()
}

// FindByID returns a copy of the document with the given id, or nil if absent.
func (tx *Tx) FindByID(ctx context.Context, collection, id string) (*storage.Document, error) {
	if err := tx.check(ctx); err != nil {
		return nil, err
	}
	return cloneOrNil(findByID(tx.snap.Collection(collection), id)), nil
}

// FindOne returns a copy of the first matching document, or nil.
func (tx *Tx) FindOne(ctx context.Context, collection string, pred Predicate) (*storage.Document, error) {
	if err := tx.check(ctx); err != nil {
		return nil, err
	}
	return cloneOrNil(findOne(tx.snap.Collection(collection), pred)), nil
}

// Filter returns copies of all matching documents.
func (tx *Tx) Filter(ctx context.Context, collection string, pred Predicate) ([]*storage.Document, error) {
	if err := tx.check(ctx); err != nil {
		return nil, err
	}
	return filter(tx.snap.Collection(collection), pred), nil
}

// Create stages a new document.
func (tx *Tx) Create(ctx context.Context, collection string, doc *storage.Document) (*storage.Document, error) {
	if err := tx.check(ctx); err != nil {
		return nil, err
	}
	created := tx.store.create(tx.snap, collection, doc)
	tx.dirty = true
	tx.writes++
	return created.Clone(), nil
}

// Update stages a merge into an existing document. Nil when absent.
func (tx *Tx) Update(ctx context.Context, collection, id string, fields *storage.Document) (*storage.Document, error) {
	if err := tx.check(ctx); err != nil {
		return nil, err
	}
	updated := tx.store.update(tx.snap, collection, id, fields)
	if updated == nil {
		return nil, nil
	}
	tx.dirty = true
	tx.writes++
	return updated.Clone(), nil
}

// Delete stages a removal.
func (tx *Tx) Delete(ctx context.Context, collection, id string) (bool, error) {
	if err := tx.check(ctx); err != nil {
		return false, err
	}
	if !remove(tx.snap, collection, id) {
		return false, nil
	}
	tx.dirty = true
	tx.writes++
	return true, nil
}

// RunInTx joins the current transaction: fn's writes commit or roll back with it.
func (tx *Tx) RunInTx(ctx context.Context, fn func(q Querier) error) error {
	if err := tx.check(ctx); err != nil {
		return err
	}
	return fn(tx)
}
