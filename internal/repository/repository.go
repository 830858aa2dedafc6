// Package repository maps the domain records onto document store collections.
//
// Every repository is written against docstore.Querier, so the same code runs
// directly on the store or inside a transaction started with InTx. Joins
// between collections (group members, expense payers, split debtors) are
// resolved here and returned as the read-only views in package models.
package repository

import (
	"context"
	"time"

	"github.com/mmynk/expense-tracker/internal/docstore"
	"github.com/mmynk/expense-tracker/internal/errs"
	"github.com/mmynk/expense-tracker/internal/storage"
)

// Repositories bundles the entity repositories that share one Querier.
type Repositories struct {
	q docstore.Querier

	Users         *UserRepository
	Expenses      *ExpenseRepository
	Groups        *GroupRepository
	GroupExpenses *GroupExpenseRepository
	Splits        *SplitRepository
}

// New returns the repositories backed by q.
func New(q docstore.Querier) *Repositories {
	return &Repositories{
		q:             q,
		Users:         &UserRepository{q: q},
		Expenses:      &ExpenseRepository{q: q},
		Groups:        &GroupRepository{q: q},
		GroupExpenses: &GroupExpenseRepository{q: q},
		Splits:        &SplitRepository{q: q},
	}
}

// InTx runs fn with repositories bound to a single transaction. All writes
// made through them are committed together when fn returns nil and discarded
// otherwise. Calling InTx from inside fn joins the outer transaction.
func (r *Repositories) InTx(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.q.RunInTx(ctx, func(q docstore.Querier) error {
		return fn(New(q))
	})
}

// encode converts a record into a document. Fields listed in times are
// rewritten in the store's timestamp layout so every date in the durable file
// has the same shape.
func encode(collection string, v any, times map[string]time.Time) (*storage.Document, error) {
	doc, err := storage.DocumentFrom(v)
	if err != nil {
		return nil, &errs.StorageError{Op: "encode", Collection: collection, Err: err}
	}
	for key, t := range times {
		if err := doc.Set(key, storage.FormatTime(t)); err != nil {
			return nil, &errs.StorageError{Op: "encode", Collection: collection, Err: err}
		}
	}
	return doc, nil
}

// patch builds an update document from ordered key/value pairs.
type patch struct {
	collection string
	doc        *storage.Document
	err        error
}

func newPatch(collection string) *patch {
	return &patch{collection: collection, doc: storage.NewDocument()}
}

func (p *patch) set(key string, v any) *patch {
	if p.err != nil {
		return p
	}
	if t, ok := v.(time.Time); ok {
		v = storage.FormatTime(t)
	}
	if err := p.doc.Set(key, v); err != nil {
		p.err = &errs.StorageError{Op: "encode", Collection: p.collection, Err: err}
	}
	return p
}

func (p *patch) empty() bool {
	return p.doc.Len() == 0
}

// apply merges the patch into the document with the given id and decodes the
// result. It returns nil when the id is absent.
func apply[T any](ctx context.Context, q docstore.Querier, p *patch, id string) (*T, error) {
	if p.err != nil {
		return nil, p.err
	}
	stored, err := q.Update(ctx, p.collection, id, p.doc)
	if err != nil || stored == nil {
		return nil, err
	}
	v, err := docstore.Decode[T](p.collection, stored)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// insert stores doc and decodes the stored copy.
func insert[T any](ctx context.Context, q docstore.Querier, collection string, doc *storage.Document) (*T, error) {
	stored, err := q.Create(ctx, collection, doc)
	if err != nil {
		return nil, err
	}
	v, err := docstore.Decode[T](collection, stored)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// newerFirst orders records by a timestamp, newest first; equal timestamps
// keep store order.
func newerFirst(a, b time.Time) int {
	return b.Compare(a)
}
