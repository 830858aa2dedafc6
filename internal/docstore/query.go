package docstore

import (
	"context"

	"github.com/mmynk/expense-tracker/internal/errs"
	"github.com/mmynk/expense-tracker/internal/storage"
)

// Decode converts a stored document into T. Decode failures are storage errors:
// the durable data no longer matches the expected shape.
func Decode[T any](collection string, doc *storage.Document) (T, error) {
	var v T
	if err := doc.Decode(&v); err != nil {
		return v, &errs.StorageError{Op: "decode", Collection: collection, Err: err}
	}
	return v, nil
}

// FindAs returns the document with the given id decoded as T, or nil if absent.
func FindAs[T any](ctx context.Context, q Querier, collection, id string) (*T, error) {
	doc, err := q.FindByID(ctx, collection, id)
	if err != nil || doc == nil {
		return nil, err
	}
	v, err := Decode[T](collection, doc)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// FilterAs decodes every document of a collection and keeps those for which
// pred returns true. A nil pred keeps everything.
func FilterAs[T any](ctx context.Context, q Querier, collection string, pred func(T) bool) ([]T, error) {
	docs, err := q.Filter(ctx, collection, nil)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := Decode[T](collection, doc)
		if err != nil {
			return nil, err
		}
		if pred == nil || pred(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// FindOneAs returns the first document decoded as T that satisfies pred, or nil.
func FindOneAs[T any](ctx context.Context, q Querier, collection string, pred func(T) bool) (*T, error) {
	docs, err := q.Filter(ctx, collection, nil)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		v, err := Decode[T](collection, doc)
		if err != nil {
			return nil, err
		}
		if pred == nil || pred(v) {
			return &v, nil
		}
	}
	return nil, nil
}

// CreateAs encodes v, stores it and decodes the stored document (with its
// assigned metadata) back into T.
func CreateAs[T any](ctx context.Context, q Querier, collection string, v any) (*T, error) {
	doc, err := storage.DocumentFrom(v)
	if err != nil {
		return nil, &errs.StorageError{Op: "encode", Collection: collection, Err: err}
	}
	stored, err := q.Create(ctx, collection, doc)
	if err != nil {
		return nil, err
	}
	out, err := Decode[T](collection, stored)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAs merges the encoded fields of v into the document and decodes the
// result as T. It returns nil when the id is absent.
func UpdateAs[T any](ctx context.Context, q Querier, collection, id string, v any) (*T, error) {
	fields, err := storage.DocumentFrom(v)
	if err != nil {
		return nil, &errs.StorageError{Op: "encode", Collection: collection, Err: err}
	}
	stored, err := q.Update(ctx, collection, id, fields)
	if err != nil || stored == nil {
		return nil, err
	}
	out, err := Decode[T](collection, stored)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
