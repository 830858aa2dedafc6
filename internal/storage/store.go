// Package storage provides abstractions for persistent data storage.
//
// The unit of persistence is a Snapshot: every collection with its records in
// insertion order. A Backend loads and saves whole snapshots; the document
// store above it decides when to do so.
package storage

import (
	"context"
	"errors"
	"time"
)

// Reserved document keys assigned by the store, never by callers.
const (
	KeyID        = "_id"
	KeyCreatedAt = "createdAt"
	KeyUpdatedAt = "updatedAt"
)

// TimeLayout is the ISO-8601 form used for store-assigned timestamps
// (UTC, millisecond precision, trailing Z).
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrCorrupt is returned by Backend.Load when durable data exists but cannot be decoded.
var ErrCorrupt = errors.New("corrupt snapshot")

// Backend defines the interface for durable snapshot storage.
// This abstraction allows swapping storage backends (JSON file, SQLite)
// without changing the document store.
type Backend interface {
	// Load reads the last saved snapshot.
	// A backend with no saved data returns an empty snapshot and no error.
	// Undecodable data is reported with an error wrapping ErrCorrupt.
	Load(ctx context.Context) (*Snapshot, error)

	// Save durably replaces the stored snapshot. Either the whole snapshot
	// is stored or the previous one is left intact.
	Save(ctx context.Context, snap *Snapshot) error

	// Close releases any resources held by the backend.
	Close() error
}

// Quarantiner is implemented by backends that can move corrupt data aside
// so it is not overwritten by the next Save.
type Quarantiner interface {
	// Quarantine moves the current durable data out of the way and reports where it went.
	Quarantine(ctx context.Context) (string, error)
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
