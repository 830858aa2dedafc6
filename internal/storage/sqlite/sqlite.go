// Package sqlite provides a SQLite-backed implementation of the storage.Backend interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/expense-tracker/internal/storage"
)

// Ensure SQLiteBackend implements storage.Backend
var _ storage.Backend = (*SQLiteBackend)(nil)

// SQLiteBackend implements storage.Backend using SQLite.
// Each record is one row holding its JSON body; Save replaces every row
// inside a single transaction.
type SQLiteBackend struct {
	db *sql.DB
}

// New creates a new SQLiteBackend with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteBackend, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps PRAGMA settings and serializes writers.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// Close closes the database connection.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// Load rebuilds the snapshot from the collections and documents tables.
func (b *SQLiteBackend) Load(ctx context.Context) (*storage.Snapshot, error) {
	snap := storage.NewSnapshot()

	rows, err := b.db.QueryContext(ctx, "SELECT name FROM collections ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collections: %w", err)
	}

	for _, name := range names {
		docs, err := b.loadCollection(ctx, name)
		if err != nil {
			return nil, err
		}
		snap.SetCollection(name, docs)
	}

	return snap, nil
}

func (b *SQLiteBackend) loadCollection(ctx context.Context, name string) ([]*storage.Document, error) {
	rows, err := b.db.QueryContext(ctx,
		"SELECT id, body FROM documents WHERE collection = ? ORDER BY position",
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}
	defer rows.Close()

	docs := []*storage.Document{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc := storage.NewDocument()
		if err := doc.UnmarshalJSON([]byte(body)); err != nil {
			return nil, fmt.Errorf("%w: %s/%s: %v", storage.ErrCorrupt, name, id, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return docs, nil
}

// Save replaces the stored snapshot in one transaction.
func (b *SQLiteBackend) Save(ctx context.Context, snap *storage.Snapshot) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections"); err != nil {
		return fmt.Errorf("failed to clear collections: %w", err)
	}

	for i, name := range snap.Names() {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO collections (name, position) VALUES (?, ?)",
			name, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert collection: %w", err)
		}

		for j, doc := range snap.Collection(name) {
			body, err := doc.MarshalJSON()
			if err != nil {
				return fmt.Errorf("failed to encode document: %w", err)
			}
			_, err = tx.ExecContext(ctx,
				"INSERT INTO documents (collection, position, id, body) VALUES (?, ?, ?, ?)",
				name, j, doc.ID(), string(body),
			)
			if err != nil {
				return fmt.Errorf("failed to insert document: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
