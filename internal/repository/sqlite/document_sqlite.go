// Package sqlite keeps one encoded catalog snapshot per owner in a SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"doccatalog/internal/model"
	"doccatalog/internal/repository"
)

// DocumentSQLite is a repository.DocumentRepository backed by the
// catalog_snapshots table. Every Save replaces the owner's row wholesale.
type DocumentSQLite struct {
	db  *sql.DB
	now func() time.Time
}

var _ repository.DocumentRepository = (*DocumentSQLite)(nil)

// NewDocumentSQLite creates a repository using an already migrated database.
func NewDocumentSQLite(db *sql.DB) *DocumentSQLite {
	return &DocumentSQLite{db: db, now: time.Now}
}

// Load returns the owner's snapshot, or (nil, nil) when no row exists.
func (r *DocumentSQLite) Load(ctx context.Context, owner string) ([]model.Document, error) {
	if _, err := repository.OwnerKey(owner); err != nil {
		return nil, err
	}
	const q = `SELECT payload FROM catalog_snapshots WHERE owner = ?`

	var payload string
	if err := r.db.QueryRowContext(ctx, q, owner).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	return repository.JSONCodec{}.Unmarshal([]byte(payload))
}

// Save upserts the owner's snapshot.
func (r *DocumentSQLite) Save(ctx context.Context, owner string, docs []model.Document) error {
	if _, err := repository.OwnerKey(owner); err != nil {
		return err
	}
	payload, err := repository.JSONCodec{}.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	const q = `
		INSERT INTO catalog_snapshots (owner, payload, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT (owner) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at
	`
	if _, err := r.db.ExecContext(ctx, q, owner, string(payload), r.now().UnixMilli()); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}
