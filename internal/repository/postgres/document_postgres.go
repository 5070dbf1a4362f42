package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"doccatalog/internal/model"
	"doccatalog/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// Each document is a row in catalog_documents ordered by position; catalog_owners
// records that an owner has saved at least once, so an empty catalog is not
// mistaken for a missing one.
type DocumentPostgres struct {
	db  *sql.DB
	now func() time.Time
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db, now: time.Now}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Load returns the owner's documents in saved order.
func (r *DocumentPostgres) Load(ctx context.Context, owner string) ([]model.Document, error) {
	if _, err := repository.OwnerKey(owner); err != nil {
		return nil, err
	}

	var saved bool
	const qOwner = `SELECT EXISTS (SELECT 1 FROM catalog_owners WHERE owner = $1)`
	if err := r.db.QueryRowContext(ctx, qOwner, owner).Scan(&saved); err != nil {
		return nil, fmt.Errorf("check owner: %w", err)
	}
	if !saved {
		return nil, nil
	}

	const q = `
		SELECT id, name, type, size, created_at, modified_at, tags, category, description, url, is_favorite
		FROM catalog_documents
		WHERE owner = $1
		ORDER BY position ASC
	`
	rows, err := r.db.QueryContext(ctx, q, owner)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		var (
			d           model.Document
			tags        []byte
			description sql.NullString
			url         sql.NullString
		)
		if err := rows.Scan(
			&d.ID,
			&d.Name,
			&d.Type,
			&d.Size,
			&d.CreatedAt,
			&d.ModifiedAt,
			&tags,
			&d.Category,
			&description,
			&url,
			&d.IsFavorite,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal(tags, &d.Tags); err != nil {
			return nil, fmt.Errorf("%w: tags of %s: %v", repository.ErrCorrupt, d.ID, err)
		}
		if description.Valid {
			d.Description = &description.String
		}
		if url.Valid {
			d.URL = &url.String
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return repository.Normalize(docs), nil
}

// Save replaces the owner's rows inside a single transaction.
func (r *DocumentPostgres) Save(ctx context.Context, owner string, docs []model.Document) (err error) {
	if _, err := repository.OwnerKey(owner); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM catalog_documents WHERE owner = $1`, owner); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}

	const ins = `
		INSERT INTO catalog_documents
			(owner, id, position, name, type, size, created_at, modified_at, tags, category, description, url, is_favorite)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	for i, d := range docs {
		tags := d.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, mErr := json.Marshal(tags)
		if mErr != nil {
			err = mErr
			return fmt.Errorf("encode tags: %w", err)
		}
		if _, err = tx.ExecContext(ctx, ins,
			owner,
			d.ID,
			i,
			d.Name,
			d.Type,
			d.Size,
			d.CreatedAt.UTC(),
			d.ModifiedAt.UTC(),
			string(tagsJSON),
			d.Category,
			nullString(d.Description),
			nullString(d.URL),
			d.IsFavorite,
		); err != nil {
			return fmt.Errorf("insert document %s: %w", d.ID, err)
		}
	}

	const upsertOwner = `
		INSERT INTO catalog_owners (owner, saved_at)
		VALUES ($1, $2)
		ON CONFLICT (owner) DO UPDATE SET saved_at = EXCLUDED.saved_at
	`
	if _, err = tx.ExecContext(ctx, upsertOwner, owner, r.now().UTC()); err != nil {
		return fmt.Errorf("upsert owner: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
