// Package backend opens the document repository selected by configuration.
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"doccatalog/internal/config"
	"doccatalog/internal/database"
	"doccatalog/internal/database/migration"
	"doccatalog/internal/repository"
	"doccatalog/internal/repository/file"
	"doccatalog/internal/repository/objectstore"
	"doccatalog/internal/repository/postgres"
	"doccatalog/internal/repository/sqlite"
	"doccatalog/internal/storage"
)

// Backend is an opened repository plus the resources it holds.
type Backend struct {
	Name string
	Repo repository.DocumentRepository
	// DB is set for SQL backends so health checks can ping it.
	DB *sql.DB
}

// Close releases the database handle, if any.
func (b *Backend) Close() error {
	if b.DB == nil {
		return nil
	}
	return b.DB.Close()
}

// Open connects to the configured backend and migrates SQL schemas.
func Open(ctx context.Context, cfg *config.AppConfig, loc *time.Location) (*Backend, error) {
	p := cfg.Persistence
	b := &Backend{Name: p.Backend}

	switch p.Backend {
	case config.BackendFile:
		codec, err := repository.CodecByName(p.Codec)
		if err != nil {
			return nil, err
		}
		repo, err := file.NewDocumentFile(p.Dir, codec)
		if err != nil {
			return nil, err
		}
		b.Repo = repo

	case config.BackendSQLite:
		db, err := database.NewSQLite(p.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, migration.SQLite, loc, p.SQLitePath); err != nil {
			db.Close()
			return nil, err
		}
		b.DB = db
		b.Repo = sqlite.NewDocumentSQLite(db)

	case config.BackendPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, migration.Postgres, loc, cfg.Database.Host); err != nil {
			db.Close()
			return nil, err
		}
		b.DB = db
		b.Repo = postgres.NewDocumentPostgres(db)

	case config.BackendObjectStore:
		codec, err := repository.CodecByName(p.Codec)
		if err != nil {
			return nil, err
		}
		store, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("open object storage: %w", err)
		}
		b.Repo = objectstore.NewDocumentObjectStore(store, codec)

	default:
		return nil, fmt.Errorf("unknown persistence backend %q", p.Backend)
	}

	return b, nil
}
