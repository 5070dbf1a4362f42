package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doccatalog/internal/catalog"
	"doccatalog/internal/database"
	"doccatalog/internal/database/migration"
	"doccatalog/internal/model"
	"doccatalog/internal/repository"
)

func newTestRepo(t *testing.T) *DocumentSQLite {
	t.Helper()
	db, err := database.NewSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.EnsureMigrated(context.Background(), db, migration.SQLite, time.UTC, "test"))
	return NewDocumentSQLite(db)
}

func TestDocumentSQLite_LoadMissing(t *testing.T) {
	repo := newTestRepo(t)

	docs, err := repo.Load(context.Background(), "nobody")

	assert.NoError(t, err)
	assert.Nil(t, docs)
}

func TestDocumentSQLite_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seed := catalog.SeedDocuments()

	require.NoError(t, repo.Save(ctx, "alice", seed))
	got, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, seed, got)

	require.NoError(t, repo.Save(ctx, "alice", seed[:1]))
	got, err = repo.Load(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, seed[0].ID, got[0].ID)
}

func TestDocumentSQLite_EmptyIsNotAbsent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Save(ctx, "alice", nil))
	got, err := repo.Load(ctx, "alice")

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDocumentSQLite_OwnersAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Save(ctx, "alice", catalog.SeedDocuments()))

	got, err := repo.Load(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDocumentSQLite_CorruptPayload(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT payload FROM catalog_snapshots").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow("{oops"))

	_, err = NewDocumentSQLite(db).Load(context.Background(), "alice")

	assert.ErrorIs(t, err, repository.ErrCorrupt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentSQLite_SaveWritesTimestamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentSQLite(db)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return at }

	mock.ExpectExec("INSERT INTO catalog_snapshots").
		WithArgs("alice", "[]", at.UnixMilli()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Save(context.Background(), "alice", []model.Document{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentSQLite_RejectsEmptyOwner(t *testing.T) {
	repo := NewDocumentSQLite(nil)

	_, err := repo.Load(context.Background(), "")
	assert.ErrorIs(t, err, repository.ErrInvalidOwner)
	assert.ErrorIs(t, repo.Save(context.Background(), "", nil), repository.ErrInvalidOwner)
}
