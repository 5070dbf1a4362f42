package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"doccatalog/internal/model"
)

// Source reports where hydrated state came from.
type Source string

const (
	SourcePersisted Source = "persisted"
	SourceSeed      Source = "seed"
)

// ErrInvalidCollection is returned by Validate for collections that break
// store invariants. Loaders wrap it to mark stored data as unusable.
var ErrInvalidCollection = errors.New("invalid document collection")

// LoadFunc reads a previously persisted collection. It returns (nil, nil)
// when nothing has been stored.
type LoadFunc func(ctx context.Context) ([]model.Document, error)

// Hydrate initializes s from load. It falls back to seed when nothing is
// stored or the stored data is unusable (ErrInvalidCollection). Any other
// load error is returned and s is left untouched. A stored empty collection
// is kept as is.
func Hydrate(ctx context.Context, s *Store, load LoadFunc, seed []model.Document, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = s.logger
	}
	docs, err := load(ctx)
	if err == nil && docs != nil {
		err = Validate(docs)
	}
	switch {
	case errors.Is(err, ErrInvalidCollection):
		logger.Error("persisted documents are unusable, using seed data", "error", err)
	case err != nil:
		return "", fmt.Errorf("load documents: %w", err)
	case docs == nil:
		logger.Debug("no persisted documents, using seed data")
	default:
		s.Init(docs)
		return SourcePersisted, nil
	}
	s.Init(seed)
	return SourceSeed, nil
}

// Validate checks that ids are present and unique and that no document was
// modified before it was created.
func Validate(docs []model.Document) error {
	seen := make(map[string]bool, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("%w: document %d has no id", ErrInvalidCollection, i)
		}
		if seen[d.ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidCollection, d.ID)
		}
		seen[d.ID] = true
		if d.ModifiedAt.Before(d.CreatedAt) {
			return fmt.Errorf("%w: document %q modified before creation", ErrInvalidCollection, d.ID)
		}
	}
	return nil
}
