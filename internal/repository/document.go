package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"doccatalog/internal/model"
)

var (
	// ErrCorrupt marks stored data that could not be decoded.
	ErrCorrupt = errors.New("stored catalog is corrupt")
	// ErrInvalidOwner is returned for owner keys that cannot address storage.
	ErrInvalidOwner = errors.New("invalid owner")
)

// DocumentRepository persists one document collection per owner.
type DocumentRepository interface {
	// Load returns the stored collection in its saved order.
	// It returns (nil, nil) when nothing has been stored for owner, and a
	// non-nil slice (possibly empty) otherwise.
	Load(ctx context.Context, owner string) ([]model.Document, error)

	// Save overwrites the stored collection for owner.
	Save(ctx context.Context, owner string, docs []model.Document) error
}

// OwnerKey returns a storage-safe form of owner, usable as a file name or
// object key segment.
func OwnerKey(owner string) (string, error) {
	if owner == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidOwner)
	}
	key := url.PathEscape(owner)
	if key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidOwner, owner)
	}
	return key, nil
}

// Normalize puts decoded documents into canonical in-memory form: UTC
// timestamps and non-nil tag slices.
func Normalize(docs []model.Document) []model.Document {
	for i := range docs {
		docs[i].CreatedAt = docs[i].CreatedAt.UTC()
		docs[i].ModifiedAt = docs[i].ModifiedAt.UTC()
		if docs[i].Tags == nil {
			docs[i].Tags = []string{}
		}
	}
	return docs
}
