// Package objectstore keeps catalog snapshots as objects in S3-compatible storage.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"doccatalog/internal/model"
	"doccatalog/internal/repository"
	"doccatalog/internal/storage"
)

// DocumentObjectStore is a repository.DocumentRepository storing one object
// per owner under catalogs/<owner>/documents.<ext>.
type DocumentObjectStore struct {
	store storage.Storage
	codec repository.Codec
}

var _ repository.DocumentRepository = (*DocumentObjectStore)(nil)

// NewDocumentObjectStore creates an object-storage backed repository.
func NewDocumentObjectStore(store storage.Storage, codec repository.Codec) *DocumentObjectStore {
	if codec == nil {
		codec = repository.JSONCodec{}
	}
	return &DocumentObjectStore{store: store, codec: codec}
}

// Key returns the object key used for owner.
func (r *DocumentObjectStore) Key(owner string) (string, error) {
	ownerKey, err := repository.OwnerKey(owner)
	if err != nil {
		return "", err
	}
	return path.Join("catalogs", ownerKey, "documents."+r.codec.Ext()), nil
}

// Load fetches and decodes the owner's snapshot. A missing object means
// nothing was stored.
func (r *DocumentObjectStore) Load(ctx context.Context, owner string) ([]model.Document, error) {
	key, err := r.Key(owner)
	if err != nil {
		return nil, err
	}
	rc, _, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return r.codec.Unmarshal(data)
}

// Save uploads the encoded snapshot, replacing any previous object.
func (r *DocumentObjectStore) Save(ctx context.Context, owner string, docs []model.Document) error {
	key, err := r.Key(owner)
	if err != nil {
		return err
	}
	data, err := r.codec.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = r.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: r.codec.ContentType(),
		Metadata:    map[string]string{"owner": owner},
	})
	if err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}
