// Package file stores catalog snapshots as one file per owner on local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"doccatalog/internal/model"
	"doccatalog/internal/repository"
)

// DocumentFile is a repository.DocumentRepository writing <dir>/<owner>.<ext>.
type DocumentFile struct {
	dir   string
	codec repository.Codec
}

var _ repository.DocumentRepository = (*DocumentFile)(nil)

// NewDocumentFile creates dir if needed and returns a file-backed repository.
func NewDocumentFile(dir string, codec repository.Codec) (*DocumentFile, error) {
	if dir == "" {
		return nil, fmt.Errorf("catalog directory is required")
	}
	if codec == nil {
		codec = repository.JSONCodec{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}
	return &DocumentFile{dir: dir, codec: codec}, nil
}

func (r *DocumentFile) path(owner string) (string, error) {
	key, err := repository.OwnerKey(owner)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.dir, key+"."+r.codec.Ext()), nil
}

// Load reads the owner's snapshot. A missing file means nothing was stored.
func (r *DocumentFile) Load(ctx context.Context, owner string) ([]model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := r.path(owner)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return r.codec.Unmarshal(data)
}

// Save writes the snapshot to a temporary file and renames it into place so
// readers never observe a partial write.
func (r *DocumentFile) Save(ctx context.Context, owner string, docs []model.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := r.path(owner)
	if err != nil {
		return err
	}
	data, err := r.codec.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, ".catalog-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
