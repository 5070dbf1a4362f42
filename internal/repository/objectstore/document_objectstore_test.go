package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"doccatalog/internal/catalog"
	"doccatalog/internal/repository"
	"doccatalog/internal/storage"
	storeMocks "doccatalog/internal/storage/mocks"
)

func TestDocumentObjectStore_Key(t *testing.T) {
	repo := NewDocumentObjectStore(nil, nil)

	key, err := repo.Key("user/1")
	require.NoError(t, err)
	assert.Equal(t, "catalogs/user%2F1/documents.json", key)

	_, err = repo.Key("")
	assert.ErrorIs(t, err, repository.ErrInvalidOwner)
}

func TestDocumentObjectStore_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStorage)
	repo := NewDocumentObjectStore(mStore, repository.MsgpackCodec{})

	var uploaded []byte
	mStore.On("Put", ctx, "catalogs/alice/documents.msgpack", mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
		return opt.ContentType == "application/msgpack" && opt.Metadata["owner"] == "alice"
	})).Return(func(_ context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
		uploaded, _ = io.ReadAll(r)
		return storage.ObjectInfo{Key: key, Size: opt.Size}
	}, nil).Once()

	require.NoError(t, repo.Save(ctx, "alice", catalog.SeedDocuments()))
	require.NotEmpty(t, uploaded)

	mStore.On("Get", ctx, "catalogs/alice/documents.msgpack").
		Return(io.NopCloser(bytes.NewReader(uploaded)), storage.ObjectInfo{}, nil).Once()

	got, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, catalog.SeedDocuments(), got)
	mStore.AssertExpectations(t)
}

func TestDocumentObjectStore_Load(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		setup     func(m *storeMocks.MockStorage)
		wantNil   bool
		wantErrIs error
		wantErr   string
	}{
		{
			name: "missing object",
			setup: func(m *storeMocks.MockStorage) {
				m.On("Get", ctx, mock.Anything).Return(nil, storage.ObjectInfo{}, storage.ErrNotFound)
			},
			wantNil: true,
		},
		{
			name: "storage failure",
			setup: func(m *storeMocks.MockStorage) {
				m.On("Get", ctx, mock.Anything).Return(nil, storage.ObjectInfo{}, errors.New("timeout"))
			},
			wantErr: "get snapshot: timeout",
		},
		{
			name: "corrupt payload",
			setup: func(m *storeMocks.MockStorage) {
				m.On("Get", ctx, mock.Anything).
					Return(io.NopCloser(bytes.NewReader([]byte("not json"))), storage.ObjectInfo{}, nil)
			},
			wantErrIs: repository.ErrCorrupt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(storeMocks.MockStorage)
			tt.setup(m)
			repo := NewDocumentObjectStore(m, nil)

			got, err := repo.Load(ctx, "bob")

			switch {
			case tt.wantErrIs != nil:
				assert.ErrorIs(t, err, tt.wantErrIs)
			case tt.wantErr != "":
				assert.ErrorContains(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, got)
			}
			m.AssertExpectations(t)
		})
	}
}

func TestDocumentObjectStore_SaveError(t *testing.T) {
	ctx := context.Background()
	m := new(storeMocks.MockStorage)
	m.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, errors.New("denied"))

	err := NewDocumentObjectStore(m, nil).Save(ctx, "bob", nil)

	assert.ErrorContains(t, err, "put snapshot: denied")
}
