package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"doccatalog/internal/catalog"
	"doccatalog/internal/model"
	"doccatalog/internal/repository"
	repoMocks "doccatalog/internal/repository/mocks"
)

func ptr[T any](v T) *T { return &v }

func newService(t *testing.T, mRepo *repoMocks.MockDocumentRepository, opts Options) (*catalogService, *Metrics) {
	t.Helper()
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	opts.Metrics = m
	if opts.Backend == "" {
		opts.Backend = "test"
	}
	return NewCatalogService(mRepo, opts).(*catalogService), m
}

func docsLen(n int) any {
	return mock.MatchedBy(func(docs []model.Document) bool { return len(docs) == n })
}

func TestCatalogService_Session(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		stored      []model.Document
		loadErr     error
		seedOnEmpty bool
		wantLen     int
		wantSource  catalog.Source
	}{
		{name: "nothing stored uses seed", stored: nil, wantLen: 3, wantSource: catalog.SourceSeed},
		{name: "stored collection", stored: catalog.SeedDocuments()[:1], wantLen: 1, wantSource: catalog.SourcePersisted},
		{name: "stored empty kept", stored: []model.Document{}, wantLen: 0, wantSource: catalog.SourcePersisted},
		{name: "stored empty seeded when configured", stored: []model.Document{}, seedOnEmpty: true, wantLen: 3, wantSource: catalog.SourceSeed},
		{name: "corrupt payload uses seed", loadErr: fmt.Errorf("%w: bad json", repository.ErrCorrupt), wantLen: 3, wantSource: catalog.SourceSeed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			if tt.stored == nil {
				mRepo.On("Load", mock.Anything, "alice").Return(nil, tt.loadErr).Once()
			} else {
				mRepo.On("Load", mock.Anything, "alice").Return(tt.stored, tt.loadErr).Once()
			}
			svc, _ := newService(t, mRepo, Options{SeedOnEmpty: tt.seedOnEmpty})

			store, err := svc.Session(ctx, "alice")
			require.NoError(t, err)
			again, err := svc.Session(ctx, "alice")
			require.NoError(t, err)

			assert.Same(t, store, again)
			assert.Equal(t, tt.wantLen, store.Len())
			assert.Equal(t, tt.wantSource, svc.sessions["alice"].source)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestCatalogService_SessionLoadFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	taxReturn := model.Document{ID: "tax", Name: "Tax return", Tags: []string{}, Category: "pdf",
		CreatedAt: catalog.SeedDocuments()[0].CreatedAt, ModifiedAt: catalog.SeedDocuments()[0].ModifiedAt}

	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("Load", mock.Anything, "bob").Return(nil, errors.New("connection refused")).Once()
	mRepo.On("Load", mock.Anything, "bob").Return([]model.Document{taxReturn}, nil).Once()
	mRepo.On("Save", mock.Anything, "bob", mock.MatchedBy(func(docs []model.Document) bool {
		return len(docs) == 2 && docs[0].ID == "tax"
	})).Return(nil).Once()
	svc, _ := newService(t, mRepo, Options{})

	_, err := svc.List(ctx, "bob", ViewUpdate{})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = svc.Add(ctx, "bob", model.DocumentInput{Name: "new", Category: "document"})
	require.NoError(t, err)

	store, err := svc.Session(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, catalog.SourcePersisted, svc.sessions["bob"].source)
	assert.Equal(t, 2, store.Len())
	mRepo.AssertExpectations(t)
}

// ctxRepo fails loads whose context is already done, like a database driver.
type ctxRepo struct {
	memoryRepo
}

func (r *ctxRepo) Load(ctx context.Context, owner string) ([]model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved[owner], nil
}

func TestCatalogService_HydrateOutlivesCancelledRequest(t *testing.T) {
	stored := catalog.SeedDocuments()[2:]
	repo := &ctxRepo{memoryRepo{saved: map[string][]model.Document{"bob": stored}}}
	svc := NewCatalogService(repo, Options{})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := svc.List(cancelled, "bob", ViewUpdate{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Budget_2024.xlsx", res.Items[0].Name)

	_, err = svc.Add(context.Background(), "bob", model.DocumentInput{Name: "new", Category: "document"})
	require.NoError(t, err)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	names := []string{}
	for _, d := range repo.saved["bob"] {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"Budget_2024.xlsx", "new"}, names)
}

func TestCatalogService_SessionRequiresOwner(t *testing.T) {
	svc, _ := newService(t, new(repoMocks.MockDocumentRepository), Options{})

	_, err := svc.Session(context.Background(), "  ")

	assert.ErrorIs(t, err, ErrOwnerRequired)
}

func TestCatalogService_OwnersAreIsolated(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("Load", mock.Anything, mock.Anything).Return(nil, nil)
	mRepo.On("Save", mock.Anything, "alice", docsLen(4)).Return(nil).Once()
	svc, _ := newService(t, mRepo, Options{})

	_, err := svc.Add(ctx, "alice", model.DocumentInput{Name: "a.pdf", Category: "pdf"})
	require.NoError(t, err)

	bob, err := svc.Session(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 3, bob.Len())
	mRepo.AssertExpectations(t)
}

func TestCatalogService_Add(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		in       model.DocumentInput
		wantErr  error
		wantName string
	}{
		{
			name:     "valid",
			in:       model.DocumentInput{Name: "  Contract.pdf ", Type: "pdf", Size: 100, Tags: []string{"legal"}, Category: "pdf"},
			wantName: "Contract.pdf",
		},
		{name: "blank name", in: model.DocumentInput{Name: "   ", Category: "pdf"}, wantErr: ErrValidation},
		{name: "negative size", in: model.DocumentInput{Name: "x", Size: -1, Category: "pdf"}, wantErr: ErrValidation},
		{name: "blank tag", in: model.DocumentInput{Name: "x", Tags: []string{"ok", " "}, Category: "pdf"}, wantErr: ErrValidation},
		{name: "unknown category", in: model.DocumentInput{Name: "x", Category: "video"}, wantErr: ErrValidation},
		{name: "missing category", in: model.DocumentInput{Name: "x"}, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			mRepo.On("Load", mock.Anything, "alice").Return(nil, nil).Maybe()
			if tt.wantErr == nil {
				mRepo.On("Save", mock.Anything, "alice", docsLen(4)).Return(nil).Once()
			}
			svc, m := newService(t, mRepo, Options{})

			doc, err := svc.Add(ctx, "alice", tt.in)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
				mRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, doc.ID)
			assert.Equal(t, tt.wantName, doc.Name)
			assert.Equal(t, doc.CreatedAt, doc.ModifiedAt)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("added")))
			mRepo.AssertExpectations(t)
		})
	}
}

func TestCatalogService_PersistFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("Load", mock.Anything, "alice").Return(nil, nil)
	mRepo.On("Save", mock.Anything, "alice", mock.Anything).Return(errors.New("read-only filesystem"))
	svc, m := newService(t, mRepo, Options{Backend: "file"})

	doc, err := svc.Add(ctx, "alice", model.DocumentInput{Name: "kept.txt", Category: "document"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "alice", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept.txt", got.Name)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFailures.WithLabelValues("file")))
}

func TestCatalogService_UpdateAndToggle(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("Load", mock.Anything, "alice").Return(nil, nil)
	mRepo.On("Save", mock.Anything, "alice", docsLen(3)).Return(nil).Twice()
	svc, _ := newService(t, mRepo, Options{})

	updated, err := svc.Update(ctx, "alice", "2", model.DocumentPatch{Name: ptr(" Roadmap.pptx "), Tags: ptr([]string{"plan"})})
	require.NoError(t, err)
	assert.Equal(t, "Roadmap.pptx", updated.Name)
	assert.Equal(t, []string{"plan"}, updated.Tags)
	assert.True(t, updated.ModifiedAt.After(updated.CreatedAt))

	fav, err := svc.ToggleFavorite(ctx, "alice", "2")
	require.NoError(t, err)
	assert.True(t, fav.IsFavorite)

	_, err = svc.Update(ctx, "alice", "missing", model.DocumentPatch{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ToggleFavorite(ctx, "alice", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, "alice", "2", model.DocumentPatch{Size: ptr(int64(-5))})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(ctx, "alice", "", model.DocumentPatch{})
	assert.ErrorIs(t, err, ErrIDRequired)

	mRepo.AssertExpectations(t)
}

func TestCatalogService_Delete(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("Load", mock.Anything, "alice").Return(nil, nil)
	mRepo.On("Save", mock.Anything, "alice", docsLen(2)).Return(nil).Once()
	svc, _ := newService(t, mRepo, Options{})

	require.NoError(t, svc.Delete(ctx, "alice", "1"))
	require.NoError(t, svc.Delete(ctx, "alice", "1"))

	_, err := svc.Get(ctx, "alice", "1")
	assert.ErrorIs(t, err, ErrNotFound)
	mRepo.AssertExpectations(t)
}

func TestCatalogService_List(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("Load", mock.Anything, "alice").Return(nil, nil)
	svc, _ := newService(t, mRepo, Options{})

	res, err := svc.List(ctx, "alice", ViewUpdate{})
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)
	assert.Equal(t, model.DefaultViewState(), res.View)

	res, err = svc.List(ctx, "alice", ViewUpdate{
		SortField: ptr(model.SortByName),
		SortOrder: ptr(model.Ascending),
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "Annual_report_2024.pdf", res.Items[0].Name)
	assert.Equal(t, "Project_presentation.pptx", res.Items[2].Name)

	res, err = svc.List(ctx, "alice", ViewUpdate{SelectedCategory: ptr("spreadsheet")})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "3", res.Items[0].ID)
	assert.Equal(t, 3, res.Counts.Total)
	assert.Equal(t, 1, res.Counts.Filtered)

	res, err = svc.List(ctx, "alice", ViewUpdate{SelectedCategory: ptr(""), SearchTerm: ptr("2024")})
	require.NoError(t, err)
	assert.Nil(t, res.View.SelectedCategory)
	assert.Len(t, res.Items, 2)

	_, err = svc.List(ctx, "alice", ViewUpdate{SortField: ptr(model.SortField("color"))})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.List(ctx, "alice", ViewUpdate{SortOrder: ptr(model.SortOrder("up"))})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.List(ctx, "alice", ViewUpdate{SelectedCategory: ptr("video")})
	assert.ErrorIs(t, err, ErrValidation)

	mRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogService_SetView(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("Load", mock.Anything, "alice").Return(nil, nil)
	svc, _ := newService(t, mRepo, Options{})

	v, err := svc.SetView(ctx, "alice", ViewUpdate{SortField: ptr(model.SortBySize)})
	require.NoError(t, err)
	assert.Equal(t, model.SortBySize, v.SortField)
	assert.Equal(t, model.Descending, v.SortOrder)

	got, err := svc.ViewState(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, v, got)

	mRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogService_AddFromUpload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		up   UploadInput
		want func(t *testing.T, d *model.Document)
	}{
		{
			name: "prefilled from metadata",
			up:   UploadInput{Filename: "scan.png", ContentType: "image/png", Size: 2048},
			want: func(t *testing.T, d *model.Document) {
				assert.Equal(t, "scan.png", d.Name)
				assert.Equal(t, "image", d.Category)
				assert.Equal(t, int64(2048), d.Size)
				assert.Equal(t, []string{}, d.Tags)
				assert.Nil(t, d.Description)
			},
		},
		{
			name: "form overrides",
			up: UploadInput{
				Filename: "q1.xlsx", ContentType: "application/vnd.ms-excel", Size: 10,
				Name: "Q1 numbers", Description: " quarterly ", Tags: "finance, q1,,", Category: "document",
			},
			want: func(t *testing.T, d *model.Document) {
				assert.Equal(t, "Q1 numbers", d.Name)
				assert.Equal(t, "document", d.Category)
				assert.Equal(t, "spreadsheet", d.Type)
				assert.Equal(t, []string{"finance", "q1"}, d.Tags)
				require.NotNil(t, d.Description)
				assert.Equal(t, "quarterly", *d.Description)
			},
		},
		{
			name: "unknown size gets placeholder",
			up:   UploadInput{Filename: "notes", ContentType: "application/octet-stream"},
			want: func(t *testing.T, d *model.Document) {
				assert.Equal(t, "document", d.Category)
				assert.GreaterOrEqual(t, d.Size, int64(100000))
				assert.Less(t, d.Size, int64(5100000))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			mRepo.On("Load", mock.Anything, "alice").Return(nil, nil)
			mRepo.On("Save", mock.Anything, "alice", docsLen(4)).Return(nil).Once()
			svc, _ := newService(t, mRepo, Options{})

			d, err := svc.AddFromUpload(ctx, "alice", tt.up)

			require.NoError(t, err)
			tt.want(t, d)
			mRepo.AssertExpectations(t)
		})
	}
}

// memoryRepo records the last saved collection per owner.
type memoryRepo struct {
	mu    sync.Mutex
	saved map[string][]model.Document
}

func (r *memoryRepo) Load(context.Context, string) ([]model.Document, error) { return nil, nil }

func (r *memoryRepo) Save(_ context.Context, owner string, docs []model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved[owner] = docs
	return nil
}

func TestCatalogService_ConcurrentAddsPersistLatest(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepo{saved: map[string][]model.Document{}}
	svc := NewCatalogService(repo, Options{Seed: func() []model.Document { return nil }})

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Add(ctx, "alice", model.DocumentInput{Name: fmt.Sprintf("doc-%d", i), Category: "document"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Len(t, repo.saved["alice"], 20)
}

func TestCatalogService_Categories(t *testing.T) {
	svc := NewCatalogService(new(repoMocks.MockDocumentRepository), Options{})

	cats := svc.Categories()
	require.Len(t, cats, 6)
	cats[0].Name = "changed"
	assert.NotEqual(t, "changed", svc.Categories()[0].Name)
}
