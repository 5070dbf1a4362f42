package mocks

import (
	"context"

	"doccatalog/internal/catalog"
	"doccatalog/internal/model"
	"doccatalog/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Session(ctx context.Context, owner string) (*catalog.Store, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Store), args.Error(1)
}

func (m *MockCatalogService) List(ctx context.Context, owner string, upd service.ViewUpdate) (*service.ListResult, error) {
	args := m.Called(ctx, owner, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListResult), args.Error(1)
}

func (m *MockCatalogService) Get(ctx context.Context, owner, id string) (*model.Document, error) {
	args := m.Called(ctx, owner, id)
	return docOrNil(args.Get(0)), args.Error(1)
}

func (m *MockCatalogService) Add(ctx context.Context, owner string, in model.DocumentInput) (*model.Document, error) {
	args := m.Called(ctx, owner, in)
	return docOrNil(args.Get(0)), args.Error(1)
}

func (m *MockCatalogService) AddFromUpload(ctx context.Context, owner string, up service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, owner, up)
	return docOrNil(args.Get(0)), args.Error(1)
}

func (m *MockCatalogService) Update(ctx context.Context, owner, id string, patch model.DocumentPatch) (*model.Document, error) {
	args := m.Called(ctx, owner, id, patch)
	return docOrNil(args.Get(0)), args.Error(1)
}

func (m *MockCatalogService) Delete(ctx context.Context, owner, id string) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

func (m *MockCatalogService) ToggleFavorite(ctx context.Context, owner, id string) (*model.Document, error) {
	args := m.Called(ctx, owner, id)
	return docOrNil(args.Get(0)), args.Error(1)
}

func (m *MockCatalogService) ViewState(ctx context.Context, owner string) (model.ViewState, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).(model.ViewState), args.Error(1)
}

func (m *MockCatalogService) SetView(ctx context.Context, owner string, upd service.ViewUpdate) (model.ViewState, error) {
	args := m.Called(ctx, owner, upd)
	return args.Get(0).(model.ViewState), args.Error(1)
}

func (m *MockCatalogService) Counts(ctx context.Context, owner string) (model.Counts, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).(model.Counts), args.Error(1)
}

func (m *MockCatalogService) Categories() []model.Category {
	args := m.Called()
	return args.Get(0).([]model.Category)
}

func docOrNil(v any) *model.Document {
	if v == nil {
		return nil
	}
	return v.(*model.Document)
}

var _ service.CatalogService = (*MockCatalogService)(nil)
