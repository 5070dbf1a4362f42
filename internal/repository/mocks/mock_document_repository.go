package mocks

import (
	"context"

	"doccatalog/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Load(ctx context.Context, owner string) ([]model.Document, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Save(ctx context.Context, owner string, docs []model.Document) error {
	args := m.Called(ctx, owner, docs)
	return args.Error(0)
}
