package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"papertrust/internal/domain"
)

// MockDocumentNormalizer is a mock implementation of port.DocumentNormalizer.
type MockDocumentNormalizer struct {
	mock.Mock
}

func (m *MockDocumentNormalizer) Normalize(ctx context.Context, imagePath string) (*domain.NormalizedDocument, error) {
	args := m.Called(ctx, imagePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NormalizedDocument), args.Error(1)
}
