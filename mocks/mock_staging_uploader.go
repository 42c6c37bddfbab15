package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"papertrust/internal/domain"
	"papertrust/internal/port"
)

// MockStagingUploader is a mock implementation of port.StagingUploader.
type MockStagingUploader struct {
	mock.Mock
}

func (m *MockStagingUploader) Stage(ctx context.Context, input port.StageInput) (*domain.StagedAsset, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StagedAsset), args.Error(1)
}
