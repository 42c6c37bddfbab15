package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"papertrust/internal/domain"
	"papertrust/internal/service"
)

// MockOCRService is a mock implementation of service.OCRService.
type MockOCRService struct {
	mock.Mock
}

func (m *MockOCRService) Recognize(ctx context.Context, input service.UploadInput) (*domain.OCRResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OCRResult), args.Error(1)
}

func (m *MockOCRService) StageUpload(ctx context.Context, input service.UploadInput) (*domain.StagedAsset, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StagedAsset), args.Error(1)
}
