package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockTempFileStore is a mock implementation of port.TempFileStore.
type MockTempFileStore struct {
	mock.Mock
}

func (m *MockTempFileStore) Allocate(suffix string) (string, error) {
	args := m.Called(suffix)
	return args.String(0), args.Error(1)
}

func (m *MockTempFileStore) Release(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockTempFileStore) Dir() string {
	args := m.Called()
	return args.String(0)
}
