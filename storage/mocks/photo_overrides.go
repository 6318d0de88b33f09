package mocks

import (
	"context"

	"github.com/Tabitha-Home/THMS-CLIENT/storage"

	"github.com/stretchr/testify/mock"
)

type MockPhotoStore struct {
	mock.Mock
}

func (m *MockPhotoStore) Put(ctx context.Context, childId, filename string, content []byte) (string, error) {
	args := m.Called(ctx, childId, filename, content)
	return args.Get(0).(string), args.Error(1)
}

func (m *MockPhotoStore) Get(childId string) (string, bool) {
	args := m.Called(childId)
	return args.Get(0).(string), args.Bool(1)
}

func (m *MockPhotoStore) Metadata(childId string) (storage.PhotoMetadata, error) {
	args := m.Called(childId)
	return args.Get(0).(storage.PhotoMetadata), args.Error(1)
}

func (m *MockPhotoStore) Clear(childId string) error {
	args := m.Called(childId)
	return args.Error(0)
}

func (m *MockPhotoStore) ClearAll() error {
	args := m.Called()
	return args.Error(0)
}
