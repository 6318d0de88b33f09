package mocks

import (
	"context"

	"github.com/Tabitha-Home/THMS-CLIENT/children"
	"github.com/Tabitha-Home/THMS-CLIENT/storage"

	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListChildren(ctx context.Context, params map[string]string) (children.ChildList, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(children.ChildList), args.Error(1)
}

func (m *MockService) GetChild(ctx context.Context, childId string) (children.ChildTransport, error) {
	args := m.Called(ctx, childId)
	return args.Get(0).(children.ChildTransport), args.Error(1)
}

func (m *MockService) AddChild(ctx context.Context, form map[string]interface{}) (children.ChildTransport, error) {
	args := m.Called(ctx, form)
	return args.Get(0).(children.ChildTransport), args.Error(1)
}

func (m *MockService) UpdateChild(ctx context.Context, childId string, form map[string]interface{}) (children.ChildTransport, error) {
	args := m.Called(ctx, childId, form)
	return args.Get(0).(children.ChildTransport), args.Error(1)
}

func (m *MockService) DeleteChild(ctx context.Context, childId string) error {
	args := m.Called(ctx, childId)
	return args.Error(0)
}

func (m *MockService) UpdateChildPhoto(ctx context.Context, childId, filename string, content []byte) (children.ChildTransport, error) {
	args := m.Called(ctx, childId, filename, content)
	return args.Get(0).(children.ChildTransport), args.Error(1)
}

func (m *MockService) ClearChildPhoto(childId string) error {
	args := m.Called(childId)
	return args.Error(0)
}

func (m *MockService) SearchChildren(ctx context.Context, query string) (children.ChildList, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(children.ChildList), args.Error(1)
}

func (m *MockService) ChildStats(ctx context.Context) (children.ChildStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(children.ChildStats), args.Error(1)
}

func (m *MockService) PhotoMetadata(childId string) (storage.PhotoMetadata, error) {
	args := m.Called(childId)
	return args.Get(0).(storage.PhotoMetadata), args.Error(1)
}

func (m *MockService) ClearAllPhotos() error {
	args := m.Called()
	return args.Error(0)
}
