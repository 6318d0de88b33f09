package mocks

import (
	"context"
	"net/url"

	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Get(ctx context.Context, apiPath string, params url.Values, out interface{}) error {
	args := m.Called(ctx, apiPath, params, out)
	return args.Error(0)
}

func (m *MockClient) Post(ctx context.Context, apiPath string, body interface{}, out interface{}) error {
	args := m.Called(ctx, apiPath, body, out)
	return args.Error(0)
}

func (m *MockClient) Patch(ctx context.Context, apiPath string, body interface{}, out interface{}) error {
	args := m.Called(ctx, apiPath, body, out)
	return args.Error(0)
}

func (m *MockClient) Delete(ctx context.Context, apiPath string) error {
	args := m.Called(ctx, apiPath)
	return args.Error(0)
}
