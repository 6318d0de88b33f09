package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Success(ctx context.Context, message string) {
	m.Called(ctx, message)
}

func (m *MockNotifier) Error(ctx context.Context, message string) {
	m.Called(ctx, message)
}
