package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"payops/internal/service"
)

// MockDuplicateService is a mock implementation of service.DuplicateService.
type MockDuplicateService struct {
	mock.Mock
}

func (m *MockDuplicateService) view(args mock.Arguments) (*service.DuplicateView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DuplicateView), args.Error(1)
}

func (m *MockDuplicateService) Start(ctx context.Context, invoiceID uuid.UUID) (*service.DuplicateView, error) {
	return m.view(m.Called(ctx, invoiceID))
}

func (m *MockDuplicateService) Get(ctx context.Context, sessionID uuid.UUID) (*service.DuplicateView, error) {
	return m.view(m.Called(ctx, sessionID))
}

func (m *MockDuplicateService) Toggle(ctx context.Context, sessionID, invoiceID uuid.UUID) (*service.DuplicateView, error) {
	return m.view(m.Called(ctx, sessionID, invoiceID))
}

func (m *MockDuplicateService) ChooseSingle(ctx context.Context, sessionID uuid.UUID) (*service.DuplicateView, error) {
	return m.view(m.Called(ctx, sessionID))
}

func (m *MockDuplicateService) Compare(ctx context.Context, sessionID uuid.UUID) (*service.DuplicateView, error) {
	return m.view(m.Called(ctx, sessionID))
}

func (m *MockDuplicateService) Keep(ctx context.Context, sessionID, invoiceID uuid.UUID) (*service.DuplicateView, error) {
	return m.view(m.Called(ctx, sessionID, invoiceID))
}

func (m *MockDuplicateService) Back(ctx context.Context, sessionID uuid.UUID) (*service.DuplicateView, error) {
	return m.view(m.Called(ctx, sessionID))
}

func (m *MockDuplicateService) Confirm(ctx context.Context, sessionID uuid.UUID, confirmed bool, author string) (*service.DuplicateConfirmResult, error) {
	args := m.Called(ctx, sessionID, confirmed, author)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DuplicateConfirmResult), args.Error(1)
}

func (m *MockDuplicateService) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
