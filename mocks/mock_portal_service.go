package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"payops/internal/domain"
	"payops/internal/port"
	"payops/internal/portal"
	"payops/internal/service"
)

// MockPortalRecordService is a mock implementation of service.PortalRecordService.
type MockPortalRecordService struct {
	mock.Mock
}

func (m *MockPortalRecordService) List(ctx context.Context, filter port.PortalRecordFilter, offset, limit int) ([]domain.PortalRecord, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.PortalRecord), args.Int(1), args.Error(2)
}

func (m *MockPortalRecordService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PortalRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PortalRecord), args.Error(1)
}

func (m *MockPortalRecordService) result(args mock.Arguments) (*service.PortalRecordResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PortalRecordResult), args.Error(1)
}

func (m *MockPortalRecordService) MakePrimary(ctx context.Context, id uuid.UUID, author string) (*service.PortalRecordResult, error) {
	return m.result(m.Called(ctx, id, author))
}

func (m *MockPortalRecordService) Link(ctx context.Context, id, invoiceID uuid.UUID, author string) (*service.PortalRecordResult, error) {
	return m.result(m.Called(ctx, id, invoiceID, author))
}

func (m *MockPortalRecordService) Unlink(ctx context.Context, id uuid.UUID, author string) (*service.PortalRecordResult, error) {
	return m.result(m.Called(ctx, id, author))
}

func (m *MockPortalRecordService) ListSmartConnections(ctx context.Context) ([]domain.SmartConnection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SmartConnection), args.Error(1)
}

// MockPortalUserService is a mock implementation of service.PortalUserService.
type MockPortalUserService struct {
	mock.Mock
}

func (m *MockPortalUserService) List(ctx context.Context, input service.PortalUserListInput) ([]portal.UserGroup, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]portal.UserGroup), args.Error(1)
}

func (m *MockPortalUserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PortalUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PortalUser), args.Error(1)
}

func (m *MockPortalUserService) result(args mock.Arguments) (*service.PortalUserResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PortalUserResult), args.Error(1)
}

func (m *MockPortalUserService) Create(ctx context.Context, input portal.CredentialInput) (*service.PortalUserResult, error) {
	return m.result(m.Called(ctx, input))
}

func (m *MockPortalUserService) Update(ctx context.Context, id uuid.UUID, input portal.CredentialInput) (*service.PortalUserResult, error) {
	return m.result(m.Called(ctx, id, input))
}

func (m *MockPortalUserService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPortalUserService) Revalidate(ctx context.Context, id uuid.UUID) (*service.PortalUserResult, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockPortalUserService) RevalidateAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
