package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"payops/internal/domain"
	"payops/internal/port"
)

// MockPortalRecordRepo is a mock implementation of port.PortalRecordRepository.
type MockPortalRecordRepo struct {
	mock.Mock
}

func (m *MockPortalRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PortalRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PortalRecord), args.Error(1)
}

func (m *MockPortalRecordRepo) List(ctx context.Context, filter port.PortalRecordFilter, offset, limit int) ([]domain.PortalRecord, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.PortalRecord), args.Int(1), args.Error(2)
}

func (m *MockPortalRecordRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.PortalRecord, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PortalRecord), args.Error(1)
}

func (m *MockPortalRecordRepo) SaveAll(ctx context.Context, records []domain.PortalRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// MockPortalUserRepo is a mock implementation of port.PortalUserRepository.
type MockPortalUserRepo struct {
	mock.Mock
}

func (m *MockPortalUserRepo) Create(ctx context.Context, user *domain.PortalUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockPortalUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PortalUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PortalUser), args.Error(1)
}

func (m *MockPortalUserRepo) List(ctx context.Context) ([]domain.PortalUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PortalUser), args.Error(1)
}

func (m *MockPortalUserRepo) Update(ctx context.Context, user *domain.PortalUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockPortalUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSmartConnectionRepo is a mock implementation of port.SmartConnectionRepository.
type MockSmartConnectionRepo struct {
	mock.Mock
}

func (m *MockSmartConnectionRepo) List(ctx context.Context) ([]domain.SmartConnection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SmartConnection), args.Error(1)
}

func (m *MockSmartConnectionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SmartConnection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SmartConnection), args.Error(1)
}

// MockConnectivityChecker is a mock implementation of port.ConnectivityChecker.
type MockConnectivityChecker struct {
	mock.Mock
}

func (m *MockConnectivityChecker) Check(ctx context.Context, user *domain.PortalUser) (port.ConnectivityResult, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(port.ConnectivityResult), args.Error(1)
}
