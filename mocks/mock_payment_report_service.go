package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"payops/internal/domain"
	"payops/internal/paymentreport"
	"payops/internal/service"
)

// MockPaymentReportService is a mock implementation of service.PaymentReportService.
type MockPaymentReportService struct {
	mock.Mock
}

func (m *MockPaymentReportService) Upload(ctx context.Context, input service.ReportUploadInput) (*service.ImportSessionView, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImportSessionView), args.Error(1)
}

func (m *MockPaymentReportService) Get(ctx context.Context, sessionID uuid.UUID) (*service.ImportSessionView, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImportSessionView), args.Error(1)
}

func (m *MockPaymentReportService) SetMappings(ctx context.Context, sessionID uuid.UUID, mappings paymentreport.FieldMappings) (*service.ImportSessionView, error) {
	args := m.Called(ctx, sessionID, mappings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImportSessionView), args.Error(1)
}

func (m *MockPaymentReportService) Review(ctx context.Context, sessionID uuid.UUID, filter service.ReviewFilter) ([]domain.ValidatedPaymentRecord, int, error) {
	args := m.Called(ctx, sessionID, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ValidatedPaymentRecord), args.Int(1), args.Error(2)
}

func (m *MockPaymentReportService) WriteErrorReport(ctx context.Context, sessionID uuid.UUID, w io.Writer) (string, error) {
	args := m.Called(ctx, sessionID, w)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentReportService) Import(ctx context.Context, sessionID uuid.UUID) (*service.ImportResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImportResult), args.Error(1)
}

func (m *MockPaymentReportService) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
