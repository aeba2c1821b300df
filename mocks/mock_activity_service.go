package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"payops/internal/domain"
	"payops/internal/service"
)

// MockActivityService is a mock implementation of service.ActivityService.
type MockActivityService struct {
	mock.Mock
}

func (m *MockActivityService) ListNotes(ctx context.Context, invoiceID uuid.UUID) ([]domain.Note, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Note), args.Error(1)
}

func (m *MockActivityService) ListActivity(ctx context.Context, invoiceID uuid.UUID) ([]domain.Note, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Note), args.Error(1)
}

func (m *MockActivityService) AddNote(ctx context.Context, input service.AddNoteInput) (*domain.Note, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Note), args.Error(1)
}

func (m *MockActivityService) AddAttachment(ctx context.Context, input service.AttachmentUploadInput) (*domain.Attachment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Attachment), args.Error(1)
}

func (m *MockActivityService) PreviewAttachment(ctx context.Context, attachmentID uuid.UUID) (*service.AttachmentPreview, error) {
	args := m.Called(ctx, attachmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AttachmentPreview), args.Error(1)
}
