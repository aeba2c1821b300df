package port

import (
	"context"

	"github.com/google/uuid"

	"payops/internal/domain"
)

// NoteRepository defines the contract for the activity/notes thread.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID, kinds []domain.ActivityKind) ([]domain.Note, error)
	AddAttachment(ctx context.Context, att *domain.Attachment) error
	GetAttachment(ctx context.Context, id uuid.UUID) (*domain.Attachment, error)
}
