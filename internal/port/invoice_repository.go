package port

import (
	"context"

	"github.com/google/uuid"

	"payops/internal/domain"
)

// InvoiceFilter narrows invoice listings. Nil fields are not applied.
type InvoiceFilter struct {
	Status        *domain.InvoiceStatus
	HasExceptions *bool
}

// InvoiceRepository defines the contract for invoice persistence.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error)
	// FindByNumber returns every invoice carrying the given number, across buyers.
	FindByNumber(ctx context.Context, number string) ([]domain.Invoice, error)
	Update(ctx context.Context, inv *domain.Invoice) error
}

// PaymentRecordRepository persists imported payment report rows.
type PaymentRecordRepository interface {
	CreateBatch(ctx context.Context, records []domain.PaymentRecord) error
	ListByImport(ctx context.Context, importID uuid.UUID) ([]domain.PaymentRecord, error)
}

// MaxDuplicateCandidates caps the duplicates returned for one invoice.
const MaxDuplicateCandidates = 10

// DuplicateInvoiceFinder finds other invoices with the same number for the same buyer.
type DuplicateInvoiceFinder interface {
	FindDuplicates(ctx context.Context, inv *domain.Invoice) ([]domain.Invoice, error)
}
