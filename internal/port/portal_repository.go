package port

import (
	"context"

	"github.com/google/uuid"

	"payops/internal/domain"
)

// PortalRecordFilter narrows portal record listings. Zero values are not applied.
type PortalRecordFilter struct {
	MatchType domain.MatchType
	InvoiceID *uuid.UUID
	Portal    string
}

// PortalRecordRepository defines the contract for portal record persistence.
type PortalRecordRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PortalRecord, error)
	List(ctx context.Context, filter PortalRecordFilter, offset, limit int) ([]domain.PortalRecord, int, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.PortalRecord, error)
	// SaveAll writes every record in one unit so group invariants hold after the call.
	SaveAll(ctx context.Context, records []domain.PortalRecord) error
}

// PortalUserRepository defines the contract for portal credential persistence.
type PortalUserRepository interface {
	Create(ctx context.Context, user *domain.PortalUser) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PortalUser, error)
	List(ctx context.Context) ([]domain.PortalUser, error)
	Update(ctx context.Context, user *domain.PortalUser) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SmartConnectionRepository exposes buyer/supplier/portal links.
type SmartConnectionRepository interface {
	List(ctx context.Context) ([]domain.SmartConnection, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SmartConnection, error)
}

// ConnectivityResult is the outcome of a portal login attempt.
type ConnectivityResult struct {
	Connected bool
	Issue     string
}

// ConnectivityChecker verifies that a portal credential can log in.
type ConnectivityChecker interface {
	Check(ctx context.Context, user *domain.PortalUser) (ConnectivityResult, error)
}
