package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"payops/internal/domain"
	"payops/internal/port"
)

type duplicateFinderRepo struct {
	db *sqlx.DB
}

// NewDuplicateFinderRepo creates a new PostgreSQL-backed DuplicateInvoiceFinder.
func NewDuplicateFinderRepo(db *sqlx.DB) port.DuplicateInvoiceFinder {
	return &duplicateFinderRepo{db: db}
}

func (r *duplicateFinderRepo) FindDuplicates(ctx context.Context, inv *domain.Invoice) ([]domain.Invoice, error) {
	var rows []invoiceRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT *
		FROM invoices
		WHERE id != $1
		  AND LOWER(number) = LOWER($2)
		  AND LOWER(buyer) = LOWER($3)
		ORDER BY creation_date DESC
		LIMIT $4`,
		inv.ID, inv.Number, inv.Buyer, port.MaxDuplicateCandidates,
	)
	if err != nil {
		return nil, fmt.Errorf("duplicateFinderRepo.FindDuplicates: %w", err)
	}
	return rowsToInvoices(rows)
}
