package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"payops/internal/domain"
	"payops/internal/port"
)

// invoiceRow is the table shape of an invoice. Exceptions and manually entered fields are
// kept as JSONB documents on the invoice row.
type invoiceRow struct {
	ID                uuid.UUID       `db:"id"`
	Number            string          `db:"number"`
	Buyer             string          `db:"buyer"`
	Supplier          string          `db:"supplier"`
	Total             decimal.Decimal `db:"total"`
	Currency          string          `db:"currency"`
	Status            string          `db:"status"`
	CreationDate      time.Time       `db:"creation_date"`
	DueDate           *time.Time      `db:"due_date"`
	PONumber          string          `db:"po_number"`
	SmartConnectionID *uuid.UUID      `db:"smart_connection_id"`
	Exceptions        json.RawMessage `db:"exceptions"`
	HasExceptions     bool            `db:"has_exceptions"`
	IsDuplicate       bool            `db:"is_duplicate"`
	PDFKey            string          `db:"pdf_key"`
	Fields            json.RawMessage `db:"fields"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

func toInvoiceRow(inv *domain.Invoice) (invoiceRow, error) {
	exceptions := inv.Exceptions
	if exceptions == nil {
		exceptions = []domain.Exception{}
	}
	exJSON, err := json.Marshal(exceptions)
	if err != nil {
		return invoiceRow{}, fmt.Errorf("encoding exceptions: %w", err)
	}
	fields := inv.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return invoiceRow{}, fmt.Errorf("encoding fields: %w", err)
	}
	return invoiceRow{
		ID:                inv.ID,
		Number:            inv.Number,
		Buyer:             inv.Buyer,
		Supplier:          inv.Supplier,
		Total:             inv.Total,
		Currency:          inv.Currency,
		Status:            string(inv.Status),
		CreationDate:      inv.CreationDate,
		DueDate:           inv.DueDate,
		PONumber:          inv.PONumber,
		SmartConnectionID: inv.SmartConnectionID,
		Exceptions:        exJSON,
		HasExceptions:     inv.HasExceptions,
		IsDuplicate:       inv.IsDuplicate,
		PDFKey:            inv.PDFKey,
		Fields:            fieldsJSON,
		UpdatedAt:         inv.UpdatedAt,
	}, nil
}

func (row *invoiceRow) toDomain() (domain.Invoice, error) {
	inv := domain.Invoice{
		ID:                row.ID,
		Number:            row.Number,
		Buyer:             row.Buyer,
		Supplier:          row.Supplier,
		Total:             row.Total,
		Currency:          row.Currency,
		Status:            domain.InvoiceStatus(row.Status),
		CreationDate:      row.CreationDate,
		DueDate:           row.DueDate,
		PONumber:          row.PONumber,
		SmartConnectionID: row.SmartConnectionID,
		HasExceptions:     row.HasExceptions,
		IsDuplicate:       row.IsDuplicate,
		PDFKey:            row.PDFKey,
		UpdatedAt:         row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Exceptions, &inv.Exceptions); err != nil {
		return domain.Invoice{}, fmt.Errorf("decoding exceptions of invoice %s: %w", row.ID, err)
	}
	if len(row.Fields) > 0 {
		if err := json.Unmarshal(row.Fields, &inv.Fields); err != nil {
			return domain.Invoice{}, fmt.Errorf("decoding fields of invoice %s: %w", row.ID, err)
		}
	}
	return inv, nil
}

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.UpdatedAt.IsZero() {
		inv.UpdatedAt = time.Now().UTC()
	}
	row, err := toInvoiceRow(inv)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Create: %w", err)
	}

	query := `INSERT INTO invoices
		(id, number, buyer, supplier, total, currency, status, creation_date, due_date,
		 po_number, smart_connection_id, exceptions, has_exceptions, is_duplicate, pdf_key,
		 fields, updated_at)
		VALUES (:id, :number, :buyer, :supplier, :total, :currency, :status, :creation_date,
		 :due_date, :po_number, :smart_connection_id, :exceptions, :has_exceptions,
		 :is_duplicate, :pdf_key, :fields, :updated_at)
		ON CONFLICT (id) DO NOTHING`

	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Create: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var row invoiceRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM invoices WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	inv, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	return &inv, nil
}

func (r *invoiceRepo) List(ctx context.Context, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.HasExceptions != nil {
		args = append(args, *filter.HasExceptions)
		conds = append(conds, fmt.Sprintf("has_exceptions = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM invoices"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List count: %w", err)
	}

	// LIMIT NULL returns every row.
	var limitArg interface{}
	if limit > 0 {
		limitArg = limit
	}
	args = append(args, limitArg, offset)
	query := fmt.Sprintf(
		"SELECT * FROM invoices%s ORDER BY creation_date DESC, number ASC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	var rows []invoiceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List: %w", err)
	}
	invoices, err := rowsToInvoices(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepo) FindByNumber(ctx context.Context, number string) ([]domain.Invoice, error) {
	var rows []invoiceRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM invoices WHERE LOWER(number) = LOWER($1) ORDER BY creation_date ASC, id ASC",
		strings.TrimSpace(number))
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.FindByNumber: %w", err)
	}
	invoices, err := rowsToInvoices(rows)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.FindByNumber: %w", err)
	}
	return invoices, nil
}

func (r *invoiceRepo) Update(ctx context.Context, inv *domain.Invoice) error {
	row, err := toInvoiceRow(inv)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Update: %w", err)
	}

	query := `UPDATE invoices SET
		number = :number, buyer = :buyer, supplier = :supplier, total = :total,
		currency = :currency, status = :status, due_date = :due_date, po_number = :po_number,
		smart_connection_id = :smart_connection_id, exceptions = :exceptions,
		has_exceptions = :has_exceptions, is_duplicate = :is_duplicate, pdf_key = :pdf_key,
		fields = :fields, updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Update: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

func rowsToInvoices(rows []invoiceRow) ([]domain.Invoice, error) {
	out := make([]domain.Invoice, 0, len(rows))
	for i := range rows {
		inv, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}
