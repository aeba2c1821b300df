package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"payops/internal/domain"
	"payops/internal/port"
)

type noteRepo struct {
	db *sqlx.DB
}

// NewNoteRepo creates a new PostgreSQL-backed NoteRepository.
func NewNoteRepo(db *sqlx.DB) port.NoteRepository {
	return &noteRepo{db: db}
}

func (r *noteRepo) Create(ctx context.Context, note *domain.Note) error {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO notes (id, invoice_id, kind, author, body, created_at)
		VALUES (:id, :invoice_id, :kind, :author, :body, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrInvoiceNotFound
		}
		return fmt.Errorf("noteRepo.Create: %w", err)
	}
	return nil
}

func (r *noteRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	var note domain.Note
	err := r.db.GetContext(ctx, &note,
		"SELECT id, invoice_id, kind, author, body, created_at FROM notes WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("noteRepo.GetByID: %w", err)
	}

	note.Attachments = []domain.Attachment{}
	err = r.db.SelectContext(ctx, &note.Attachments,
		"SELECT * FROM note_attachments WHERE note_id = $1 ORDER BY created_at ASC", id)
	if err != nil {
		return nil, fmt.Errorf("noteRepo.GetByID attachments: %w", err)
	}
	return &note, nil
}

func (r *noteRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID, kinds []domain.ActivityKind) ([]domain.Note, error) {
	query := "SELECT id, invoice_id, kind, author, body, created_at FROM notes WHERE invoice_id = $1"
	args := []interface{}{invoiceID}
	if len(kinds) > 0 {
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		query += " AND kind = ANY($2)"
		args = append(args, names)
	}
	query += " ORDER BY created_at ASC"

	notes := []domain.Note{}
	if err := r.db.SelectContext(ctx, &notes, query, args...); err != nil {
		return nil, fmt.Errorf("noteRepo.ListByInvoice: %w", err)
	}

	var attachments []domain.Attachment
	err := r.db.SelectContext(ctx, &attachments,
		`SELECT a.* FROM note_attachments a
		 JOIN notes n ON n.id = a.note_id
		 WHERE n.invoice_id = $1
		 ORDER BY a.created_at ASC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("noteRepo.ListByInvoice attachments: %w", err)
	}
	byNote := make(map[uuid.UUID][]domain.Attachment, len(notes))
	for i := range attachments {
		byNote[attachments[i].NoteID] = append(byNote[attachments[i].NoteID], attachments[i])
	}
	for i := range notes {
		notes[i].Attachments = byNote[notes[i].ID]
		if notes[i].Attachments == nil {
			notes[i].Attachments = []domain.Attachment{}
		}
	}
	return notes, nil
}

func (r *noteRepo) AddAttachment(ctx context.Context, att *domain.Attachment) error {
	if att.ID == uuid.Nil {
		att.ID = uuid.New()
	}
	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO note_attachments
		(id, note_id, file_name, content_type, size, storage_key, created_at)
		VALUES (:id, :note_id, :file_name, :content_type, :size, :storage_key, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, att); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("noteRepo.AddAttachment: %w", err)
	}
	return nil
}

func (r *noteRepo) GetAttachment(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	var att domain.Attachment
	err := r.db.GetContext(ctx, &att, "SELECT * FROM note_attachments WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("noteRepo.GetAttachment: %w", err)
	}
	return &att, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

type paymentRecordRepo struct {
	db *sqlx.DB
}

// NewPaymentRecordRepo creates a new PostgreSQL-backed PaymentRecordRepository.
func NewPaymentRecordRepo(db *sqlx.DB) port.PaymentRecordRepository {
	return &paymentRecordRepo{db: db}
}

// CreateBatch inserts the rows of one import in a single transaction.
func (r *paymentRecordRepo) CreateBatch(ctx context.Context, records []domain.PaymentRecord) error {
	if len(records) == 0 {
		return nil
	}
	query := `INSERT INTO payment_records
		(id, import_id, invoice_number, issue_date, due_date, payment_terms, billing_currency,
		 receivable, payable, total_amount, total_remaining_amount, status, po_number,
		 tax_total, type, transaction_id, source_row, has_warnings, created_at)
		VALUES (:id, :import_id, :invoice_number, :issue_date, :due_date, :payment_terms,
		 :billing_currency, :receivable, :payable, :total_amount, :total_remaining_amount,
		 :status, :po_number, :tax_total, :type, :transaction_id, :source_row, :has_warnings,
		 :created_at)`

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i := range records {
			if _, err := tx.NamedExecContext(ctx, query, records[i]); err != nil {
				return fmt.Errorf("paymentRecordRepo.CreateBatch row %d: %w", records[i].SourceRow, err)
			}
		}
		return nil
	})
}

func (r *paymentRecordRepo) ListByImport(ctx context.Context, importID uuid.UUID) ([]domain.PaymentRecord, error) {
	records := []domain.PaymentRecord{}
	err := r.db.SelectContext(ctx, &records,
		"SELECT * FROM payment_records WHERE import_id = $1 ORDER BY source_row ASC", importID)
	if err != nil {
		return nil, fmt.Errorf("paymentRecordRepo.ListByImport: %w", err)
	}
	return records, nil
}
