package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"payops/internal/domain"
	"payops/internal/port"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type portalRecordRepo struct {
	db *sqlx.DB
}

// NewPortalRecordRepo creates a new PostgreSQL-backed PortalRecordRepository.
func NewPortalRecordRepo(db *sqlx.DB) port.PortalRecordRepository {
	return &portalRecordRepo{db: db}
}

func (r *portalRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PortalRecord, error) {
	var rec domain.PortalRecord
	err := r.db.GetContext(ctx, &rec, "SELECT * FROM portal_records WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPortalRecordNotFound
		}
		return nil, fmt.Errorf("portalRecordRepo.GetByID: %w", err)
	}
	return &rec, nil
}

func (r *portalRecordRepo) List(ctx context.Context, filter port.PortalRecordFilter, offset, limit int) ([]domain.PortalRecord, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.MatchType != "" {
		args = append(args, string(filter.MatchType))
		conds = append(conds, fmt.Sprintf("match_type = $%d", len(args)))
	}
	if filter.Portal != "" {
		args = append(args, filter.Portal)
		conds = append(conds, fmt.Sprintf("LOWER(portal) = LOWER($%d)", len(args)))
	}
	if filter.InvoiceID != nil {
		args = append(args, *filter.InvoiceID)
		conds = append(conds, fmt.Sprintf("invoice_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM portal_records"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("portalRecordRepo.List count: %w", err)
	}

	var limitArg interface{}
	if limit > 0 {
		limitArg = limit
	}
	args = append(args, limitArg, offset)
	query := fmt.Sprintf(
		"SELECT * FROM portal_records%s ORDER BY invoice_number ASC, last_synced_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	records := []domain.PortalRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("portalRecordRepo.List: %w", err)
	}
	return records, total, nil
}

func (r *portalRecordRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.PortalRecord, error) {
	records, _, err := r.List(ctx, port.PortalRecordFilter{InvoiceID: &invoiceID}, 0, 0)
	return records, err
}

// SaveAll updates the records in one transaction. Demotions are written before promotions
// so the one-Primary-per-invoice index never sees two Primaries.
func (r *portalRecordRepo) SaveAll(ctx context.Context, records []domain.PortalRecord) error {
	ordered := append([]domain.PortalRecord(nil), records...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MatchType != domain.MatchPrimary && ordered[j].MatchType == domain.MatchPrimary
	})

	query := `UPDATE portal_records SET
		portal = :portal, invoice_id = :invoice_id, invoice_number = :invoice_number,
		buyer = :buyer, total = :total, currency = :currency, portal_status = :portal_status,
		match_type = :match_type, smart_connection_id = :smart_connection_id,
		last_synced_at = :last_synced_at
		WHERE id = :id`

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i := range ordered {
			result, err := tx.NamedExecContext(ctx, query, ordered[i])
			if isUniqueViolation(err) {
				return fmt.Errorf("portalRecordRepo.SaveAll: %w", domain.ErrPrimaryConflict)
			}
			if err != nil {
				return fmt.Errorf("portalRecordRepo.SaveAll: %w", err)
			}
			if rows, _ := result.RowsAffected(); rows == 0 {
				return fmt.Errorf("%w: %s", domain.ErrPortalRecordNotFound, ordered[i].ID)
			}
		}
		return nil
	})
}

// portalUserRow flattens the two-factor settings into columns.
type portalUserRow struct {
	ID                uuid.UUID  `db:"id"`
	Portal            string     `db:"portal"`
	PortalURL         string     `db:"portal_url"`
	Username          string     `db:"username"`
	PasswordHash      string     `db:"password_hash"`
	UserType          string     `db:"user_type"`
	Status            string     `db:"status"`
	Issue             string     `db:"issue"`
	TwoFactorMethod   string     `db:"two_factor_method"`
	TwoFactorEmail    string     `db:"two_factor_email"`
	TwoFactorPhone    string     `db:"two_factor_phone"`
	LinkedConnections int        `db:"linked_connections"`
	LastValidatedAt   *time.Time `db:"last_validated_at"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

func toPortalUserRow(u *domain.PortalUser) portalUserRow {
	method := u.TwoFactor.Method
	if method == "" {
		method = domain.TwoFactorNone
	}
	return portalUserRow{
		ID:                u.ID,
		Portal:            u.Portal,
		PortalURL:         u.PortalURL,
		Username:          u.Username,
		PasswordHash:      u.PasswordHash,
		UserType:          string(u.UserType),
		Status:            string(u.Status),
		Issue:             u.Issue,
		TwoFactorMethod:   string(method),
		TwoFactorEmail:    u.TwoFactor.Email,
		TwoFactorPhone:    u.TwoFactor.Phone,
		LinkedConnections: u.LinkedConnections,
		LastValidatedAt:   u.LastValidatedAt,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (row *portalUserRow) toDomain() domain.PortalUser {
	return domain.PortalUser{
		ID:           row.ID,
		Portal:       row.Portal,
		PortalURL:    row.PortalURL,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		UserType:     domain.PortalUserType(row.UserType),
		Status:       domain.PortalUserStatus(row.Status),
		Issue:        row.Issue,
		TwoFactor: domain.TwoFactorSettings{
			Method: domain.TwoFactorMethod(row.TwoFactorMethod),
			Email:  row.TwoFactorEmail,
			Phone:  row.TwoFactorPhone,
		},
		LinkedConnections: row.LinkedConnections,
		LastValidatedAt:   row.LastValidatedAt,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

type portalUserRepo struct {
	db *sqlx.DB
}

// NewPortalUserRepo creates a new PostgreSQL-backed PortalUserRepository.
func NewPortalUserRepo(db *sqlx.DB) port.PortalUserRepository {
	return &portalUserRepo{db: db}
}

func (r *portalUserRepo) Create(ctx context.Context, user *domain.PortalUser) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	query := `INSERT INTO portal_users
		(id, portal, portal_url, username, password_hash, user_type, status, issue,
		 two_factor_method, two_factor_email, two_factor_phone, linked_connections,
		 last_validated_at, created_at, updated_at)
		VALUES (:id, :portal, :portal_url, :username, :password_hash, :user_type, :status,
		 :issue, :two_factor_method, :two_factor_email, :two_factor_phone,
		 :linked_connections, :last_validated_at, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, toPortalUserRow(user)); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("portalUserRepo.Create: %w", err)
	}
	return nil
}

func (r *portalUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PortalUser, error) {
	var row portalUserRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM portal_users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPortalUserNotFound
		}
		return nil, fmt.Errorf("portalUserRepo.GetByID: %w", err)
	}
	u := row.toDomain()
	return &u, nil
}

func (r *portalUserRepo) List(ctx context.Context) ([]domain.PortalUser, error) {
	var rows []portalUserRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT * FROM portal_users ORDER BY created_at ASC"); err != nil {
		return nil, fmt.Errorf("portalUserRepo.List: %w", err)
	}
	users := make([]domain.PortalUser, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toDomain())
	}
	return users, nil
}

func (r *portalUserRepo) Update(ctx context.Context, user *domain.PortalUser) error {
	query := `UPDATE portal_users SET
		portal = :portal, portal_url = :portal_url, username = :username,
		password_hash = :password_hash, status = :status, issue = :issue,
		two_factor_method = :two_factor_method, two_factor_email = :two_factor_email,
		two_factor_phone = :two_factor_phone, linked_connections = :linked_connections,
		last_validated_at = :last_validated_at, updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, toPortalUserRow(user))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("portalUserRepo.Update: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrPortalUserNotFound
	}
	return nil
}

func (r *portalUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM portal_users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("portalUserRepo.Delete: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrPortalUserNotFound
	}
	return nil
}

type smartConnectionRepo struct {
	db *sqlx.DB
}

// NewSmartConnectionRepo creates a new PostgreSQL-backed SmartConnectionRepository.
func NewSmartConnectionRepo(db *sqlx.DB) port.SmartConnectionRepository {
	return &smartConnectionRepo{db: db}
}

func (r *smartConnectionRepo) List(ctx context.Context) ([]domain.SmartConnection, error) {
	conns := []domain.SmartConnection{}
	if err := r.db.SelectContext(ctx, &conns, "SELECT * FROM smart_connections ORDER BY buyer, supplier"); err != nil {
		return nil, fmt.Errorf("smartConnectionRepo.List: %w", err)
	}
	return conns, nil
}

func (r *smartConnectionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SmartConnection, error) {
	var sc domain.SmartConnection
	err := r.db.GetContext(ctx, &sc, "SELECT * FROM smart_connections WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("smartConnectionRepo.GetByID: %w", err)
	}
	return &sc, nil
}
