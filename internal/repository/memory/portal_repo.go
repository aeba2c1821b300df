package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"payops/internal/domain"
	"payops/internal/port"
)

type portalRecordRepo struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.PortalRecord
}

// NewPortalRecordRepo creates an in-memory PortalRecordRepository seeded with records.
func NewPortalRecordRepo(records ...domain.PortalRecord) port.PortalRecordRepository {
	r := &portalRecordRepo{records: make(map[uuid.UUID]domain.PortalRecord, len(records))}
	for i := range records {
		r.records[records[i].ID] = cloneRecord(&records[i])
	}
	return r
}

func (r *portalRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.PortalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrPortalRecordNotFound
	}
	out := cloneRecord(&rec)
	return &out, nil
}

func (r *portalRecordRepo) List(_ context.Context, filter port.PortalRecordFilter, offset, limit int) ([]domain.PortalRecord, int, error) {
	r.mu.RLock()
	matched := make([]domain.PortalRecord, 0, len(r.records))
	for id := range r.records {
		rec := r.records[id]
		if filter.MatchType != "" && rec.MatchType != filter.MatchType {
			continue
		}
		if filter.Portal != "" && !strings.EqualFold(rec.Portal, filter.Portal) {
			continue
		}
		if filter.InvoiceID != nil && (rec.InvoiceID == nil || *rec.InvoiceID != *filter.InvoiceID) {
			continue
		}
		matched = append(matched, cloneRecord(&rec))
	}
	r.mu.RUnlock()

	sortRecords(matched)
	return paginate(matched, offset, limit), len(matched), nil
}

func (r *portalRecordRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.PortalRecord, error) {
	out, _, err := r.List(ctx, port.PortalRecordFilter{InvoiceID: &invoiceID}, 0, 0)
	return out, err
}

// SaveAll writes records as one unit. It fails without writing anything if a record is
// unknown or if the result would leave an invoice with more than one Primary.
func (r *portalRecordRepo) SaveAll(_ context.Context, records []domain.PortalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	staged := make(map[uuid.UUID]domain.PortalRecord, len(records))
	for i := range records {
		if _, ok := r.records[records[i].ID]; !ok {
			return domain.ErrPortalRecordNotFound
		}
		staged[records[i].ID] = records[i]
	}

	primaries := make(map[uuid.UUID]int)
	for id, rec := range r.records {
		if s, ok := staged[id]; ok {
			rec = s
		}
		if rec.MatchType == domain.MatchPrimary && rec.InvoiceID != nil {
			primaries[*rec.InvoiceID]++
			if primaries[*rec.InvoiceID] > 1 {
				return fmt.Errorf("%w: invoice %s", domain.ErrPrimaryConflict, *rec.InvoiceID)
			}
		}
	}

	for i := range records {
		r.records[records[i].ID] = cloneRecord(&records[i])
	}
	return nil
}

func sortRecords(records []domain.PortalRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].InvoiceNumber != records[j].InvoiceNumber {
			return records[i].InvoiceNumber < records[j].InvoiceNumber
		}
		return records[i].LastSyncedAt.After(records[j].LastSyncedAt)
	})
}

func cloneRecord(rec *domain.PortalRecord) domain.PortalRecord {
	out := *rec
	if rec.InvoiceID != nil {
		id := *rec.InvoiceID
		out.InvoiceID = &id
	}
	if rec.SmartConnectionID != nil {
		id := *rec.SmartConnectionID
		out.SmartConnectionID = &id
	}
	return out
}

type portalUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.PortalUser
}

// NewPortalUserRepo creates an in-memory PortalUserRepository seeded with users.
func NewPortalUserRepo(users ...domain.PortalUser) port.PortalUserRepository {
	r := &portalUserRepo{users: make(map[uuid.UUID]domain.PortalUser, len(users))}
	for i := range users {
		r.users[users[i].ID] = users[i]
	}
	return r
}

func (r *portalUserRepo) Create(_ context.Context, user *domain.PortalUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	for id := range r.users {
		u := r.users[id]
		if strings.EqualFold(u.Portal, user.Portal) && strings.EqualFold(u.Username, user.Username) {
			return domain.ErrAlreadyExists
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *portalUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.PortalUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrPortalUserNotFound
	}
	return &u, nil
}

func (r *portalUserRepo) List(_ context.Context) ([]domain.PortalUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.PortalUser, 0, len(r.users))
	for id := range r.users {
		out = append(out, r.users[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *portalUserRepo) Update(_ context.Context, user *domain.PortalUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrPortalUserNotFound
	}
	r.users[user.ID] = *user
	return nil
}

func (r *portalUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrPortalUserNotFound
	}
	delete(r.users, id)
	return nil
}

type smartConnectionRepo struct {
	connections []domain.SmartConnection
}

// NewSmartConnectionRepo creates a read-only SmartConnectionRepository.
func NewSmartConnectionRepo(connections ...domain.SmartConnection) port.SmartConnectionRepository {
	return &smartConnectionRepo{connections: append([]domain.SmartConnection(nil), connections...)}
}

func (r *smartConnectionRepo) List(_ context.Context) ([]domain.SmartConnection, error) {
	return append([]domain.SmartConnection(nil), r.connections...), nil
}

func (r *smartConnectionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.SmartConnection, error) {
	for i := range r.connections {
		if r.connections[i].ID == id {
			sc := r.connections[i]
			return &sc, nil
		}
	}
	return nil, domain.ErrNotFound
}
