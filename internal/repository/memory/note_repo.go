package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"payops/internal/domain"
	"payops/internal/port"
)

type noteRepo struct {
	mu          sync.RWMutex
	notes       map[uuid.UUID]domain.Note
	attachments map[uuid.UUID]domain.Attachment
}

// NewNoteRepo creates an in-memory NoteRepository.
func NewNoteRepo() port.NoteRepository {
	return &noteRepo{
		notes:       make(map[uuid.UUID]domain.Note),
		attachments: make(map[uuid.UUID]domain.Attachment),
	}
}

func (r *noteRepo) Create(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}
	stored := *note
	stored.Attachments = nil
	r.notes[note.ID] = stored
	return nil
}

func (r *noteRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	n.Attachments = r.attachmentsOf(id)
	return &n, nil
}

func (r *noteRepo) ListByInvoice(_ context.Context, invoiceID uuid.UUID, kinds []domain.ActivityKind) ([]domain.Note, error) {
	want := make(map[domain.ActivityKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Note{}
	for id := range r.notes {
		n := r.notes[id]
		if n.InvoiceID != invoiceID || (len(want) > 0 && !want[n.Kind]) {
			continue
		}
		n.Attachments = r.attachmentsOf(n.ID)
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *noteRepo) AddAttachment(_ context.Context, att *domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[att.NoteID]; !ok {
		return domain.ErrNotFound
	}
	if att.ID == uuid.Nil {
		att.ID = uuid.New()
	}
	r.attachments[att.ID] = *att
	return nil
}

func (r *noteRepo) GetAttachment(_ context.Context, id uuid.UUID) (*domain.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.attachments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

// attachmentsOf must be called with r.mu held.
func (r *noteRepo) attachmentsOf(noteID uuid.UUID) []domain.Attachment {
	out := []domain.Attachment{}
	for id := range r.attachments {
		if r.attachments[id].NoteID == noteID {
			out = append(out, r.attachments[id])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

type paymentRecordRepo struct {
	mu      sync.RWMutex
	records map[uuid.UUID][]domain.PaymentRecord
}

// NewPaymentRecordRepo creates an in-memory PaymentRecordRepository.
func NewPaymentRecordRepo() port.PaymentRecordRepository {
	return &paymentRecordRepo{records: make(map[uuid.UUID][]domain.PaymentRecord)}
}

func (r *paymentRecordRepo) CreateBatch(_ context.Context, records []domain.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range records {
		r.records[records[i].ImportID] = append(r.records[records[i].ImportID], records[i])
	}
	return nil
}

func (r *paymentRecordRepo) ListByImport(_ context.Context, importID uuid.UUID) ([]domain.PaymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.PaymentRecord{}, r.records[importID]...), nil
}
