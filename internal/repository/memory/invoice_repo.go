// Package memory provides in-process implementations of the repository ports. They back
// the server when no database is configured and keep every read isolated from later writes.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"payops/internal/domain"
	"payops/internal/port"
)

type invoiceRepo struct {
	mu       sync.RWMutex
	invoices map[uuid.UUID]domain.Invoice
}

// NewInvoiceRepo creates an in-memory InvoiceRepository.
func NewInvoiceRepo() port.InvoiceRepository {
	return &invoiceRepo{invoices: make(map[uuid.UUID]domain.Invoice)}
}

func (r *invoiceRepo) Create(_ context.Context, inv *domain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if _, exists := r.invoices[inv.ID]; exists {
		return domain.ErrAlreadyExists
	}
	r.invoices[inv.ID] = cloneInvoice(inv)
	return nil
}

func (r *invoiceRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	out := cloneInvoice(&inv)
	return &out, nil
}

func (r *invoiceRepo) List(_ context.Context, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	r.mu.RLock()
	matched := make([]domain.Invoice, 0, len(r.invoices))
	for id := range r.invoices {
		inv := r.invoices[id]
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		if filter.HasExceptions != nil && inv.HasExceptions != *filter.HasExceptions {
			continue
		}
		matched = append(matched, cloneInvoice(&inv))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreationDate.Equal(matched[j].CreationDate) {
			return matched[i].CreationDate.After(matched[j].CreationDate)
		}
		return matched[i].Number < matched[j].Number
	})
	return paginate(matched, offset, limit), len(matched), nil
}

func (r *invoiceRepo) FindByNumber(_ context.Context, number string) ([]domain.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Invoice
	for id := range r.invoices {
		inv := r.invoices[id]
		if strings.EqualFold(inv.Number, number) {
			out = append(out, cloneInvoice(&inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreationDate.Before(out[j].CreationDate) })
	return out, nil
}

func (r *invoiceRepo) Update(_ context.Context, inv *domain.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[inv.ID]; !ok {
		return domain.ErrInvoiceNotFound
	}
	r.invoices[inv.ID] = cloneInvoice(inv)
	return nil
}

func cloneInvoice(inv *domain.Invoice) domain.Invoice {
	out := *inv
	out.Exceptions = make([]domain.Exception, len(inv.Exceptions))
	for i, ex := range inv.Exceptions {
		ex.MissingFields = append([]string(nil), ex.MissingFields...)
		if ex.ResolvedAt != nil {
			at := *ex.ResolvedAt
			ex.ResolvedAt = &at
		}
		out.Exceptions[i] = ex
	}
	if inv.Fields != nil {
		out.Fields = make(map[string]string, len(inv.Fields))
		for k, v := range inv.Fields {
			out.Fields[k] = v
		}
	}
	if inv.DueDate != nil {
		d := *inv.DueDate
		out.DueDate = &d
	}
	if inv.SmartConnectionID != nil {
		id := *inv.SmartConnectionID
		out.SmartConnectionID = &id
	}
	return out
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
