package memory

import (
	"context"
	"sort"
	"strings"

	"payops/internal/domain"
	"payops/internal/port"
)

type duplicateFinder struct {
	invoices port.InvoiceRepository
}

// NewDuplicateFinder creates a DuplicateInvoiceFinder over an invoice repository.
func NewDuplicateFinder(invoices port.InvoiceRepository) port.DuplicateInvoiceFinder {
	return &duplicateFinder{invoices: invoices}
}

func (f *duplicateFinder) FindDuplicates(ctx context.Context, inv *domain.Invoice) ([]domain.Invoice, error) {
	same, err := f.invoices.FindByNumber(ctx, inv.Number)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Invoice, 0, len(same))
	for i := range same {
		if same[i].ID == inv.ID || !strings.EqualFold(same[i].Buyer, inv.Buyer) {
			continue
		}
		out = append(out, same[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreationDate.After(out[j].CreationDate) })
	if len(out) > port.MaxDuplicateCandidates {
		out = out[:port.MaxDuplicateCandidates]
	}
	return out, nil
}
