package exception

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"payops/internal/domain"
)

// Navigation targets returned once an invoice has no open exceptions left.
const (
	RedirectInvoices        = "/invoices"
	RedirectPendingInvoices = "/invoices?status=pending"
)

// Outcome describes the effect of applying a resolution to an invoice.
type Outcome struct {
	Action      domain.ResolutionAction `json:"action"`
	Resolved    []uuid.UUID             `json:"resolved"`
	AllResolved bool                    `json:"all_resolved"`
	RedirectTo  string                  `json:"redirect_to,omitempty"`
}

// ApplyResolution marks the targeted exceptions of inv as resolved at now. An empty ids
// slice targets every open exception. HasExceptions is recomputed afterwards, and the
// navigation target is only set once no exception remains open.
func ApplyResolution(inv *domain.Invoice, ids []uuid.UUID, action domain.ResolutionAction, now time.Time) (Outcome, error) {
	if !domain.ValidResolutionActions[action] {
		return Outcome{}, domain.ErrInvalidAction
	}
	if len(inv.OpenExceptions()) == 0 {
		return Outcome{}, domain.ErrNoOpenExceptions
	}

	if err := CheckTargets(inv, ids); err != nil {
		return Outcome{}, err
	}
	targets := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		targets[id] = true
	}

	out := Outcome{Action: action}
	resolvedAt := now.UTC()
	for i := range inv.Exceptions {
		ex := &inv.Exceptions[i]
		if ex.Resolved {
			continue
		}
		if len(targets) > 0 && !targets[ex.ID] {
			continue
		}
		ex.Resolved = true
		ex.ResolvedAt = &resolvedAt
		out.Resolved = append(out.Resolved, ex.ID)
	}

	switch action {
	case domain.ResolutionExcluded:
		inv.Status = domain.InvoiceStatusExcluded
	case domain.ResolutionForceSubmit:
		inv.Status = domain.InvoiceStatusPending
	}

	inv.RecomputeHasExceptions()
	inv.UpdatedAt = resolvedAt
	if inv.HasExceptions {
		return out, nil
	}

	out.AllResolved = true
	if inv.Status == domain.InvoiceStatusException {
		inv.Status = domain.InvoiceStatusPending
	}
	out.RedirectTo = RedirectInvoices
	if action == domain.ResolutionForceSubmit {
		out.RedirectTo = RedirectPendingInvoices
	}
	return out, nil
}

// FillMissingFields records manually entered values for a MISSING_INFORMATION exception.
// Every field listed on the exception must be supplied with a non-blank value.
func FillMissingFields(inv *domain.Invoice, exceptionID uuid.UUID, values map[string]string) error {
	idx := indexOf(inv, exceptionID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrExceptionNotFound, exceptionID)
	}
	ex := &inv.Exceptions[idx]

	var missing []string
	for _, f := range ex.MissingFields {
		if strings.TrimSpace(values[f]) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", domain.ErrMissingFields, strings.Join(missing, ", "))
	}

	if inv.Fields == nil {
		inv.Fields = make(map[string]string, len(values))
	}
	for _, f := range ex.MissingFields {
		v := strings.TrimSpace(values[f])
		inv.Fields[f] = v
		if f == "poNumber" {
			inv.PONumber = v
		}
	}
	return nil
}

// CheckTargets reports whether every id names an exception of inv.
func CheckTargets(inv *domain.Invoice, ids []uuid.UUID) error {
	for _, id := range ids {
		if indexOf(inv, id) < 0 {
			return fmt.Errorf("%w: %s", domain.ErrExceptionNotFound, id)
		}
	}
	return nil
}

func indexOf(inv *domain.Invoice, id uuid.UUID) int {
	for i := range inv.Exceptions {
		if inv.Exceptions[i].ID == id {
			return i
		}
	}
	return -1
}
