// Package duplicate implements the select → compare → confirm flow used to resolve a
// DUPLICATE_INVOICE exception.
package duplicate

import (
	"fmt"

	"github.com/google/uuid"

	"payops/internal/domain"
)

// Step is a state of the duplicate resolution wizard.
type Step string

const (
	StepSelect  Step = "select"
	StepCompare Step = "compare"
	StepConfirm Step = "confirm"
)

// MaxSelection is the number of invoices that can be compared side by side.
const MaxSelection = 2

// Wizard holds the state of one duplicate resolution. It is JSON encoded into the
// session store between requests, so all fields are exported.
type Wizard struct {
	ID          uuid.UUID        `json:"id"`
	InvoiceID   uuid.UUID        `json:"invoice_id"`
	ExceptionID uuid.UUID        `json:"exception_id"`
	Candidates  []domain.Invoice `json:"candidates"`
	Selected    []uuid.UUID      `json:"selected"`
	Kept        *uuid.UUID       `json:"kept,omitempty"`
	Step        Step             `json:"step"`
}

// Decision is the result of a confirmed wizard.
type Decision struct {
	ExceptionID uuid.UUID               `json:"exception_id"`
	Action      domain.ResolutionAction `json:"action"`
	KeepID      uuid.UUID               `json:"keep_id"`
	DiscardIDs  []uuid.UUID             `json:"discard_ids"`
}

// NewWizard starts a wizard for inv's duplicate exception. The candidate list is the invoice
// itself followed by the duplicates found for it.
func NewWizard(inv *domain.Invoice, exceptionID uuid.UUID, duplicates []domain.Invoice) *Wizard {
	candidates := make([]domain.Invoice, 0, len(duplicates)+1)
	candidates = append(candidates, *inv)
	for i := range duplicates {
		if duplicates[i].ID != inv.ID {
			candidates = append(candidates, duplicates[i])
		}
	}
	return &Wizard{
		ID:          uuid.New(),
		InvoiceID:   inv.ID,
		ExceptionID: exceptionID,
		Candidates:  candidates,
		Selected:    []uuid.UUID{},
		Step:        StepSelect,
	}
}

// Toggle selects or deselects a candidate. Selecting a third invoice while two are already
// selected fails with ErrSelectionLimit and leaves the selection unchanged.
func (w *Wizard) Toggle(id uuid.UUID) error {
	if w.Step != StepSelect {
		return w.stepError("toggle")
	}
	if w.candidate(id) == nil {
		return domain.ErrCandidateNotFound
	}
	for i, sel := range w.Selected {
		if sel == id {
			w.Selected = append(w.Selected[:i:i], w.Selected[i+1:]...)
			return nil
		}
	}
	if len(w.Selected) >= MaxSelection {
		return domain.ErrSelectionLimit
	}
	w.Selected = append(w.Selected, id)
	return nil
}

// ChooseSingle keeps the only selected invoice and skips straight to confirmation.
func (w *Wizard) ChooseSingle() error {
	if w.Step != StepSelect || len(w.Selected) != 1 {
		return w.stepError("choose")
	}
	kept := w.Selected[0]
	w.Kept = &kept
	w.Step = StepConfirm
	return nil
}

// Compare moves to the side-by-side view. Exactly two invoices must be selected; the one
// with the newest creation date is pre-selected to keep.
func (w *Wizard) Compare() error {
	if w.Step != StepSelect || len(w.Selected) != MaxSelection {
		return w.stepError("compare")
	}
	newest := Newest(w.SelectedInvoices())
	w.Kept = &newest
	w.Step = StepCompare
	return nil
}

// Keep picks the invoice to keep from the compared pair and moves to confirmation.
// uuid.Nil keeps the pre-selected default.
func (w *Wizard) Keep(id uuid.UUID) error {
	if w.Step != StepCompare {
		return w.stepError("keep")
	}
	if id != uuid.Nil {
		if !w.isSelected(id) {
			return domain.ErrCandidateNotFound
		}
		w.Kept = &id
	}
	w.Step = StepConfirm
	return nil
}

// Back moves one step back. From confirm it returns to compare when two invoices were
// selected, otherwise to select.
func (w *Wizard) Back() error {
	switch w.Step {
	case StepCompare:
		w.Kept = nil
		w.Step = StepSelect
	case StepConfirm:
		if len(w.Selected) == MaxSelection {
			w.Step = StepCompare
			return nil
		}
		w.Kept = nil
		w.Step = StepSelect
	default:
		return w.stepError("back")
	}
	return nil
}

// Confirm finalizes the wizard. confirmed must be true, mirroring the explicit
// confirmation dialog.
func (w *Wizard) Confirm(confirmed bool) (*Decision, error) {
	if w.Step != StepConfirm || w.Kept == nil {
		return nil, w.stepError("confirm")
	}
	if !confirmed {
		return nil, domain.ErrConfirmationRequired
	}
	d := &Decision{
		ExceptionID: w.ExceptionID,
		Action:      domain.ResolutionMarkResolved,
		KeepID:      *w.Kept,
		DiscardIDs:  []uuid.UUID{},
	}
	for _, id := range w.Selected {
		if id != *w.Kept {
			d.DiscardIDs = append(d.DiscardIDs, id)
		}
	}
	return d, nil
}

// SelectedInvoices returns the selected candidates in selection order.
func (w *Wizard) SelectedInvoices() []domain.Invoice {
	out := make([]domain.Invoice, 0, len(w.Selected))
	for _, id := range w.Selected {
		if inv := w.candidate(id); inv != nil {
			out = append(out, *inv)
		}
	}
	return out
}

func (w *Wizard) candidate(id uuid.UUID) *domain.Invoice {
	for i := range w.Candidates {
		if w.Candidates[i].ID == id {
			return &w.Candidates[i]
		}
	}
	return nil
}

func (w *Wizard) isSelected(id uuid.UUID) bool {
	for _, sel := range w.Selected {
		if sel == id {
			return true
		}
	}
	return false
}

func (w *Wizard) stepError(action string) error {
	return fmt.Errorf("%w: %s in step %s with %d selected", domain.ErrInvalidWizardStep, action, w.Step, len(w.Selected))
}
