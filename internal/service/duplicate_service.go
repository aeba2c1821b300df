package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"payops/internal/domain"
	"payops/internal/duplicate"
	"payops/internal/exception"
	"payops/internal/port"
)

// DuplicateView is a wizard session as returned to the client. Comparison is filled in
// once two invoices are selected.
type DuplicateView struct {
	*duplicate.Wizard
	Comparison []duplicate.FieldDiff `json:"comparison,omitempty"`
}

// DuplicateConfirmResult is returned once the wizard is confirmed.
type DuplicateConfirmResult struct {
	Decision     *duplicate.Decision `json:"decision"`
	Invoice      *domain.Invoice     `json:"invoice"`
	Outcome      exception.Outcome   `json:"outcome"`
	Notification domain.Notification `json:"notification"`
}

// DuplicateService drives the duplicate invoice wizard. Wizard state lives in the session
// store between requests.
type DuplicateService interface {
	Start(ctx context.Context, invoiceID uuid.UUID) (*DuplicateView, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*DuplicateView, error)
	Toggle(ctx context.Context, sessionID, invoiceID uuid.UUID) (*DuplicateView, error)
	ChooseSingle(ctx context.Context, sessionID uuid.UUID) (*DuplicateView, error)
	Compare(ctx context.Context, sessionID uuid.UUID) (*DuplicateView, error)
	Keep(ctx context.Context, sessionID, invoiceID uuid.UUID) (*DuplicateView, error)
	Back(ctx context.Context, sessionID uuid.UUID) (*DuplicateView, error)
	Confirm(ctx context.Context, sessionID uuid.UUID, confirmed bool, author string) (*DuplicateConfirmResult, error)
	Cancel(ctx context.Context, sessionID uuid.UUID) error
}

type duplicateService struct {
	invoices   port.InvoiceRepository
	duplicates port.DuplicateInvoiceFinder
	sessions   port.SessionStore
	ttl        time.Duration
	effects    sideEffects
	log        logrus.FieldLogger
}

// NewDuplicateService creates a new DuplicateService implementation.
func NewDuplicateService(
	invoices port.InvoiceRepository,
	duplicates port.DuplicateInvoiceFinder,
	notes port.NoteRepository,
	sessions port.SessionStore,
	notifier port.Notifier,
	ttl time.Duration,
	log logrus.FieldLogger,
) DuplicateService {
	log = log.WithField("component", "duplicateService")
	return &duplicateService{
		invoices:   invoices,
		duplicates: duplicates,
		sessions:   sessions,
		ttl:        ttl,
		effects:    sideEffects{notes: notes, notifier: notifier, log: log},
		log:        log,
	}
}

func (s *duplicateService) Start(ctx context.Context, invoiceID uuid.UUID) (*DuplicateView, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	var exceptionID uuid.UUID
	for _, ex := range inv.OpenExceptions() {
		if ex.Type == domain.ExceptionDuplicateInvoice {
			exceptionID = ex.ID
			break
		}
	}
	if exceptionID == uuid.Nil {
		return nil, fmt.Errorf("%w: invoice %s has no open duplicate exception", domain.ErrExceptionNotFound, inv.Number)
	}

	found, err := s.duplicates.FindDuplicates(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no duplicates of invoice %s", domain.ErrCandidateNotFound, inv.Number)
	}

	w := duplicate.NewWizard(inv, exceptionID, found)
	if err := s.sessions.Save(ctx, sessionDuplicate, w.ID, w, s.ttl); err != nil {
		return nil, fmt.Errorf("saving duplicate session: %w", err)
	}
	s.log.WithFields(logrus.Fields{"session_id": w.ID, "invoice_id": inv.ID, "candidates": len(w.Candidates)}).
		Debug("duplicate wizard started")
	return view(w), nil
}

func (s *duplicateService) Get(ctx context.Context, sessionID uuid.UUID) (*DuplicateView, error) {
	w, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return view(w), nil
}

func (s *duplicateService) Toggle(ctx context.Context, sessionID, invoiceID uuid.UUID) (*DuplicateView, error) {
	return s.mutate(ctx, sessionID, func(w *duplicate.Wizard) error { return w.Toggle(invoiceID) })
}

func (s *duplicateService) ChooseSingle(ctx context.Context, sessionID uuid.UUID) (*DuplicateView, error) {
	return s.mutate(ctx, sessionID, (*duplicate.Wizard).ChooseSingle)
}

func (s *duplicateService) Compare(ctx context.Context, sessionID uuid.UUID) (*DuplicateView, error) {
	return s.mutate(ctx, sessionID, (*duplicate.Wizard).Compare)
}

func (s *duplicateService) Keep(ctx context.Context, sessionID, invoiceID uuid.UUID) (*DuplicateView, error) {
	return s.mutate(ctx, sessionID, func(w *duplicate.Wizard) error { return w.Keep(invoiceID) })
}

func (s *duplicateService) Back(ctx context.Context, sessionID uuid.UUID) (*DuplicateView, error) {
	return s.mutate(ctx, sessionID, (*duplicate.Wizard).Back)
}

// Confirm resolves the duplicate exception with MARK_RESOLVED and flags every selected
// invoice that was not kept as a duplicate. The session is closed afterwards.
func (s *duplicateService) Confirm(ctx context.Context, sessionID uuid.UUID, confirmed bool, author string) (*DuplicateConfirmResult, error) {
	w, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	decision, err := w.Confirm(confirmed)
	if err != nil {
		return nil, err
	}

	inv, err := s.invoices.GetByID(ctx, w.InvoiceID)
	if err != nil {
		return nil, err
	}
	outcome, err := exception.ApplyResolution(inv, []uuid.UUID{decision.ExceptionID}, decision.Action, time.Now())
	if err != nil {
		return nil, err
	}

	for _, id := range decision.DiscardIDs {
		if id == inv.ID {
			inv.IsDuplicate = true
			continue
		}
		other, err := s.invoices.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading discarded invoice %s: %w", id, err)
		}
		other.IsDuplicate = true
		other.UpdatedAt = time.Now().UTC()
		if err := s.invoices.Update(ctx, other); err != nil {
			return nil, fmt.Errorf("flagging invoice %s as duplicate: %w", id, err)
		}
		s.effects.activity(ctx, id, domain.ActivityResolution, author,
			fmt.Sprintf("Marked as duplicate of invoice %s", decision.KeepID))
	}
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("saving invoice: %w", err)
	}

	if err := s.sessions.Delete(ctx, sessionDuplicate, sessionID); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("failed to delete duplicate session")
	}

	s.effects.activity(ctx, inv.ID, domain.ActivityResolution, author,
		fmt.Sprintf("Duplicate resolved: kept %s, discarded %d invoice(s)", decision.KeepID, len(decision.DiscardIDs)))
	n := domain.Notification{
		Title:       "Duplicate resolved",
		Description: fmt.Sprintf("Invoice %s was kept; %d duplicate(s) flagged.", decision.KeepID, len(decision.DiscardIDs)),
		Variant:     domain.NotificationSuccess,
	}
	s.effects.notify(ctx, n)

	return &DuplicateConfirmResult{Decision: decision, Invoice: inv, Outcome: outcome, Notification: n}, nil
}

func (s *duplicateService) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	return s.sessions.Delete(ctx, sessionDuplicate, sessionID)
}

func (s *duplicateService) load(ctx context.Context, sessionID uuid.UUID) (*duplicate.Wizard, error) {
	var w duplicate.Wizard
	if err := s.sessions.Load(ctx, sessionDuplicate, sessionID, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// mutate applies fn to the stored wizard and saves it only when fn succeeds, so a rejected
// transition leaves the session unchanged.
func (s *duplicateService) mutate(ctx context.Context, sessionID uuid.UUID, fn func(*duplicate.Wizard) error) (*DuplicateView, error) {
	w, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sessionDuplicate, w.ID, w, s.ttl); err != nil {
		return nil, fmt.Errorf("saving duplicate session: %w", err)
	}
	return view(w), nil
}

func view(w *duplicate.Wizard) *DuplicateView {
	v := &DuplicateView{Wizard: w}
	if len(w.Selected) == duplicate.MaxSelection {
		v.Comparison = duplicate.CompareFields(w.SelectedInvoices())
	}
	return v
}
