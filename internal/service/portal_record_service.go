package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"payops/internal/domain"
	"payops/internal/port"
	"payops/internal/portal"
)

// PortalRecordResult is a portal record after a change, with the notification sent for it.
type PortalRecordResult struct {
	Record       *domain.PortalRecord  `json:"record"`
	Changed      []domain.PortalRecord `json:"changed"`
	Notification domain.Notification   `json:"notification"`
}

// PortalRecordService defines the operations on records pulled from buyer portals.
type PortalRecordService interface {
	List(ctx context.Context, filter port.PortalRecordFilter, offset, limit int) ([]domain.PortalRecord, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PortalRecord, error)
	MakePrimary(ctx context.Context, id uuid.UUID, author string) (*PortalRecordResult, error)
	Link(ctx context.Context, id, invoiceID uuid.UUID, author string) (*PortalRecordResult, error)
	Unlink(ctx context.Context, id uuid.UUID, author string) (*PortalRecordResult, error)
	ListSmartConnections(ctx context.Context) ([]domain.SmartConnection, error)
}

type portalRecordService struct {
	records     port.PortalRecordRepository
	invoices    port.InvoiceRepository
	connections port.SmartConnectionRepository
	effects     sideEffects
	log         logrus.FieldLogger
}

// NewPortalRecordService creates a new PortalRecordService implementation.
func NewPortalRecordService(
	records port.PortalRecordRepository,
	invoices port.InvoiceRepository,
	connections port.SmartConnectionRepository,
	notes port.NoteRepository,
	notifier port.Notifier,
	log logrus.FieldLogger,
) PortalRecordService {
	log = log.WithField("component", "portalRecordService")
	return &portalRecordService{
		records:     records,
		invoices:    invoices,
		connections: connections,
		effects:     sideEffects{notes: notes, notifier: notifier, log: log},
		log:         log,
	}
}

func (s *portalRecordService) List(ctx context.Context, filter port.PortalRecordFilter, offset, limit int) ([]domain.PortalRecord, int, error) {
	return s.records.List(ctx, filter, offset, limit)
}

func (s *portalRecordService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PortalRecord, error) {
	return s.records.GetByID(ctx, id)
}

func (s *portalRecordService) ListSmartConnections(ctx context.Context) ([]domain.SmartConnection, error) {
	return s.connections.List(ctx)
}

// MakePrimary promotes a linked record to Primary and demotes the previous Primary of its
// invoice. Promoting the current Primary is a no-op.
func (s *portalRecordService) MakePrimary(ctx context.Context, id uuid.UUID, author string) (*PortalRecordResult, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.InvoiceID == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotLinked, id)
	}
	group, err := s.records.ListByInvoice(ctx, *rec.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("loading portal record group: %w", err)
	}

	changed, err := portal.MakePrimary(group, id)
	if err != nil {
		return nil, err
	}
	n := domain.Notification{
		Title:       "Primary record updated",
		Description: fmt.Sprintf("%s record %s is now the primary match.", rec.Portal, rec.InvoiceNumber),
		Variant:     domain.NotificationSuccess,
	}
	if len(changed) == 0 {
		return &PortalRecordResult{Record: rec, Changed: []domain.PortalRecord{}, Notification: n}, nil
	}
	if err := s.records.SaveAll(ctx, changed); err != nil {
		return nil, fmt.Errorf("saving portal records: %w", err)
	}
	rec.MatchType = domain.MatchPrimary

	s.log.WithFields(logrus.Fields{"record_id": id, "invoice_id": *rec.InvoiceID}).Info("portal record made primary")
	s.effects.activity(ctx, *rec.InvoiceID, domain.ActivityPortal, author,
		fmt.Sprintf("%s record %s set as primary", rec.Portal, rec.ID))
	s.effects.notify(ctx, n)
	return &PortalRecordResult{Record: rec, Changed: changed, Notification: n}, nil
}

// Link attaches a record to an invoice. A record linked elsewhere is unlinked from its old
// invoice in the same write.
func (s *portalRecordService) Link(ctx context.Context, id, invoiceID uuid.UUID, author string) (*PortalRecordResult, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	n := domain.Notification{
		Title:       "Portal record linked",
		Description: fmt.Sprintf("%s record linked to invoice %s.", rec.Portal, inv.Number),
		Variant:     domain.NotificationSuccess,
	}
	if rec.InvoiceID != nil && *rec.InvoiceID == invoiceID {
		return &PortalRecordResult{Record: rec, Changed: []domain.PortalRecord{}, Notification: n}, nil
	}

	var promoted []domain.PortalRecord
	var previous *uuid.UUID
	if rec.InvoiceID != nil {
		previous = rec.InvoiceID
		oldGroup, err := s.records.ListByInvoice(ctx, *rec.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("loading portal record group: %w", err)
		}
		unlinked, err := portal.Unlink(oldGroup, id)
		if err != nil {
			return nil, err
		}
		// The first entry is the record itself; it is relinked below.
		promoted = unlinked[1:]
	}

	group, err := s.records.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("loading portal record group: %w", err)
	}
	linked := portal.Link(group, *rec, inv)
	// The moved record goes first so it leaves its old group before an Alternate there is
	// promoted in its place.
	changed := append([]domain.PortalRecord{linked}, promoted...)
	if err := s.records.SaveAll(ctx, changed); err != nil {
		return nil, fmt.Errorf("saving portal records: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"record_id":  id,
		"invoice_id": invoiceID,
		"match_type": linked.MatchType,
	}).Info("portal record linked")
	s.effects.activity(ctx, invoiceID, domain.ActivityPortal, author,
		fmt.Sprintf("%s record %s linked as %s", rec.Portal, rec.ID, linked.MatchType))
	if previous != nil {
		s.effects.activity(ctx, *previous, domain.ActivityPortal, author,
			fmt.Sprintf("%s record %s moved to invoice %s", rec.Portal, rec.ID, inv.Number))
	}
	s.effects.notify(ctx, n)
	return &PortalRecordResult{Record: &linked, Changed: changed, Notification: n}, nil
}

// Unlink detaches a record from its invoice. When it was the Primary, the most recently
// synced Alternate is promoted.
func (s *portalRecordService) Unlink(ctx context.Context, id uuid.UUID, author string) (*PortalRecordResult, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.InvoiceID == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotLinked, id)
	}
	invoiceID := *rec.InvoiceID
	group, err := s.records.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("loading portal record group: %w", err)
	}

	changed, err := portal.Unlink(group, id)
	if err != nil {
		return nil, err
	}
	if err := s.records.SaveAll(ctx, changed); err != nil {
		return nil, fmt.Errorf("saving portal records: %w", err)
	}

	s.log.WithFields(logrus.Fields{"record_id": id, "invoice_id": invoiceID}).Info("portal record unlinked")
	body := fmt.Sprintf("%s record %s unlinked", rec.Portal, rec.ID)
	if len(changed) > 1 {
		body += fmt.Sprintf("; %s promoted to primary", changed[1].ID)
	}
	s.effects.activity(ctx, invoiceID, domain.ActivityPortal, author, body)
	n := domain.Notification{
		Title:       "Portal record unlinked",
		Description: fmt.Sprintf("%s record %s is now unmatched.", rec.Portal, rec.InvoiceNumber),
		Variant:     domain.NotificationDefault,
	}
	s.effects.notify(ctx, n)
	return &PortalRecordResult{Record: &changed[0], Changed: changed, Notification: n}, nil
}
