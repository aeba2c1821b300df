package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"payops/internal/domain"
	"payops/internal/port"
)

// Session kinds in the session store.
const (
	sessionDuplicate = "duplicate"
	sessionImport    = "import"
)

// sideEffects bundles the best-effort writes that follow a state change: activity entries
// on the invoice thread and operator notifications. Failures are logged, never returned.
type sideEffects struct {
	notes    port.NoteRepository
	notifier port.Notifier
	log      logrus.FieldLogger
}

func (s *sideEffects) activity(ctx context.Context, invoiceID uuid.UUID, kind domain.ActivityKind, author, body string) {
	if s.notes == nil {
		return
	}
	if author == "" {
		author = "system"
	}
	note := &domain.Note{
		InvoiceID: invoiceID,
		Kind:      kind,
		Author:    author,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notes.Create(ctx, note); err != nil {
		s.log.WithError(err).WithField("invoice_id", invoiceID).Warn("failed to record activity")
	}
}

func (s *sideEffects) notify(ctx context.Context, n domain.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.WithError(err).WithField("title", n.Title).Warn("failed to deliver notification")
	}
}

// paginate clamps offset/limit the way the handlers pass them through.
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
