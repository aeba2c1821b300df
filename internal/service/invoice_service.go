package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"payops/internal/config"
	"payops/internal/domain"
	"payops/internal/exception"
	"payops/internal/port"
)

// ResolutionView is what the resolution screen of an invoice needs: the routed branch, the
// actions it offers and the duplicate candidates when the duplicate branch applies.
type ResolutionView struct {
	Invoice        *domain.Invoice           `json:"invoice"`
	Branch         exception.Branch          `json:"branch"`
	Actions        []domain.ResolutionAction `json:"actions"`
	OpenExceptions []domain.Exception        `json:"open_exceptions"`
	Duplicates     []domain.Invoice          `json:"duplicates"`
}

// ResolveInput is the DTO for applying a resolution action. Fields carries manually entered
// values for MISSING_INFORMATION exceptions.
type ResolveInput struct {
	InvoiceID    uuid.UUID
	Action       domain.ResolutionAction
	ExceptionIDs []uuid.UUID
	Fields       map[string]string
	Author       string
}

// PDFUploadInput is the DTO for replacing an invoice PDF.
type PDFUploadInput struct {
	InvoiceID    uuid.UUID
	File         io.ReadSeeker
	FileName     string
	Size         int64
	ExceptionIDs []uuid.UUID
	Author       string
}

// ResolveResult is returned after a resolution has been applied.
type ResolveResult struct {
	Invoice      *domain.Invoice     `json:"invoice"`
	Outcome      exception.Outcome   `json:"outcome"`
	Notification domain.Notification `json:"notification"`
}

// InvoiceService defines the invoice exception workflow contract.
type InvoiceService interface {
	List(ctx context.Context, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	GetResolution(ctx context.Context, id uuid.UUID) (*ResolutionView, error)
	Resolve(ctx context.Context, input ResolveInput) (*ResolveResult, error)
	UploadReplacementPDF(ctx context.Context, input PDFUploadInput) (*ResolveResult, error)
}

type invoiceService struct {
	invoices   port.InvoiceRepository
	duplicates port.DuplicateInvoiceFinder
	storage    port.ObjectStorage
	cfg        *config.S3Config
	effects    sideEffects
	log        logrus.FieldLogger
}

// NewInvoiceService creates a new InvoiceService implementation.
func NewInvoiceService(
	invoices port.InvoiceRepository,
	duplicates port.DuplicateInvoiceFinder,
	notes port.NoteRepository,
	storage port.ObjectStorage,
	notifier port.Notifier,
	cfg *config.S3Config,
	log logrus.FieldLogger,
) InvoiceService {
	log = log.WithField("component", "invoiceService")
	return &invoiceService{
		invoices:   invoices,
		duplicates: duplicates,
		storage:    storage,
		cfg:        cfg,
		effects:    sideEffects{notes: notes, notifier: notifier, log: log},
		log:        log,
	}
}

func (s *invoiceService) List(ctx context.Context, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	return s.invoices.List(ctx, filter, offset, limit)
}

func (s *invoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

func (s *invoiceService) GetResolution(ctx context.Context, id uuid.UUID) (*ResolutionView, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	open := inv.OpenExceptions()
	if open == nil {
		open = []domain.Exception{}
	}

	dupes := []domain.Invoice{}
	if hasOpenType(open, domain.ExceptionDuplicateInvoice) {
		found, err := s.duplicates.FindDuplicates(ctx, inv)
		if err != nil {
			return nil, fmt.Errorf("finding duplicates: %w", err)
		}
		dupes = append(dupes, found...)
	}

	branch := exception.Route(inv.Exceptions, dupes)
	return &ResolutionView{
		Invoice:        inv,
		Branch:         branch,
		Actions:        exception.ActionsFor(branch),
		OpenExceptions: open,
		Duplicates:     dupes,
	}, nil
}

func (s *invoiceService) Resolve(ctx context.Context, input ResolveInput) (*ResolveResult, error) {
	if !domain.ValidResolutionActions[input.Action] {
		return nil, domain.ErrInvalidAction
	}
	// A new PDF comes through UploadReplacementPDF.
	if input.Action == domain.ResolutionUploadNewPDF {
		return nil, domain.ErrPDFRequired
	}
	inv, err := s.invoices.GetByID(ctx, input.InvoiceID)
	if err != nil {
		return nil, err
	}

	if len(input.Fields) > 0 {
		if err := fillFields(inv, input.ExceptionIDs, input.Fields); err != nil {
			return nil, err
		}
	}
	return s.apply(ctx, inv, input.ExceptionIDs, input.Action, input.Author)
}

func (s *invoiceService) UploadReplacementPDF(ctx context.Context, input PDFUploadInput) (*ResolveResult, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.FileName), "."))
	if ext != "pdf" {
		return nil, domain.ErrPDFRequired
	}
	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	if input.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	if err := sniff(input.File, domain.AllowedAttachmentTypes["pdf"]); err != nil {
		return nil, domain.ErrPDFRequired
	}

	inv, err := s.invoices.GetByID(ctx, input.InvoiceID)
	if err != nil {
		return nil, err
	}
	if len(inv.OpenExceptions()) == 0 {
		return nil, domain.ErrNoOpenExceptions
	}
	if err := exception.CheckTargets(inv, input.ExceptionIDs); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("invoices/%s/pdf/%s.pdf", inv.ID, uuid.New())
	s.log.WithFields(logrus.Fields{"invoice_id": inv.ID, "size": input.Size}).Info("uploading replacement PDF")
	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		Body:        input.File,
		ContentType: domain.AllowedAttachmentTypes["pdf"],
		Size:        input.Size,
	})
	if err != nil {
		s.log.WithError(err).WithField("invoice_id", inv.ID).Error("replacement PDF upload failed")
		s.effects.notify(ctx, domain.Notification{
			Title:       "Upload failed",
			Description: fmt.Sprintf("The new PDF for invoice %s could not be stored.", inv.Number),
			Variant:     domain.NotificationDestructive,
		})
		return nil, domain.ErrUploadFailed
	}
	previous := inv.PDFKey
	inv.PDFKey = key

	result, err := s.apply(ctx, inv, input.ExceptionIDs, domain.ResolutionUploadNewPDF, input.Author)
	if err != nil {
		inv.PDFKey = previous
		if delErr := s.storage.Delete(ctx, s.cfg.Bucket, key); delErr != nil {
			s.log.WithError(delErr).WithField("key", key).Warn("failed to clean up orphaned PDF")
		}
		return nil, err
	}
	return result, nil
}

func (s *invoiceService) apply(ctx context.Context, inv *domain.Invoice, ids []uuid.UUID, action domain.ResolutionAction, author string) (*ResolveResult, error) {
	outcome, err := exception.ApplyResolution(inv, ids, action, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("saving invoice: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"invoice_id": inv.ID,
		"action":     action,
		"resolved":   len(outcome.Resolved),
	}).Info("resolution applied")

	s.effects.activity(ctx, inv.ID, domain.ActivityResolution, author,
		fmt.Sprintf("%s applied to %d exception(s)", action, len(outcome.Resolved)))

	n := resolutionNotification(inv, action, &outcome)
	s.effects.notify(ctx, n)
	return &ResolveResult{Invoice: inv, Outcome: outcome, Notification: n}, nil
}

// fillFields records manual values on the targeted MISSING_INFORMATION exceptions, or on
// every open one when no exception is targeted.
func fillFields(inv *domain.Invoice, ids []uuid.UUID, values map[string]string) error {
	targets := ids
	if len(targets) == 0 {
		for _, ex := range inv.OpenExceptions() {
			if ex.Type == domain.ExceptionMissingInformation {
				targets = append(targets, ex.ID)
			}
		}
	}
	for _, id := range targets {
		if !isMissingInformation(inv, id) {
			continue
		}
		if err := exception.FillMissingFields(inv, id, values); err != nil {
			return err
		}
	}
	return nil
}

func isMissingInformation(inv *domain.Invoice, id uuid.UUID) bool {
	for i := range inv.Exceptions {
		if inv.Exceptions[i].ID == id {
			return inv.Exceptions[i].Type == domain.ExceptionMissingInformation
		}
	}
	return false
}

func hasOpenType(open []domain.Exception, t domain.ExceptionType) bool {
	for i := range open {
		if open[i].Type == t {
			return true
		}
	}
	return false
}

func resolutionNotification(inv *domain.Invoice, action domain.ResolutionAction, out *exception.Outcome) domain.Notification {
	n := domain.Notification{Variant: domain.NotificationSuccess}
	switch action {
	case domain.ResolutionExcluded:
		n.Title = "Invoice excluded"
		n.Description = fmt.Sprintf("Invoice %s was excluded from submission.", inv.Number)
	case domain.ResolutionForceSubmit:
		n.Title = "Invoice force submitted"
		n.Description = fmt.Sprintf("Invoice %s was queued for submission.", inv.Number)
	case domain.ResolutionUploadNewPDF:
		n.Title = "New PDF uploaded"
		n.Description = fmt.Sprintf("The PDF of invoice %s was replaced.", inv.Number)
	default:
		n.Title = "Exceptions resolved"
		n.Description = fmt.Sprintf("%d exception(s) on invoice %s marked as resolved.", len(out.Resolved), inv.Number)
	}
	if !out.AllResolved {
		n.Variant = domain.NotificationDefault
		n.Description += " Some exceptions are still open."
	}
	return n
}

// sniff checks the leading bytes of f against want and rewinds it.
func sniff(f io.ReadSeeker, want string) error {
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return fmt.Errorf("reading file header: %w", err)
	}
	if http.DetectContentType(buf[:n]) != want {
		return domain.ErrUnsupportedFileType
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seeking file: %w", err)
	}
	return nil
}
