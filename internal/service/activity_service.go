package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"payops/internal/config"
	"payops/internal/domain"
	"payops/internal/port"
)

// AddNoteInput is the DTO for posting a note on an invoice.
type AddNoteInput struct {
	InvoiceID uuid.UUID
	Author    string
	Body      string
}

// AttachmentUploadInput is the DTO for attaching a file to a note.
type AttachmentUploadInput struct {
	InvoiceID uuid.UUID
	NoteID    uuid.UUID
	File      io.ReadSeeker
	FileName  string
	Size      int64
}

// AttachmentPreview is a short-lived link to an attachment.
type AttachmentPreview struct {
	Attachment *domain.Attachment `json:"attachment"`
	URL        string             `json:"url"`
	ExpiresAt  time.Time          `json:"expires_at"`
}

// ActivityService defines the contract for the notes and activity thread of an invoice.
type ActivityService interface {
	ListNotes(ctx context.Context, invoiceID uuid.UUID) ([]domain.Note, error)
	ListActivity(ctx context.Context, invoiceID uuid.UUID) ([]domain.Note, error)
	AddNote(ctx context.Context, input AddNoteInput) (*domain.Note, error)
	AddAttachment(ctx context.Context, input AttachmentUploadInput) (*domain.Attachment, error)
	PreviewAttachment(ctx context.Context, attachmentID uuid.UUID) (*AttachmentPreview, error)
}

type activityService struct {
	notes    port.NoteRepository
	invoices port.InvoiceRepository
	storage  port.ObjectStorage
	cfg      *config.S3Config
	log      logrus.FieldLogger
}

// NewActivityService creates a new ActivityService implementation.
func NewActivityService(
	notes port.NoteRepository,
	invoices port.InvoiceRepository,
	storage port.ObjectStorage,
	cfg *config.S3Config,
	log logrus.FieldLogger,
) ActivityService {
	return &activityService{
		notes:    notes,
		invoices: invoices,
		storage:  storage,
		cfg:      cfg,
		log:      log.WithField("component", "activityService"),
	}
}

// ListNotes returns the user notes of an invoice, oldest first.
func (s *activityService) ListNotes(ctx context.Context, invoiceID uuid.UUID) ([]domain.Note, error) {
	if _, err := s.invoices.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.notes.ListByInvoice(ctx, invoiceID, []domain.ActivityKind{domain.ActivityNote})
}

// ListActivity returns the whole thread, notes and system entries together.
func (s *activityService) ListActivity(ctx context.Context, invoiceID uuid.UUID) ([]domain.Note, error) {
	if _, err := s.invoices.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.notes.ListByInvoice(ctx, invoiceID, nil)
}

func (s *activityService) AddNote(ctx context.Context, input AddNoteInput) (*domain.Note, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, domain.ErrEmptyNote
	}
	if _, err := s.invoices.GetByID(ctx, input.InvoiceID); err != nil {
		return nil, err
	}
	author := strings.TrimSpace(input.Author)
	if author == "" {
		author = "anonymous"
	}

	note := &domain.Note{
		ID:          uuid.New(),
		InvoiceID:   input.InvoiceID,
		Kind:        domain.ActivityNote,
		Author:      author,
		Body:        body,
		Attachments: []domain.Attachment{},
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"note_id": note.ID, "invoice_id": note.InvoiceID}).Debug("note added")
	return note, nil
}

func (s *activityService) AddAttachment(ctx context.Context, input AttachmentUploadInput) (*domain.Attachment, error) {
	note, err := s.notes.GetByID(ctx, input.NoteID)
	if err != nil {
		return nil, err
	}
	if note.InvoiceID != input.InvoiceID {
		return nil, fmt.Errorf("%w: note %s is not on invoice %s", domain.ErrNotFound, input.NoteID, input.InvoiceID)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(input.FileName)), ".")
	contentType, ok := domain.AllowedAttachmentTypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: .%s", domain.ErrUnsupportedFileType, ext)
	}
	if s.cfg.MaxFileSizeMB > 0 && input.Size > s.cfg.MaxFileSizeMB*1024*1024 {
		return nil, domain.ErrFileTooLarge
	}
	if err := sniff(input.File, contentType); err != nil {
		return nil, err
	}

	att := &domain.Attachment{
		ID:          uuid.New(),
		NoteID:      note.ID,
		FileName:    input.FileName,
		ContentType: contentType,
		Size:        input.Size,
		CreatedAt:   time.Now().UTC(),
	}
	att.StorageKey = fmt.Sprintf("notes/%s/%s.%s", note.ID, att.ID, ext)

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         att.StorageKey,
		Body:        input.File,
		ContentType: contentType,
		Size:        input.Size,
	}); err != nil {
		s.log.WithError(err).WithField("key", att.StorageKey).Error("attachment upload failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	if err := s.notes.AddAttachment(ctx, att); err != nil {
		if delErr := s.storage.Delete(ctx, s.cfg.Bucket, att.StorageKey); delErr != nil {
			s.log.WithError(delErr).WithField("key", att.StorageKey).Warn("failed to clean up orphaned attachment")
		}
		return nil, err
	}
	return att, nil
}

func (s *activityService) PreviewAttachment(ctx context.Context, attachmentID uuid.UUID) (*AttachmentPreview, error) {
	att, err := s.notes.GetAttachment(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	expiry := s.cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 3600
	}
	url, err := s.storage.GetPresignedURL(ctx, s.cfg.Bucket, att.StorageKey, expiry)
	if err != nil {
		return nil, fmt.Errorf("presigning attachment: %w", err)
	}
	return &AttachmentPreview{
		Attachment: att,
		URL:        url,
		ExpiresAt:  time.Now().UTC().Add(time.Duration(expiry) * time.Second),
	}, nil
}
