package service_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payops/internal/domain"
	"payops/internal/service"
)

func newActivityService(f *fixture) service.ActivityService {
	return service.NewActivityService(f.notes, f.invoices, f.storage, &f.s3, testLog)
}

func TestActivityService_NotesAndActivity(t *testing.T) {
	f := newFixture(t)
	svc := newActivityService(f)
	ctx := context.Background()
	inv := f.ds.Invoices[2]

	_, err := svc.AddNote(ctx, service.AddNoteInput{InvoiceID: inv.ID, Body: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyNote)

	_, err = svc.AddNote(ctx, service.AddNoteInput{InvoiceID: uuid.New(), Body: "hello"})
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)

	note, err := svc.AddNote(ctx, service.AddNoteInput{InvoiceID: inv.ID, Author: "jane", Body: " Called the buyer "})
	require.NoError(t, err)
	assert.Equal(t, "Called the buyer", note.Body)
	assert.Equal(t, domain.ActivityNote, note.Kind)

	_, err = newInvoiceService(f).Resolve(ctx, service.ResolveInput{InvoiceID: inv.ID, Action: domain.ResolutionMarkResolved})
	require.NoError(t, err)

	notes, err := svc.ListNotes(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	all, err := svc.ListActivity(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestActivityService_Attachments(t *testing.T) {
	f := newFixture(t)
	svc := newActivityService(f)
	ctx := context.Background()
	inv := f.ds.Invoices[2]

	note, err := svc.AddNote(ctx, service.AddNoteInput{InvoiceID: inv.ID, Body: "remittance attached"})
	require.NoError(t, err)

	content := pdfContent()
	att, err := svc.AddAttachment(ctx, service.AttachmentUploadInput{
		InvoiceID: inv.ID,
		NoteID:    note.ID,
		File:      bytes.NewReader(content),
		FileName:  "remittance.pdf",
		Size:      int64(len(content)),
	})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.True(t, strings.HasPrefix(att.StorageKey, "notes/"+note.ID.String()+"/"))

	preview, err := svc.PreviewAttachment(ctx, att.ID)
	require.NoError(t, err)
	assert.Contains(t, preview.URL, att.StorageKey)
	assert.False(t, preview.ExpiresAt.IsZero())

	notes, err := svc.ListNotes(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Len(t, notes[0].Attachments, 1)
}

func TestActivityService_AttachmentRejects(t *testing.T) {
	f := newFixture(t)
	svc := newActivityService(f)
	ctx := context.Background()
	inv := f.ds.Invoices[2]
	note, err := svc.AddNote(ctx, service.AddNoteInput{InvoiceID: inv.ID, Body: "x"})
	require.NoError(t, err)

	_, err = svc.AddAttachment(ctx, service.AttachmentUploadInput{
		InvoiceID: inv.ID, NoteID: note.ID, File: bytes.NewReader([]byte("MZ")), FileName: "tool.exe", Size: 2,
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	_, err = svc.AddAttachment(ctx, service.AttachmentUploadInput{
		InvoiceID: inv.ID, NoteID: note.ID, File: bytes.NewReader(pdfContent()), FileName: "photo.png", Size: 80,
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	_, err = svc.AddAttachment(ctx, service.AttachmentUploadInput{
		InvoiceID: inv.ID, NoteID: note.ID, File: bytes.NewReader(pdfContent()), FileName: "a.pdf", Size: 2 * 1024 * 1024,
	})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	_, err = svc.AddAttachment(ctx, service.AttachmentUploadInput{
		InvoiceID: f.ds.Invoices[3].ID, NoteID: note.ID, File: bytes.NewReader(pdfContent()), FileName: "a.pdf", Size: 80,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.PreviewAttachment(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
