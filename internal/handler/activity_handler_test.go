package handler_test

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"payops/internal/domain"
	"payops/internal/handler"
	"payops/internal/service"
	"payops/mocks"
)

func setupActivityRouter() (*gin.Engine, *mocks.MockActivityService) {
	svc := new(mocks.MockActivityService)
	h := handler.NewActivityHandler(svc)
	r := gin.New()
	r.GET("/invoices/:id/notes", h.ListNotes)
	r.POST("/invoices/:id/notes", h.AddNote)
	r.POST("/invoices/:id/notes/:noteId/attachments", h.AddAttachment)
	r.GET("/invoices/:id/activity", h.ListActivity)
	r.GET("/attachments/:attachmentId/preview", h.PreviewAttachment)
	return r, svc
}

func TestActivityHandler_ListNotesAndActivity(t *testing.T) {
	r, svc := setupActivityRouter()
	id := uuid.New()
	svc.On("ListNotes", mock.Anything, id).Return([]domain.Note{{Kind: domain.ActivityNote}}, nil)
	svc.On("ListActivity", mock.Anything, id).Return([]domain.Note{{Kind: domain.ActivityNote}, {Kind: domain.ActivityResolution}}, nil)

	w := doJSON(r, http.MethodGet, "/invoices/"+id.String()+"/notes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w).Data, 1)

	w = doJSON(r, http.MethodGet, "/invoices/"+id.String()+"/activity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w).Data, 2)
}

func TestActivityHandler_AddNote_AuthorHeaderWins(t *testing.T) {
	r, svc := setupActivityRouter()
	id := uuid.New()
	svc.On("AddNote", mock.Anything, service.AddNoteInput{InvoiceID: id, Author: "dana", Body: "called buyer"}).
		Return(&domain.Note{ID: uuid.New(), Author: "dana", Body: "called buyer"}, nil)
	svc.On("AddNote", mock.Anything, service.AddNoteInput{InvoiceID: id, Author: "lee", Body: "follow up"}).
		Return(&domain.Note{ID: uuid.New(), Author: "lee", Body: "follow up"}, nil)

	w := doJSON(r, http.MethodPost, "/invoices/"+id.String()+"/notes",
		map[string]string{"body": "called buyer", "author": "lee"}, "X-Author", "dana")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/invoices/"+id.String()+"/notes",
		map[string]string{"body": "follow up", "author": "lee"})
	assert.Equal(t, http.StatusCreated, w.Code)

	svc.AssertExpectations(t)
}

func TestActivityHandler_AddNote_Empty(t *testing.T) {
	r, svc := setupActivityRouter()
	svc.On("AddNote", mock.Anything, mock.Anything).Return(nil, domain.ErrEmptyNote)

	w := doJSON(r, http.MethodPost, "/invoices/"+uuid.NewString()+"/notes", map[string]string{"body": "   "})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_NOTE", errorCode(t, w))
}

func TestActivityHandler_AddAttachment(t *testing.T) {
	r, svc := setupActivityRouter()
	id, noteID := uuid.New(), uuid.New()
	svc.On("AddAttachment", mock.Anything, mock.MatchedBy(func(in service.AttachmentUploadInput) bool {
		data, _ := io.ReadAll(in.File)
		return in.InvoiceID == id && in.NoteID == noteID && in.FileName == "po.pdf" && string(data) == "%PDF-1.7"
	})).Return(&domain.Attachment{ID: uuid.New(), NoteID: noteID, FileName: "po.pdf"}, nil)

	w := doMultipart(r, "/invoices/"+id.String()+"/notes/"+noteID.String()+"/attachments", "po.pdf", []byte("%PDF-1.7"), nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestActivityHandler_AddAttachment_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"wrong invoice", domain.ErrNotFound, http.StatusNotFound},
		{"unsupported", domain.ErrUnsupportedFileType, http.StatusBadRequest},
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"storage down", domain.ErrUploadFailed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, svc := setupActivityRouter()
			svc.On("AddAttachment", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := doMultipart(r, "/invoices/"+uuid.NewString()+"/notes/"+uuid.NewString()+"/attachments", "x.exe", []byte("MZ"), nil)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestActivityHandler_PreviewAttachment(t *testing.T) {
	r, svc := setupActivityRouter()
	id := uuid.New()
	svc.On("PreviewAttachment", mock.Anything, id).Return(&service.AttachmentPreview{
		Attachment: &domain.Attachment{ID: id},
		URL:        "https://bucket.example/notes/x.pdf?sig=1",
		ExpiresAt:  time.Now().Add(10 * time.Minute),
	}, nil)

	w := doJSON(r, http.MethodGet, "/attachments/"+id.String()+"/preview", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://bucket.example/notes/x.pdf?sig=1", decode(t, w).Data.(map[string]any)["url"])
}
