package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"payops/internal/service"
)

// ActivityHandler handles the notes and activity thread of an invoice.
type ActivityHandler struct {
	activityService service.ActivityService
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activityService service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// ListNotes handles GET /api/v1/invoices/:id/notes
// @Summary List user notes of an invoice
// @Tags notes
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} Response{data=[]domain.Note}
// @Failure 404 {object} ErrorResponseBody "Invoice not found"
// @Router /invoices/{id}/notes [get]
func (h *ActivityHandler) ListNotes(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	notes, err := h.activityService.ListNotes(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, notes)
}

// ListActivity handles GET /api/v1/invoices/:id/activity
// @Summary List the full activity thread of an invoice
// @Description User notes interleaved with system entries such as resolutions and portal changes
// @Tags notes
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} Response{data=[]domain.Note}
// @Failure 404 {object} ErrorResponseBody "Invoice not found"
// @Router /invoices/{id}/activity [get]
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	entries, err := h.activityService.ListActivity(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, entries)
}

// AddNote handles POST /api/v1/invoices/:id/notes
// @Summary Add a note to an invoice
// @Tags notes
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param X-Author header string false "Operator name; overrides the author field"
// @Param body body AddNoteRequest true "Note"
// @Success 201 {object} Response{data=domain.Note}
// @Failure 400 {object} ErrorResponseBody "Empty note"
// @Failure 404 {object} ErrorResponseBody "Invoice not found"
// @Router /invoices/{id}/notes [post]
func (h *ActivityHandler) AddNote(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	var req AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	name := author(c)
	if name == "" {
		name = req.Author
	}

	note, err := h.activityService.AddNote(c.Request.Context(), service.AddNoteInput{
		InvoiceID: id,
		Author:    name,
		Body:      req.Body,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, note)
}

// AddAttachment handles POST /api/v1/invoices/:id/notes/:noteId/attachments
// @Summary Attach a file to a note
// @Tags notes
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Invoice ID"
// @Param noteId path string true "Note ID"
// @Param file formData file true "Attachment (pdf, png, jpg)"
// @Success 201 {object} Response{data=domain.Attachment}
// @Failure 400 {object} ErrorResponseBody "Missing file or unsupported type"
// @Failure 404 {object} ErrorResponseBody "Note not found on this invoice"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 500 {object} ErrorResponseBody "Upload failed"
// @Router /invoices/{id}/notes/{noteId}/attachments [post]
func (h *ActivityHandler) AddAttachment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "invoice")
	if !ok {
		return
	}
	noteID, ok := parseUUIDParam(c, "noteId", "note")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	att, err := h.activityService.AddAttachment(c.Request.Context(), service.AttachmentUploadInput{
		InvoiceID: id,
		NoteID:    noteID,
		File:      file,
		FileName:  header.Filename,
		Size:      header.Size,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, att)
}

// PreviewAttachment handles GET /api/v1/attachments/:attachmentId/preview
// @Summary Get a short-lived preview URL for an attachment
// @Tags notes
// @Produce json
// @Param attachmentId path string true "Attachment ID"
// @Success 200 {object} Response{data=service.AttachmentPreview}
// @Failure 404 {object} ErrorResponseBody "Attachment not found"
// @Router /attachments/{attachmentId}/preview [get]
func (h *ActivityHandler) PreviewAttachment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "attachmentId", "attachment")
	if !ok {
		return
	}

	preview, err := h.activityService.PreviewAttachment(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, preview)
}
