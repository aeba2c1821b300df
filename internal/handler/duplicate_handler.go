package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"payops/internal/service"
)

// DuplicateHandler drives the duplicate-invoice wizard.
type DuplicateHandler struct {
	duplicateService service.DuplicateService
}

// NewDuplicateHandler creates a new DuplicateHandler.
func NewDuplicateHandler(duplicateService service.DuplicateService) *DuplicateHandler {
	return &DuplicateHandler{duplicateService: duplicateService}
}

// Start handles POST /api/v1/invoices/:id/duplicates/session
// @Summary Start the duplicate wizard
// @Description Opens a wizard session over the invoice and its duplicate candidates
// @Tags duplicates
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 201 {object} Response{data=service.DuplicateView}
// @Failure 404 {object} ErrorResponseBody "Invoice, open duplicate exception or candidates not found"
// @Router /invoices/{id}/duplicates/session [post]
func (h *DuplicateHandler) Start(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	view, err := h.duplicateService.Start(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, view)
}

// Get handles GET /api/v1/duplicate-sessions/:sid
// @Summary Get a duplicate wizard session
// @Tags duplicates
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} Response{data=service.DuplicateView}
// @Failure 404 {object} ErrorResponseBody "Session not found or expired"
// @Router /duplicate-sessions/{sid} [get]
func (h *DuplicateHandler) Get(c *gin.Context) {
	h.step(c, h.duplicateService.Get)
}

// Toggle handles POST /api/v1/duplicate-sessions/:sid/toggle
// @Summary Select or deselect a candidate
// @Description At most two invoices can be selected at a time
// @Tags duplicates
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param body body InvoiceRefRequest true "Candidate"
// @Success 200 {object} Response{data=service.DuplicateView}
// @Failure 404 {object} ErrorResponseBody "Session or candidate not found"
// @Failure 409 {object} ErrorResponseBody "Selection limit reached or wrong step"
// @Router /duplicate-sessions/{sid}/toggle [post]
func (h *DuplicateHandler) Toggle(c *gin.Context) {
	h.withInvoice(c, h.duplicateService.Toggle)
}

// Choose handles POST /api/v1/duplicate-sessions/:sid/choose
// @Summary Continue with a single selected invoice
// @Tags duplicates
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} Response{data=service.DuplicateView}
// @Failure 409 {object} ErrorResponseBody "Action not allowed in current step"
// @Router /duplicate-sessions/{sid}/choose [post]
func (h *DuplicateHandler) Choose(c *gin.Context) {
	h.step(c, h.duplicateService.ChooseSingle)
}

// Compare handles POST /api/v1/duplicate-sessions/:sid/compare
// @Summary Compare the two selected invoices side by side
// @Tags duplicates
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} Response{data=service.DuplicateView}
// @Failure 409 {object} ErrorResponseBody "Action not allowed in current step"
// @Router /duplicate-sessions/{sid}/compare [post]
func (h *DuplicateHandler) Compare(c *gin.Context) {
	h.step(c, h.duplicateService.Compare)
}

// Keep handles POST /api/v1/duplicate-sessions/:sid/keep
// @Summary Pick the invoice to keep from the comparison
// @Tags duplicates
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param body body InvoiceRefRequest true "Invoice to keep"
// @Success 200 {object} Response{data=service.DuplicateView}
// @Failure 409 {object} ErrorResponseBody "Action not allowed in current step"
// @Router /duplicate-sessions/{sid}/keep [post]
func (h *DuplicateHandler) Keep(c *gin.Context) {
	h.withInvoice(c, h.duplicateService.Keep)
}

// Back handles POST /api/v1/duplicate-sessions/:sid/back
// @Summary Return to the previous wizard step
// @Tags duplicates
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} Response{data=service.DuplicateView}
// @Failure 409 {object} ErrorResponseBody "Already at the first step"
// @Router /duplicate-sessions/{sid}/back [post]
func (h *DuplicateHandler) Back(c *gin.Context) {
	h.step(c, h.duplicateService.Back)
}

// Confirm handles POST /api/v1/duplicate-sessions/:sid/confirm
// @Summary Confirm the keep/discard decision
// @Description Resolves the duplicate exception and marks every discarded invoice as a duplicate
// @Tags duplicates
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param X-Author header string false "Operator name recorded on the activity thread"
// @Param body body ConfirmRequest true "Explicit confirmation"
// @Success 200 {object} Response{data=service.DuplicateConfirmResult}
// @Failure 400 {object} ErrorResponseBody "Confirmation missing"
// @Failure 409 {object} ErrorResponseBody "Action not allowed in current step"
// @Router /duplicate-sessions/{sid}/confirm [post]
func (h *DuplicateHandler) Confirm(c *gin.Context) {
	sid, ok := parseUUIDParam(c, "sid", "session")
	if !ok {
		return
	}

	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.duplicateService.Confirm(c.Request.Context(), sid, req.Confirmed, author(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// Cancel handles DELETE /api/v1/duplicate-sessions/:sid
// @Summary Abandon a duplicate wizard session
// @Tags duplicates
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} Response{data=MessageResponse}
// @Router /duplicate-sessions/{sid} [delete]
func (h *DuplicateHandler) Cancel(c *gin.Context) {
	sid, ok := parseUUIDParam(c, "sid", "session")
	if !ok {
		return
	}

	if err := h.duplicateService.Cancel(c.Request.Context(), sid); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, MessageResponse{Message: "session cancelled"})
}

func (h *DuplicateHandler) step(c *gin.Context, fn func(context.Context, uuid.UUID) (*service.DuplicateView, error)) {
	sid, ok := parseUUIDParam(c, "sid", "session")
	if !ok {
		return
	}

	view, err := fn(c.Request.Context(), sid)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, view)
}

func (h *DuplicateHandler) withInvoice(c *gin.Context, fn func(context.Context, uuid.UUID, uuid.UUID) (*service.DuplicateView, error)) {
	sid, ok := parseUUIDParam(c, "sid", "session")
	if !ok {
		return
	}

	var req InvoiceRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	view, err := fn(c.Request.Context(), sid, req.InvoiceID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, view)
}
