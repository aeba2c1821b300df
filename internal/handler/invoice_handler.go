package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"payops/internal/domain"
	"payops/internal/port"
	"payops/internal/service"
)

// InvoiceHandler handles invoice listing and exception resolution endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// List handles GET /api/v1/invoices
// @Summary List invoices
// @Description List invoices newest first, optionally filtered by status and open exceptions
// @Tags invoices
// @Produce json
// @Param status query string false "Invoice status" Enums(pending, exception, submitted, paid, excluded)
// @Param has_exceptions query bool false "Only invoices with (true) or without (false) open exceptions"
// @Param offset query int false "Pagination offset" default(0)
// @Param limit query int false "Pagination limit" default(20)
// @Success 200 {object} Response{data=[]domain.Invoice,meta=PagMeta}
// @Failure 400 {object} ErrorResponseBody "Invalid filter"
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter port.InvoiceFilter
	if s := c.Query("status"); s != "" {
		status := domain.InvoiceStatus(strings.ToLower(s))
		filter.Status = &status
	}
	if s := c.Query("has_exceptions"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_FILTER", "has_exceptions must be true or false")
			return
		}
		filter.HasExceptions = &b
	}
	offset, limit := parsePagination(c)

	invoices, total, err := h.invoiceService.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/invoices/:id
// @Summary Get an invoice
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} Response{data=domain.Invoice}
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 404 {object} ErrorResponseBody "Invoice not found"
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	inv, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

// GetResolution handles GET /api/v1/invoices/:id/resolution
// @Summary Get the resolution screen of an invoice
// @Description Returns the routed resolution branch, its actions, open exceptions and duplicate candidates
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} Response{data=service.ResolutionView}
// @Failure 404 {object} ErrorResponseBody "Invoice not found"
// @Router /invoices/{id}/resolution [get]
func (h *InvoiceHandler) GetResolution(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	view, err := h.invoiceService.GetResolution(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, view)
}

// Resolve handles POST /api/v1/invoices/:id/resolve
// @Summary Apply a resolution action
// @Description Resolves the given exceptions (all open ones when exception_ids is empty)
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param X-Author header string false "Operator name recorded on the activity thread"
// @Param body body ResolveRequest true "Resolution"
// @Success 200 {object} Response{data=service.ResolveResult}
// @Failure 400 {object} ErrorResponseBody "Invalid action"
// @Failure 404 {object} ErrorResponseBody "Invoice or exception not found"
// @Failure 409 {object} ErrorResponseBody "No open exceptions"
// @Failure 422 {object} ErrorResponseBody "Missing fields not provided"
// @Router /invoices/{id}/resolve [post]
func (h *InvoiceHandler) Resolve(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.invoiceService.Resolve(c.Request.Context(), service.ResolveInput{
		InvoiceID:    id,
		Action:       domain.ResolutionAction(strings.ToUpper(req.Action)),
		ExceptionIDs: req.ExceptionIDs,
		Fields:       req.Fields,
		Author:       author(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// UploadPDF handles POST /api/v1/invoices/:id/resolve/pdf
// @Summary Replace the invoice PDF
// @Description Uploads a corrected PDF and resolves the targeted exceptions with UPLOAD_NEW_PDF
// @Tags invoices
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Invoice ID"
// @Param X-Author header string false "Operator name recorded on the activity thread"
// @Param file formData file true "Replacement PDF"
// @Param exception_ids formData string false "Comma-separated exception IDs; empty resolves all open exceptions"
// @Success 200 {object} Response{data=service.ResolveResult}
// @Failure 400 {object} ErrorResponseBody "Missing file or unsupported type"
// @Failure 404 {object} ErrorResponseBody "Invoice not found"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 500 {object} ErrorResponseBody "Upload failed"
// @Router /invoices/{id}/resolve/pdf [post]
func (h *InvoiceHandler) UploadPDF(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	exceptionIDs, err := parseUUIDList(c.PostForm("exception_ids"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid exception ID")
		return
	}

	result, err := h.invoiceService.UploadReplacementPDF(c.Request.Context(), service.PDFUploadInput{
		InvoiceID:    id,
		File:         file,
		FileName:     header.Filename,
		Size:         header.Size,
		ExceptionIDs: exceptionIDs,
		Author:       author(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

func parseUUIDList(s string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
