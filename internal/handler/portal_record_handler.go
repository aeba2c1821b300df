package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"payops/internal/domain"
	"payops/internal/port"
	"payops/internal/service"
)

// PortalRecordHandler handles portal record endpoints.
type PortalRecordHandler struct {
	recordService service.PortalRecordService
}

// NewPortalRecordHandler creates a new PortalRecordHandler.
func NewPortalRecordHandler(recordService service.PortalRecordService) *PortalRecordHandler {
	return &PortalRecordHandler{recordService: recordService}
}

// List handles GET /api/v1/portal-records
// @Summary List portal records
// @Tags portal-records
// @Produce json
// @Param match_type query string false "Match type" Enums(Primary, Alternate, Unmatched, Conflict)
// @Param invoice_id query string false "Linked invoice ID"
// @Param portal query string false "Portal name"
// @Param offset query int false "Pagination offset" default(0)
// @Param limit query int false "Pagination limit" default(20)
// @Success 200 {object} Response{data=[]domain.PortalRecord,meta=PagMeta}
// @Failure 400 {object} ErrorResponseBody "Invalid filter"
// @Router /portal-records [get]
func (h *PortalRecordHandler) List(c *gin.Context) {
	filter := port.PortalRecordFilter{
		MatchType: domain.MatchType(c.Query("match_type")),
		Portal:    c.Query("portal"),
	}
	switch filter.MatchType {
	case "", domain.MatchPrimary, domain.MatchAlternate, domain.MatchUnmatched, domain.MatchConflict:
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FILTER", "match_type must be Primary, Alternate, Unmatched or Conflict")
		return
	}
	if s := c.Query("invoice_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
			return
		}
		filter.InvoiceID = &id
	}
	offset, limit := parsePagination(c)

	records, total, err := h.recordService.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, records, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/portal-records/:id
// @Summary Get a portal record
// @Tags portal-records
// @Produce json
// @Param id path string true "Portal record ID"
// @Success 200 {object} Response{data=domain.PortalRecord}
// @Failure 404 {object} ErrorResponseBody "Portal record not found"
// @Router /portal-records/{id} [get]
func (h *PortalRecordHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "portal record")
	if !ok {
		return
	}

	rec, err := h.recordService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, rec)
}

// MakePrimary handles POST /api/v1/portal-records/:id/make-primary
// @Summary Make a record the primary match of its invoice
// @Description The previous primary of the group becomes an alternate
// @Tags portal-records
// @Produce json
// @Param id path string true "Portal record ID"
// @Param X-Author header string false "Operator name recorded on the activity thread"
// @Success 200 {object} Response{data=service.PortalRecordResult}
// @Failure 404 {object} ErrorResponseBody "Portal record not found"
// @Failure 409 {object} ErrorResponseBody "Record is not linked to an invoice"
// @Router /portal-records/{id}/make-primary [post]
func (h *PortalRecordHandler) MakePrimary(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "portal record")
	if !ok {
		return
	}

	result, err := h.recordService.MakePrimary(c.Request.Context(), id, author(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// Link handles POST /api/v1/portal-records/:id/link
// @Summary Link a record to an invoice
// @Description The record becomes primary when the invoice has none, otherwise alternate
// @Tags portal-records
// @Accept json
// @Produce json
// @Param id path string true "Portal record ID"
// @Param X-Author header string false "Operator name recorded on the activity thread"
// @Param body body InvoiceRefRequest true "Target invoice"
// @Success 200 {object} Response{data=service.PortalRecordResult}
// @Failure 404 {object} ErrorResponseBody "Portal record or invoice not found"
// @Router /portal-records/{id}/link [post]
func (h *PortalRecordHandler) Link(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "portal record")
	if !ok {
		return
	}

	var req InvoiceRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.recordService.Link(c.Request.Context(), id, req.InvoiceID, author(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// Unlink handles POST /api/v1/portal-records/:id/unlink
// @Summary Unlink a record from its invoice
// @Description The record becomes unmatched; unlinking a primary promotes the newest alternate
// @Tags portal-records
// @Produce json
// @Param id path string true "Portal record ID"
// @Param X-Author header string false "Operator name recorded on the activity thread"
// @Success 200 {object} Response{data=service.PortalRecordResult}
// @Failure 404 {object} ErrorResponseBody "Portal record not found"
// @Failure 409 {object} ErrorResponseBody "Record is not linked to an invoice"
// @Router /portal-records/{id}/unlink [post]
func (h *PortalRecordHandler) Unlink(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "portal record")
	if !ok {
		return
	}

	result, err := h.recordService.Unlink(c.Request.Context(), id, author(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// SmartConnections handles GET /api/v1/smart-connections
// @Summary List smart connections
// @Tags portal-records
// @Produce json
// @Success 200 {object} Response{data=[]domain.SmartConnection}
// @Router /smart-connections [get]
func (h *PortalRecordHandler) SmartConnections(c *gin.Context) {
	conns, err := h.recordService.ListSmartConnections(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, conns)
}
