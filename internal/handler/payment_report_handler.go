package handler

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"payops/internal/csvexport"
	"payops/internal/domain"
	"payops/internal/paymentreport"
	"payops/internal/service"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// PaymentReportHandler handles the payment report import wizard.
type PaymentReportHandler struct {
	reportService service.PaymentReportService
}

// NewPaymentReportHandler creates a new PaymentReportHandler.
func NewPaymentReportHandler(reportService service.PaymentReportService) *PaymentReportHandler {
	return &PaymentReportHandler{reportService: reportService}
}

// TemplateCSV handles GET /api/v1/payment-reports/template.csv
// @Summary Download the CSV import template
// @Tags payment-reports
// @Produce text/csv
// @Success 200 {file} file "Template CSV"
// @Router /payment-reports/template.csv [get]
func (h *PaymentReportHandler) TemplateCSV(c *gin.Context) {
	var buf bytes.Buffer
	buf.Write(csvexport.BOM)
	w := csvexport.NewWriter(&buf)
	if err := w.WriteTemplate(); err != nil {
		HandleError(c, err)
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		HandleError(c, err)
		return
	}
	sendAttachment(c, "payment_report_template.csv", csvContentType, buf.Bytes())
}

// TemplateXLSX handles GET /api/v1/payment-reports/template.xlsx
// @Summary Download the XLSX import template
// @Description The header row carries a comment per column describing the expected format
// @Tags payment-reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file "Template workbook"
// @Router /payment-reports/template.xlsx [get]
func (h *PaymentReportHandler) TemplateXLSX(c *gin.Context) {
	var buf bytes.Buffer
	if err := paymentreport.WriteTemplateXLSX(&buf); err != nil {
		HandleError(c, err)
		return
	}
	sendAttachment(c, "payment_report_template.xlsx", xlsxContentType, buf.Bytes())
}

// Upload handles POST /api/v1/payment-reports/upload
// @Summary Upload a payment report
// @Description Parses a CSV, XLSX or XLS report and suggests a column mapping for every field
// @Tags payment-reports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Report file (csv, xlsx, xls)"
// @Success 201 {object} Response{data=service.ImportSessionView}
// @Failure 400 {object} ErrorResponseBody "Missing file or unsupported type"
// @Failure 413 {object} ErrorResponseBody "File too large or too many rows"
// @Failure 422 {object} ErrorResponseBody "Empty or unreadable report"
// @Failure 429 {object} ErrorResponseBody "Rate limited"
// @Router /payment-reports/upload [post]
func (h *PaymentReportHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	view, err := h.reportService.Upload(c.Request.Context(), service.ReportUploadInput{
		File:     file,
		FileName: header.Filename,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, view)
}

// Get handles GET /api/v1/payment-reports/:sid
// @Summary Get an import session
// @Tags payment-reports
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} Response{data=service.ImportSessionView}
// @Failure 404 {object} ErrorResponseBody "Session not found or expired"
// @Router /payment-reports/{sid} [get]
func (h *PaymentReportHandler) Get(c *gin.Context) {
	sid, ok := parseUUIDParam(c, "sid", "session")
	if !ok {
		return
	}

	view, err := h.reportService.Get(c.Request.Context(), sid)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, view)
}

// SetMappings handles PUT /api/v1/payment-reports/:sid/mappings
// @Summary Map report columns to fields and validate every row
// @Tags payment-reports
// @Accept json
// @Produce json
// @Param sid path string true "Session ID"
// @Param body body MappingsRequest true "Field key to column header"
// @Success 200 {object} Response{data=service.ImportSessionView}
// @Failure 409 {object} ErrorResponseBody "Action not allowed in current step"
// @Failure 422 {object} ErrorResponseBody "Required field not mapped"
// @Router /payment-reports/{sid}/mappings [put]
func (h *PaymentReportHandler) SetMappings(c *gin.Context) {
	sid, ok := parseUUIDParam(c, "sid", "session")
	if !ok {
		return
	}

	var req MappingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	view, err := h.reportService.SetMappings(c.Request.Context(), sid, paymentreport.FieldMappings(req.Mappings))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, view)
}

// Review handles GET /api/v1/payment-reports/:sid/review
// @Summary List validated rows
// @Tags payment-reports
// @Produce json
// @Param sid path string true "Session ID"
// @Param status query string false "Row status" Enums(valid, warning, error)
// @Param offset query int false "Pagination offset" default(0)
// @Param limit query int false "Pagination limit" default(20)
// @Success 200 {object} Response{data=[]domain.ValidatedPaymentRecord,meta=PagMeta}
// @Failure 400 {object} ErrorResponseBody "Invalid status"
// @Failure 409 {object} ErrorResponseBody "Mappings not submitted yet"
// @Router /payment-reports/{sid}/review [get]
func (h *PaymentReportHandler) Review(c *gin.Context) {
	sid, ok := parseUUIDParam(c, "sid", "session")
	if !ok {
		return
	}

	status := domain.RecordStatus(strings.ToLower(c.Query("status")))
	switch status {
	case "", domain.RecordValid, domain.RecordWarning, domain.RecordError:
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FILTER", "status must be valid, warning or error")
		return
	}
	offset, limit := parsePagination(c)

	records, total, err := h.reportService.Review(c.Request.Context(), sid, service.ReviewFilter{
		Status: status,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, records, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// ErrorReport handles GET /api/v1/payment-reports/:sid/errors.csv
// @Summary Download flagged rows as CSV
// @Description Every row with errors or warnings, with its messages
// @Tags payment-reports
// @Produce text/csv
// @Param sid path string true "Session ID"
// @Success 200 {file} file "Error report"
// @Failure 404 {object} ErrorResponseBody "Session not found or expired"
// @Failure 409 {object} ErrorResponseBody "Mappings not submitted yet"
// @Router /payment-reports/{sid}/errors.csv [get]
func (h *PaymentReportHandler) ErrorReport(c *gin.Context) {
	sid, ok := parseUUIDParam(c, "sid", "session")
	if !ok {
		return
	}

	var buf bytes.Buffer
	filename, err := h.reportService.WriteErrorReport(c.Request.Context(), sid, &buf)
	if err != nil {
		HandleError(c, err)
		return
	}

	sendAttachment(c, filename, csvContentType, buf.Bytes())
}

// Import handles POST /api/v1/payment-reports/:sid/import
// @Summary Import every row without errors
// @Tags payment-reports
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} Response{data=service.ImportResult}
// @Failure 409 {object} ErrorResponseBody "Action not allowed in current step"
// @Failure 422 {object} ErrorResponseBody "No importable rows"
// @Router /payment-reports/{sid}/import [post]
func (h *PaymentReportHandler) Import(c *gin.Context) {
	sid, ok := parseUUIDParam(c, "sid", "session")
	if !ok {
		return
	}

	result, err := h.reportService.Import(c.Request.Context(), sid)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// Cancel handles DELETE /api/v1/payment-reports/:sid
// @Summary Abandon an import session
// @Tags payment-reports
// @Produce json
// @Param sid path string true "Session ID"
// @Success 200 {object} Response{data=MessageResponse}
// @Router /payment-reports/{sid} [delete]
func (h *PaymentReportHandler) Cancel(c *gin.Context) {
	sid, ok := parseUUIDParam(c, "sid", "session")
	if !ok {
		return
	}

	if err := h.reportService.Cancel(c.Request.Context(), sid); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, MessageResponse{Message: "import cancelled"})
}

func sendAttachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
