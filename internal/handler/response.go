package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"payops/internal/domain"
	"payops/internal/middleware"
	"payops/internal/portal"
)

// authorHeader carries the display name of the operator. There is no authentication; the
// name is only recorded on activity entries.
const authorHeader = "X-Author"

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response. Field names the offending input for form
// validation errors.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvoiceNotFound):
		return http.StatusNotFound, "INVOICE_NOT_FOUND", "invoice not found"
	case errors.Is(err, domain.ErrPortalRecordNotFound):
		return http.StatusNotFound, "PORTAL_RECORD_NOT_FOUND", "portal record not found"
	case errors.Is(err, domain.ErrPortalUserNotFound):
		return http.StatusNotFound, "PORTAL_USER_NOT_FOUND", "portal user not found"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", "session not found or expired"
	case errors.Is(err, domain.ErrExceptionNotFound):
		return http.StatusNotFound, "EXCEPTION_NOT_FOUND", "exception not found on invoice"
	case errors.Is(err, domain.ErrCandidateNotFound):
		return http.StatusNotFound, "CANDIDATE_NOT_FOUND", "invoice is not a duplicate candidate"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, "ALREADY_EXISTS", "resource already exists"
	case errors.Is(err, domain.ErrNoOpenExceptions):
		return http.StatusConflict, "NO_OPEN_EXCEPTIONS", "invoice has no unresolved exceptions"
	case errors.Is(err, domain.ErrInvalidAction):
		return http.StatusBadRequest, "INVALID_ACTION", "resolution action is not valid for this invoice"
	case errors.Is(err, domain.ErrMissingFields):
		return http.StatusUnprocessableEntity, "MISSING_FIELDS", "all missing fields must be provided"
	case errors.Is(err, domain.ErrPDFRequired):
		return http.StatusBadRequest, "PDF_REQUIRED", "a replacement PDF is required; use the PDF upload endpoint"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusInternalServerError, "UPLOAD_FAILED", "file upload to storage failed"
	case errors.Is(err, domain.ErrSelectionLimit):
		return http.StatusConflict, "SELECTION_LIMIT", "at most two invoices can be selected"
	case errors.Is(err, domain.ErrInvalidWizardStep):
		return http.StatusConflict, "INVALID_WIZARD_STEP", "action not allowed in current step"
	case errors.Is(err, domain.ErrConfirmationRequired):
		return http.StatusBadRequest, "CONFIRMATION_REQUIRED", "explicit confirmation is required"
	case errors.Is(err, domain.ErrRecordNotLinked):
		return http.StatusConflict, "RECORD_NOT_LINKED", "portal record is not linked to an invoice"
	case errors.Is(err, domain.ErrPrimaryConflict):
		return http.StatusConflict, "PRIMARY_CONFLICT", "portal records changed concurrently; reload and retry"
	case errors.Is(err, domain.ErrPortalUserReadOnly):
		return http.StatusForbidden, "PORTAL_USER_READ_ONLY", "portal user is managed by the platform"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnprocessableEntity, "INVALID_CREDENTIALS", "invalid portal credentials"
	case errors.Is(err, domain.ErrInvalidTwoFactor):
		return http.StatusUnprocessableEntity, "INVALID_TWO_FACTOR", "invalid two-factor settings"
	case errors.Is(err, domain.ErrEmptyReport):
		return http.StatusUnprocessableEntity, "EMPTY_REPORT", "report has no data rows"
	case errors.Is(err, domain.ErrMalformedReport):
		return http.StatusUnprocessableEntity, "MALFORMED_REPORT", "report file could not be read"
	case errors.Is(err, domain.ErrTooManyRows):
		return http.StatusRequestEntityTooLarge, "TOO_MANY_ROWS", "report exceeds maximum allowed rows"
	case errors.Is(err, domain.ErrMissingRequiredMapping):
		return http.StatusUnprocessableEntity, "MISSING_REQUIRED_MAPPING", "every required field must be mapped to a column"
	case errors.Is(err, domain.ErrNothingToImport):
		return http.StatusUnprocessableEntity, "NOTHING_TO_IMPORT", "no importable rows"
	case errors.Is(err, domain.ErrEmptyNote):
		return http.StatusBadRequest, "EMPTY_NOTE", "note body is empty"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response. Errors carrying
// more detail than their sentinel keep their own message.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		middleware.GetLogger(c).WithError(err).Error("handler: internal error")
		RespondError(c, status, code, msg)
		return
	}

	apiErr := &APIError{Code: code, Message: msg}
	var verr *portal.ValidationError
	if errors.As(err, &verr) {
		apiErr.Field = verr.Field
		apiErr.Message = verr.Message
	} else if err.Error() != msg {
		apiErr.Message = err.Error()
	}
	c.JSON(status, APIResponse{Success: false, Error: apiErr})
}

// parseUUIDParam parses a path parameter. Returns false if invalid (error response already written).
func parseUUIDParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

func author(c *gin.Context) string {
	return c.GetHeader(authorHeader)
}
