package domain

import "errors"

var (
	ErrNotFound               = errors.New("resource not found")
	ErrAlreadyExists          = errors.New("resource already exists")
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrExceptionNotFound      = errors.New("exception not found on invoice")
	ErrNoOpenExceptions       = errors.New("invoice has no unresolved exceptions")
	ErrInvalidAction          = errors.New("invalid resolution action")
	ErrMissingFields          = errors.New("required missing fields were not provided")
	ErrPDFRequired            = errors.New("a replacement PDF is required for this action")
	ErrUnsupportedFileType    = errors.New("unsupported file type")
	ErrFileTooLarge           = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed           = errors.New("file upload to storage failed")
	ErrSelectionLimit         = errors.New("selection limit reached")
	ErrInvalidWizardStep      = errors.New("action not allowed in current wizard step")
	ErrConfirmationRequired   = errors.New("explicit confirmation is required")
	ErrCandidateNotFound      = errors.New("invoice is not a duplicate candidate")
	ErrSessionNotFound        = errors.New("session not found or expired")
	ErrPortalRecordNotFound   = errors.New("portal record not found")
	ErrRecordNotLinked        = errors.New("portal record is not linked to an invoice")
	ErrPrimaryConflict        = errors.New("invoice already has a primary portal record")
	ErrPortalUserNotFound     = errors.New("portal user not found")
	ErrPortalUserReadOnly     = errors.New("portal user is managed by the platform and is read-only")
	ErrInvalidCredentials     = errors.New("invalid portal credentials")
	ErrInvalidTwoFactor       = errors.New("invalid two-factor settings")
	ErrEmptyReport            = errors.New("report has no data rows")
	ErrTooManyRows            = errors.New("report exceeds maximum allowed rows")
	ErrMalformedReport        = errors.New("report file could not be read")
	ErrMissingRequiredMapping = errors.New("required field is not mapped to a column")
	ErrNothingToImport        = errors.New("no importable rows")
	ErrEmptyNote              = errors.New("note body is empty")
)
