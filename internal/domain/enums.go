package domain

// ExceptionType tags the kind of problem flagged on an invoice.
type ExceptionType string

const (
	ExceptionDuplicateInvoice    ExceptionType = "DUPLICATE_INVOICE"
	ExceptionMissingInformation  ExceptionType = "MISSING_INFORMATION"
	ExceptionPOClosed            ExceptionType = "PO_CLOSED"
	ExceptionPOInsufficientFunds ExceptionType = "PO_INSUFFICIENT_FUNDS"
	ExceptionValidationError     ExceptionType = "VALIDATION_ERROR"
	ExceptionExtraData           ExceptionType = "EXTRA_DATA"
)

// ValidExceptionTypes is the set of recognized exception types.
var ValidExceptionTypes = map[ExceptionType]bool{
	ExceptionDuplicateInvoice:    true,
	ExceptionMissingInformation:  true,
	ExceptionPOClosed:            true,
	ExceptionPOInsufficientFunds: true,
	ExceptionValidationError:     true,
	ExceptionExtraData:           true,
}

// MissingFieldPOLineItems is the missing-field key that routes to the PO line items handler.
const MissingFieldPOLineItems = "poLineItems"

// ResolutionAction is the action a user applies to an invoice's exceptions.
type ResolutionAction string

const (
	ResolutionUploadNewPDF ResolutionAction = "UPLOAD_NEW_PDF"
	ResolutionMarkResolved ResolutionAction = "MARK_RESOLVED"
	ResolutionForceSubmit  ResolutionAction = "FORCE_SUBMIT"
	ResolutionExcluded     ResolutionAction = "EXCLUDED"
)

// ValidResolutionActions is the set of accepted resolution actions.
var ValidResolutionActions = map[ResolutionAction]bool{
	ResolutionUploadNewPDF: true,
	ResolutionMarkResolved: true,
	ResolutionForceSubmit:  true,
	ResolutionExcluded:     true,
}

// InvoiceStatus represents where an invoice sits in the submission lifecycle.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusException InvoiceStatus = "exception"
	InvoiceStatusSubmitted InvoiceStatus = "submitted"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusExcluded  InvoiceStatus = "excluded"
)

// MatchType classifies how a portal record is linked to an invoice.
type MatchType string

const (
	MatchPrimary   MatchType = "Primary"
	MatchAlternate MatchType = "Alternate"
	MatchUnmatched MatchType = "Unmatched"
	MatchConflict  MatchType = "Conflict"
)

// PortalUserStatus is the connection state of a portal credential.
type PortalUserStatus string

const (
	PortalUserConnected    PortalUserStatus = "Connected"
	PortalUserValidating   PortalUserStatus = "Validating"
	PortalUserDisconnected PortalUserStatus = "Disconnected"
)

// PortalUserType distinguishes platform-managed credentials from customer-provided ones.
type PortalUserType string

const (
	PortalUserMonto    PortalUserType = "Monto"
	PortalUserExternal PortalUserType = "External"
)

// TwoFactorMethod is how a portal delivers its second factor.
type TwoFactorMethod string

const (
	TwoFactorNone  TwoFactorMethod = "none"
	TwoFactorEmail TwoFactorMethod = "email"
	TwoFactorPhone TwoFactorMethod = "phone"
)

// RecordStatus is the per-row outcome of payment report validation.
type RecordStatus string

const (
	RecordValid   RecordStatus = "valid"
	RecordWarning RecordStatus = "warning"
	RecordError   RecordStatus = "error"
)

// ActivityKind distinguishes user notes from system-generated activity.
type ActivityKind string

const (
	ActivityNote       ActivityKind = "note"
	ActivityResolution ActivityKind = "resolution"
	ActivityPortal     ActivityKind = "portal"
	ActivityImport     ActivityKind = "import"
)

// NotificationVariant mirrors the toast variants of the front end.
type NotificationVariant string

const (
	NotificationDefault     NotificationVariant = "default"
	NotificationSuccess     NotificationVariant = "success"
	NotificationDestructive NotificationVariant = "destructive"
)

// AllowedAttachmentTypes maps file extensions (without dot) to MIME content type.
var AllowedAttachmentTypes = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// ReportFormat is the format of an uploaded payment report.
type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatXLS  ReportFormat = "xls"
)

// AllowedReportExtensions maps file extensions to report formats.
var AllowedReportExtensions = map[string]ReportFormat{
	"csv":  ReportFormatCSV,
	"xlsx": ReportFormatXLSX,
	"xls":  ReportFormatXLS,
}
