package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Exception is a flagged problem on an invoice that must be resolved before submission.
// Exceptions are never deleted, only flagged resolved.
type Exception struct {
	ID            uuid.UUID     `json:"id"`
	Type          ExceptionType `json:"type"`
	Message       string        `json:"message"`
	Details       string        `json:"details"`
	MissingFields []string      `json:"missing_fields,omitempty"`
	Resolved      bool          `json:"resolved"`
	ResolvedAt    *time.Time    `json:"resolved_at,omitempty"`
}

// HasMissingField reports whether name is listed in the exception's missing fields.
func (e *Exception) HasMissingField(name string) bool {
	for _, f := range e.MissingFields {
		if f == name {
			return true
		}
	}
	return false
}

// Invoice is a receivable tracked by the operations team.
type Invoice struct {
	ID                uuid.UUID         `json:"id"`
	Number            string            `json:"number"`
	Buyer             string            `json:"buyer"`
	Supplier          string            `json:"supplier"`
	Total             decimal.Decimal   `json:"total"`
	Currency          string            `json:"currency"`
	Status            InvoiceStatus     `json:"status"`
	CreationDate      time.Time         `json:"creation_date"`
	DueDate           *time.Time        `json:"due_date,omitempty"`
	PONumber          string            `json:"po_number"`
	SmartConnectionID *uuid.UUID        `json:"smart_connection_id,omitempty"`
	Exceptions        []Exception       `json:"exceptions"`
	HasExceptions     bool              `json:"has_exceptions"`
	IsDuplicate       bool              `json:"is_duplicate"`
	PDFKey            string            `json:"pdf_key,omitempty"`
	Fields            map[string]string `json:"fields,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// RecomputeHasExceptions derives HasExceptions: true unless every exception is resolved.
func (inv *Invoice) RecomputeHasExceptions() {
	inv.HasExceptions = false
	for i := range inv.Exceptions {
		if !inv.Exceptions[i].Resolved {
			inv.HasExceptions = true
			return
		}
	}
}

// OpenExceptions returns the unresolved exceptions.
func (inv *Invoice) OpenExceptions() []Exception {
	var open []Exception
	for i := range inv.Exceptions {
		if !inv.Exceptions[i].Resolved {
			open = append(open, inv.Exceptions[i])
		}
	}
	return open
}

// SmartConnection links a buyer, a supplier and a buyer portal.
type SmartConnection struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Buyer    string    `db:"buyer" json:"buyer"`
	Supplier string    `db:"supplier" json:"supplier"`
	Portal   string    `db:"portal" json:"portal"`
	Active   bool      `db:"active" json:"active"`
}

// PortalRecord is a record pulled from a buyer portal, linked to zero or one invoices.
type PortalRecord struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	Portal            string          `db:"portal" json:"portal"`
	InvoiceID         *uuid.UUID      `db:"invoice_id" json:"invoice_id,omitempty"`
	InvoiceNumber     string          `db:"invoice_number" json:"invoice_number"`
	Buyer             string          `db:"buyer" json:"buyer"`
	Total             decimal.Decimal `db:"total" json:"total"`
	Currency          string          `db:"currency" json:"currency"`
	PortalStatus      string          `db:"portal_status" json:"portal_status"`
	MatchType         MatchType       `db:"match_type" json:"match_type"`
	SmartConnectionID *uuid.UUID      `db:"smart_connection_id" json:"smart_connection_id,omitempty"`
	LastSyncedAt      time.Time       `db:"last_synced_at" json:"last_synced_at"`
}

// TwoFactorSettings holds where a portal sends its second factor.
type TwoFactorSettings struct {
	Method TwoFactorMethod `json:"method"`
	Email  string          `json:"email,omitempty"`
	Phone  string          `json:"phone,omitempty"`
}

// PortalUser is a credential used to log into a buyer portal.
type PortalUser struct {
	ID                uuid.UUID         `json:"id"`
	Portal            string            `json:"portal"`
	PortalURL         string            `json:"portal_url"`
	Username          string            `json:"username"`
	PasswordHash      string            `json:"-"`
	UserType          PortalUserType    `json:"user_type"`
	Status            PortalUserStatus  `json:"status"`
	Issue             string            `json:"issue,omitempty"`
	TwoFactor         TwoFactorSettings `json:"two_factor"`
	LinkedConnections int               `json:"linked_connections"`
	LastValidatedAt   *time.Time        `json:"last_validated_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// ReadOnly reports whether the credential is platform-managed.
func (u *PortalUser) ReadOnly() bool {
	return u.UserType == PortalUserMonto
}

// ValidatedPaymentRecord is one parsed payment report row annotated with validation results.
type ValidatedPaymentRecord struct {
	Row      int               `json:"_row"`
	Errors   []string          `json:"_errors"`
	Warnings []string          `json:"_warnings"`
	Status   RecordStatus      `json:"_status"`
	Values   map[string]string `json:"values"`
}

// PaymentRecord is an imported payment report row.
type PaymentRecord struct {
	ID                   uuid.UUID        `db:"id" json:"id"`
	ImportID             uuid.UUID        `db:"import_id" json:"import_id"`
	InvoiceNumber        string           `db:"invoice_number" json:"invoice_number"`
	IssueDate            string           `db:"issue_date" json:"issue_date"`
	DueDate              string           `db:"due_date" json:"due_date"`
	PaymentTerms         string           `db:"payment_terms" json:"payment_terms"`
	BillingCurrency      string           `db:"billing_currency" json:"billing_currency"`
	Receivable           string           `db:"receivable" json:"receivable"`
	Payable              string           `db:"payable" json:"payable"`
	TotalAmount          decimal.Decimal  `db:"total_amount" json:"total_amount"`
	TotalRemainingAmount *decimal.Decimal `db:"total_remaining_amount" json:"total_remaining_amount,omitempty"`
	Status               string           `db:"status" json:"status"`
	PONumber             string           `db:"po_number" json:"po_number"`
	TaxTotal             *decimal.Decimal `db:"tax_total" json:"tax_total,omitempty"`
	Type                 string           `db:"type" json:"type"`
	TransactionID        string           `db:"transaction_id" json:"transaction_id"`
	SourceRow            int              `db:"source_row" json:"source_row"`
	HasWarnings          bool             `db:"has_warnings" json:"has_warnings"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at"`
}

// Attachment is a file attached to a note.
type Attachment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	NoteID      uuid.UUID `db:"note_id" json:"note_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	ContentType string    `db:"content_type" json:"content_type"`
	Size        int64     `db:"size" json:"size"`
	StorageKey  string    `db:"storage_key" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Note is one entry of an invoice's activity/notes thread.
type Note struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	InvoiceID   uuid.UUID    `db:"invoice_id" json:"invoice_id"`
	Kind        ActivityKind `db:"kind" json:"kind"`
	Author      string       `db:"author" json:"author"`
	Body        string       `db:"body" json:"body"`
	Attachments []Attachment `db:"-" json:"attachments"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// Notification is a fire-and-forget message for the operator, rendered as a toast by the UI.
type Notification struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Variant     NotificationVariant `json:"variant"`
}
