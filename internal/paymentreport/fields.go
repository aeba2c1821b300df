// Package paymentreport parses, maps and validates uploaded payment reports before they
// are imported as payment records.
package paymentreport

import (
	"regexp"
	"strings"
)

// Field is one column of the payment report template.
type Field struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	// ConditionallyRequired names the counterpart field. At least one of the pair must be
	// present on every row.
	ConditionallyRequired string `json:"conditionally_required,omitempty"`
	Description           string `json:"description,omitempty"`
}

// Field keys.
const (
	FieldInvoiceNumber        = "invoiceNumber"
	FieldIssueDate            = "issueDate"
	FieldDueDate              = "dueDate"
	FieldPaymentTerms         = "paymentTerms"
	FieldBillingCurrency      = "billingCurrency"
	FieldReceivable           = "receivable"
	FieldPayable              = "payable"
	FieldTotalAmount          = "totalAmount"
	FieldTotalRemainingAmount = "totalRemainingAmount"
	FieldStatus               = "status"
	FieldPONumber             = "poNumber"
	FieldTaxTotal             = "taxTotal"
	FieldType                 = "type"
	FieldTransactionID        = "transactionId"
)

// PaymentReportFields lists the template columns in template order.
var PaymentReportFields = []Field{
	{Key: FieldInvoiceNumber, Label: "Invoice Number", Required: true, Description: "Unique invoice identifier"},
	{Key: FieldIssueDate, Label: "Issue Date", Required: true, Description: "Date the invoice was issued"},
	{Key: FieldDueDate, Label: "Due Date", ConditionallyRequired: FieldPaymentTerms, Description: "Required when Payment Terms is empty"},
	{Key: FieldPaymentTerms, Label: "Payment Terms", ConditionallyRequired: FieldDueDate, Description: "Required when Due Date is empty"},
	{Key: FieldBillingCurrency, Label: "Billing Currency", Required: true, Description: "ISO 4217 currency code"},
	{Key: FieldReceivable, Label: "Receivable", Required: true, Description: "Party receiving the payment"},
	{Key: FieldPayable, Label: "Payable", Required: true, Description: "Party making the payment"},
	{Key: FieldTotalAmount, Label: "Total Amount", Required: true, Description: "Invoice total including tax"},
	{Key: FieldTotalRemainingAmount, Label: "Total Remaining Amount"},
	{Key: FieldStatus, Label: "Status"},
	{Key: FieldPONumber, Label: "PO Number"},
	{Key: FieldTaxTotal, Label: "Tax Total"},
	{Key: FieldType, Label: "Type"},
	{Key: FieldTransactionID, Label: "Transaction ID"},
}

var fieldIndex = func() map[string]int {
	m := make(map[string]int, len(PaymentReportFields))
	for i, f := range PaymentReportFields {
		m[f.Key] = i
	}
	return m
}()

// FieldByKey looks up a template field.
func FieldByKey(key string) (Field, bool) {
	i, ok := fieldIndex[key]
	if !ok {
		return Field{}, false
	}
	return PaymentReportFields[i], true
}

// TemplateHeader returns the header row of the downloadable template.
func TemplateHeader() []string {
	header := make([]string, len(PaymentReportFields))
	for i, f := range PaymentReportFields {
		header[i] = f.Label
	}
	return header
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeHeader folds case and drops punctuation and whitespace so "Invoice No." and
// "invoice_no" compare equal.
func normalizeHeader(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}
