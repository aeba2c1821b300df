package paymentreport

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payops/internal/domain"
)

// ToPaymentRecord converts a validated row into a payment record. Rows with status error
// must not be passed in. Amounts accept thousands separators ("1,250.00").
func ToPaymentRecord(rec *domain.ValidatedPaymentRecord, importID uuid.UUID, now time.Time) (domain.PaymentRecord, error) {
	v := rec.Values
	total, err := parseAmount(v[FieldTotalAmount])
	if err != nil {
		return domain.PaymentRecord{}, fmt.Errorf("row %d: Total Amount: %w", rec.Row, err)
	}
	remaining, err := parseOptionalAmount(v[FieldTotalRemainingAmount])
	if err != nil {
		return domain.PaymentRecord{}, fmt.Errorf("row %d: Total Remaining Amount: %w", rec.Row, err)
	}
	tax, err := parseOptionalAmount(v[FieldTaxTotal])
	if err != nil {
		return domain.PaymentRecord{}, fmt.Errorf("row %d: Tax Total: %w", rec.Row, err)
	}

	return domain.PaymentRecord{
		ID:                   uuid.New(),
		ImportID:             importID,
		InvoiceNumber:        v[FieldInvoiceNumber],
		IssueDate:            v[FieldIssueDate],
		DueDate:              v[FieldDueDate],
		PaymentTerms:         v[FieldPaymentTerms],
		BillingCurrency:      strings.ToUpper(v[FieldBillingCurrency]),
		Receivable:           v[FieldReceivable],
		Payable:              v[FieldPayable],
		TotalAmount:          total,
		TotalRemainingAmount: remaining,
		Status:               v[FieldStatus],
		PONumber:             v[FieldPONumber],
		TaxTotal:             tax,
		Type:                 v[FieldType],
		TransactionID:        v[FieldTransactionID],
		SourceRow:            rec.Row,
		HasWarnings:          rec.Status == domain.RecordWarning,
		CreatedAt:            now.UTC(),
	}, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(s))
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

func parseOptionalAmount(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := parseAmount(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
