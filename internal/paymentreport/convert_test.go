package paymentreport_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payops/internal/domain"
	"payops/internal/paymentreport"
)

func TestToPaymentRecord(t *testing.T) {
	importID := uuid.New()
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	rec := domain.ValidatedPaymentRecord{
		Row:    5,
		Status: domain.RecordWarning,
		Values: map[string]string{
			"invoiceNumber":   "INV-9",
			"issueDate":       "2024-03-01",
			"paymentTerms":    "Net 30",
			"billingCurrency": "usd",
			"receivable":      "Acme",
			"payable":         "Globex",
			"totalAmount":     "1,250.50",
			"taxTotal":        "50",
		},
	}

	pr, err := paymentreport.ToPaymentRecord(&rec, importID, now)

	require.NoError(t, err)
	assert.Equal(t, importID, pr.ImportID)
	assert.Equal(t, "USD", pr.BillingCurrency)
	assert.Equal(t, "1250.5", pr.TotalAmount.String())
	require.NotNil(t, pr.TaxTotal)
	assert.Equal(t, "50", pr.TaxTotal.String())
	assert.Nil(t, pr.TotalRemainingAmount)
	assert.True(t, pr.HasWarnings)
	assert.Equal(t, 5, pr.SourceRow)
}

func TestToPaymentRecord_InvalidAmount(t *testing.T) {
	rec := domain.ValidatedPaymentRecord{Row: 3, Values: map[string]string{"totalAmount": "about 100"}}

	_, err := paymentreport.ToPaymentRecord(&rec, uuid.New(), time.Now())

	assert.ErrorContains(t, err, "row 3")
}
