package paymentreport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payops/internal/domain"
	"payops/internal/paymentreport"
)

// identityMappings maps every given field key to a header of the same name.
func identityMappings(keys ...string) paymentreport.FieldMappings {
	m := paymentreport.FieldMappings{}
	for _, k := range keys {
		m[k] = k
	}
	return m
}

func baseRow() paymentreport.Row {
	return paymentreport.Row{
		"invoiceNumber":   "INV-1",
		"issueDate":       "2024-01-01",
		"dueDate":         "",
		"paymentTerms":    "",
		"billingCurrency": "USD",
		"receivable":      "Acme",
		"payable":         "Globex",
		"totalAmount":     "100",
	}
}

func baseMappings() paymentreport.FieldMappings {
	return identityMappings("invoiceNumber", "issueDate", "dueDate", "paymentTerms",
		"billingCurrency", "receivable", "payable", "totalAmount")
}

func TestValidateData_BothConditionalFieldsMissing(t *testing.T) {
	out := paymentreport.ValidateData([]paymentreport.Row{baseRow()}, baseMappings())

	require.Len(t, out, 1)
	rec := out[0]
	assert.Equal(t, domain.RecordError, rec.Status)
	require.Len(t, rec.Errors, 1)
	assert.Contains(t, rec.Errors[0], "Due Date")
	assert.Contains(t, rec.Errors[0], "Payment Terms")
	assert.Equal(t, 2, rec.Row)
}

func TestValidateData_ConditionalSatisfiedByCounterpart(t *testing.T) {
	row := baseRow()
	row["paymentTerms"] = "Net 30"

	out := paymentreport.ValidateData([]paymentreport.Row{row}, baseMappings())

	require.Len(t, out, 1)
	assert.Equal(t, domain.RecordValid, out[0].Status)
	assert.Empty(t, out[0].Errors)
	assert.Empty(t, out[0].Warnings)
	assert.Equal(t, "Net 30", out[0].Values["paymentTerms"])
	assert.NotContains(t, out[0].Values, "dueDate")
}

func TestValidateData_StatusClassification(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(paymentreport.Row, paymentreport.FieldMappings)
		want     domain.RecordStatus
		errors   int
		warnings int
	}{
		{
			name:   "required field blank",
			mutate: func(r paymentreport.Row, _ paymentreport.FieldMappings) { r["payable"] = "  " },
			want:   domain.RecordError,
			errors: 1,
		},
		{
			name:   "required field unmapped",
			mutate: func(_ paymentreport.Row, m paymentreport.FieldMappings) { delete(m, "billingCurrency") },
			want:   domain.RecordError,
			errors: 1,
		},
		{
			name: "mapped optional field blank",
			mutate: func(r paymentreport.Row, m paymentreport.FieldMappings) {
				m["poNumber"] = "poNumber"
				r["poNumber"] = ""
			},
			want:     domain.RecordWarning,
			warnings: 1,
		},
		{
			name: "error outranks warning",
			mutate: func(r paymentreport.Row, m paymentreport.FieldMappings) {
				m["taxTotal"] = "taxTotal"
				r["invoiceNumber"] = ""
			},
			want:     domain.RecordError,
			errors:   1,
			warnings: 1,
		},
		{
			name:   "due date alone satisfies the pair",
			mutate: func(r paymentreport.Row, _ paymentreport.FieldMappings) { r["dueDate"] = "2024-02-01" },
			want:   domain.RecordValid,
		},
		{
			name: "every field present",
			mutate: func(r paymentreport.Row, m paymentreport.FieldMappings) {
				r["dueDate"] = "2024-02-01"
				r["paymentTerms"] = "Net 30"
				for _, f := range []string{"totalRemainingAmount", "status", "poNumber", "taxTotal", "type", "transactionId"} {
					m[f] = f
					r[f] = "x"
				}
			},
			want: domain.RecordValid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := baseRow()
			row["paymentTerms"] = "Net 30"
			m := baseMappings()
			tt.mutate(row, m)

			out := paymentreport.ValidateData([]paymentreport.Row{row}, m)

			require.Len(t, out, 1)
			assert.Equal(t, tt.want, out[0].Status)
			assert.Len(t, out[0].Errors, tt.errors)
			assert.Len(t, out[0].Warnings, tt.warnings)
		})
	}
}

func TestValidateData_RowsAreIndependent(t *testing.T) {
	good := baseRow()
	good["dueDate"] = "2024-03-01"
	bad := baseRow()
	dupe := baseRow()
	dupe["dueDate"] = "2024-03-01"

	out := paymentreport.ValidateData([]paymentreport.Row{good, bad, dupe}, baseMappings())

	require.Len(t, out, 3)
	assert.Equal(t, []int{2, 3, 4}, []int{out[0].Row, out[1].Row, out[2].Row})
	assert.Equal(t, domain.RecordValid, out[0].Status)
	assert.Equal(t, domain.RecordError, out[1].Status)
	// Same invoice number as row 2 is not flagged.
	assert.Equal(t, domain.RecordValid, out[2].Status)

	s := paymentreport.Summarize(out)
	assert.Equal(t, paymentreport.Summary{Total: 3, Valid: 2, Errors: 1, Importable: 2}, s)
	assert.Len(t, paymentreport.ImportableRows(out), 2)
}

func TestValidateDataWithProgress_ReportsCompletion(t *testing.T) {
	rows := make([]paymentreport.Row, 250)
	for i := range rows {
		rows[i] = baseRow()
	}
	var calls [][2]int

	paymentreport.ValidateDataWithProgress(rows, baseMappings(), func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})

	assert.Equal(t, [][2]int{{100, 250}, {200, 250}, {250, 250}}, calls)
}

func TestCheckMappings(t *testing.T) {
	headers := []string{"invoiceNumber", "issueDate", "dueDate", "paymentTerms", "billingCurrency", "receivable", "payable", "totalAmount"}

	t.Run("complete", func(t *testing.T) {
		assert.NoError(t, paymentreport.CheckMappings(baseMappings(), headers))
	})

	t.Run("one side of the pair is enough", func(t *testing.T) {
		m := baseMappings()
		delete(m, "dueDate")
		assert.NoError(t, paymentreport.CheckMappings(m, headers))
	})

	t.Run("missing required and pair", func(t *testing.T) {
		m := baseMappings()
		delete(m, "dueDate")
		delete(m, "paymentTerms")
		delete(m, "payable")

		err := paymentreport.CheckMappings(m, headers)

		assert.ErrorIs(t, err, domain.ErrMissingRequiredMapping)
		assert.Contains(t, err.Error(), "Payable")
		assert.Contains(t, err.Error(), "Due Date or Payment Terms")
	})

	t.Run("unknown column", func(t *testing.T) {
		m := baseMappings()
		m["poNumber"] = "PO Ref"
		assert.ErrorIs(t, paymentreport.CheckMappings(m, headers), domain.ErrMissingRequiredMapping)
	})
}

func TestTemplateHeader(t *testing.T) {
	assert.Equal(t, []string{
		"Invoice Number", "Issue Date", "Due Date", "Payment Terms", "Billing Currency", "Receivable",
		"Payable", "Total Amount", "Total Remaining Amount", "Status", "PO Number", "Tax Total", "Type",
		"Transaction ID",
	}, paymentreport.TemplateHeader())
}
