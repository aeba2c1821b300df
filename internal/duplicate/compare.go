package duplicate

import (
	"time"

	"github.com/google/uuid"

	"payops/internal/domain"
)

// FieldDiff is one row of the side-by-side comparison.
type FieldDiff struct {
	Field     string   `json:"field"`
	Label     string   `json:"label"`
	Values    []string `json:"values"`
	Different bool     `json:"different"`
}

type comparedField struct {
	field string
	label string
	value func(*domain.Invoice) string
}

var comparedFields = []comparedField{
	{"number", "Invoice Number", func(i *domain.Invoice) string { return i.Number }},
	{"buyer", "Buyer", func(i *domain.Invoice) string { return i.Buyer }},
	{"supplier", "Supplier", func(i *domain.Invoice) string { return i.Supplier }},
	{"total", "Total", func(i *domain.Invoice) string { return i.Total.StringFixed(2) }},
	{"currency", "Currency", func(i *domain.Invoice) string { return i.Currency }},
	{"status", "Status", func(i *domain.Invoice) string { return string(i.Status) }},
	{"creation_date", "Creation Date", func(i *domain.Invoice) string { return i.CreationDate.Format("2006-01-02") }},
	{"due_date", "Due Date", func(i *domain.Invoice) string { return formatDate(i.DueDate) }},
	{"po_number", "PO Number", func(i *domain.Invoice) string { return i.PONumber }},
}

// CompareFields diffs the invoices field by field. Values are in the order of invoices; a
// field is flagged different when any two invoices disagree.
func CompareFields(invoices []domain.Invoice) []FieldDiff {
	diffs := make([]FieldDiff, 0, len(comparedFields))
	for _, f := range comparedFields {
		d := FieldDiff{Field: f.field, Label: f.label, Values: make([]string, 0, len(invoices))}
		for i := range invoices {
			v := f.value(&invoices[i])
			if len(d.Values) > 0 && v != d.Values[0] {
				d.Different = true
			}
			d.Values = append(d.Values, v)
		}
		diffs = append(diffs, d)
	}
	return diffs
}

// Newest returns the ID of the invoice with the latest creation date. Ties go to the
// earlier invoice in the slice.
func Newest(invoices []domain.Invoice) uuid.UUID {
	if len(invoices) == 0 {
		return uuid.Nil
	}
	best := 0
	for i := 1; i < len(invoices); i++ {
		if invoices[i].CreationDate.After(invoices[best].CreationDate) {
			best = i
		}
	}
	return invoices[best].ID
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
