package paymentreport

import (
	"fmt"
	"sort"
	"strings"

	"payops/internal/domain"
)

// Row is one parsed data row keyed by source header.
type Row map[string]string

// FieldMappings maps a template field key to the source header holding its value.
// Fields without an entry are unmapped.
type FieldMappings map[string]string

// ProgressFunc receives progress updates as rows are processed. done never exceeds total.
type ProgressFunc func(done, total int)

// progressStep bounds how often progress is reported on large reports.
const progressStep = 100

// Summary holds the row counts shown on the summary step.
type Summary struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
	// Importable counts rows that will be imported (valid and warning rows).
	Importable int `json:"importable"`
}

// ValidateData classifies every row against PaymentReportFields.
//
// A field whose mapped cell is non-blank is copied into the record. A blank required field
// is an error. For the conditionally required pair, a blank field is fine while its
// counterpart has a value, and both blank is a single error naming both fields. A blank
// optional field that is mapped to a column is a warning; unmapped optional fields are not
// reported. Rows are independent of each other.
func ValidateData(rows []Row, mappings FieldMappings) []domain.ValidatedPaymentRecord {
	return ValidateDataWithProgress(rows, mappings, nil)
}

// ValidateDataWithProgress is ValidateData with progress reporting.
func ValidateDataWithProgress(rows []Row, mappings FieldMappings, progress ProgressFunc) []domain.ValidatedPaymentRecord {
	out := make([]domain.ValidatedPaymentRecord, len(rows))
	for i, row := range rows {
		out[i] = validateRow(row, mappings, i)
		if progress != nil && ((i+1)%progressStep == 0 || i+1 == len(rows)) {
			progress(i+1, len(rows))
		}
	}
	return out
}

func validateRow(row Row, mappings FieldMappings, index int) domain.ValidatedPaymentRecord {
	rec := domain.ValidatedPaymentRecord{
		// Row 1 is the header line.
		Row:      index + 2,
		Errors:   []string{},
		Warnings: []string{},
		Values:   make(map[string]string, len(PaymentReportFields)),
	}

	reportedPairs := make(map[string]bool)
	for _, f := range PaymentReportFields {
		value, mapped := lookup(row, mappings, f.Key)
		if value != "" {
			rec.Values[f.Key] = value
			continue
		}

		switch {
		case f.Required:
			rec.Errors = append(rec.Errors, "Missing required field: "+f.Label)
		case f.ConditionallyRequired != "":
			if other, _ := lookup(row, mappings, f.ConditionallyRequired); other != "" {
				continue
			}
			pair := pairKey(f.Key, f.ConditionallyRequired)
			if reportedPairs[pair] {
				continue
			}
			reportedPairs[pair] = true
			counterpart, _ := FieldByKey(f.ConditionallyRequired)
			rec.Errors = append(rec.Errors, fmt.Sprintf("Missing required field: %s or %s", f.Label, counterpart.Label))
		case mapped:
			rec.Warnings = append(rec.Warnings, "Missing optional field: "+f.Label)
		}
	}

	switch {
	case len(rec.Errors) > 0:
		rec.Status = domain.RecordError
	case len(rec.Warnings) > 0:
		rec.Status = domain.RecordWarning
	default:
		rec.Status = domain.RecordValid
	}
	return rec
}

// lookup returns the trimmed cell value for a field and whether the field is mapped at all.
func lookup(row Row, mappings FieldMappings, key string) (value string, mapped bool) {
	header, ok := mappings[key]
	if !ok || header == "" {
		return "", false
	}
	return strings.TrimSpace(row[header]), true
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// Summarize counts records per status.
func Summarize(records []domain.ValidatedPaymentRecord) Summary {
	s := Summary{Total: len(records)}
	for i := range records {
		switch records[i].Status {
		case domain.RecordValid:
			s.Valid++
		case domain.RecordWarning:
			s.Warnings++
		case domain.RecordError:
			s.Errors++
		}
	}
	s.Importable = s.Valid + s.Warnings
	return s
}

// CheckMappings verifies that every required field is mapped to one of headers and that at
// least one field of each conditionally required pair is mapped. Mappings that point to an
// unknown field or header are rejected as well.
func CheckMappings(mappings FieldMappings, headers []string) error {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	for key, header := range mappings {
		if _, ok := FieldByKey(key); !ok {
			return fmt.Errorf("%w: unknown field %q", domain.ErrMissingRequiredMapping, key)
		}
		if header != "" && !known[header] {
			return fmt.Errorf("%w: column %q not found in report", domain.ErrMissingRequiredMapping, header)
		}
	}

	isMapped := func(key string) bool { return mappings[key] != "" }

	var missing []string
	seen := make(map[string]bool)
	for _, f := range PaymentReportFields {
		switch {
		case f.Required && !isMapped(f.Key):
			missing = append(missing, f.Label)
		case f.ConditionallyRequired != "" && !isMapped(f.Key) && !isMapped(f.ConditionallyRequired):
			pair := pairKey(f.Key, f.ConditionallyRequired)
			if seen[pair] {
				continue
			}
			seen[pair] = true
			counterpart, _ := FieldByKey(f.ConditionallyRequired)
			missing = append(missing, f.Label+" or "+counterpart.Label)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingRequiredMapping, strings.Join(missing, ", "))
	}
	return nil
}

// ImportableRows returns the records that will be imported, in row order.
func ImportableRows(records []domain.ValidatedPaymentRecord) []domain.ValidatedPaymentRecord {
	out := make([]domain.ValidatedPaymentRecord, 0, len(records))
	for i := range records {
		if records[i].Status != domain.RecordError {
			out = append(out, records[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Row < out[b].Row })
	return out
}
