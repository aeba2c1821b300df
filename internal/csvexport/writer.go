// Package csvexport writes payment report templates and per-row validation reports as CSV.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"payops/internal/domain"
	"payops/internal/paymentreport"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// reportColumns precede the payment report fields in the error report.
var reportColumns = []string{"Row", "Status", "Errors", "Warnings"}

// Writer wraps csv.Writer for exporting payment report data as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteTemplate writes the template header row: the payment report field labels in order.
func (w *Writer) WriteTemplate() error {
	return w.csv.Write(paymentreport.TemplateHeader())
}

// WriteReportHeader writes the header of the validation report.
func (w *Writer) WriteReportHeader() error {
	header := make([]string, 0, len(reportColumns)+len(paymentreport.PaymentReportFields))
	header = append(header, reportColumns...)
	header = append(header, paymentreport.TemplateHeader()...)
	return w.csv.Write(header)
}

// WriteRecords writes one row per validated record. Errors and warnings are joined with
// "; " so each record stays on one line.
func (w *Writer) WriteRecords(records []domain.ValidatedPaymentRecord) error {
	for i := range records {
		if err := w.csv.Write(recordToRow(&records[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func recordToRow(rec *domain.ValidatedPaymentRecord) []string {
	row := make([]string, 0, len(reportColumns)+len(paymentreport.PaymentReportFields))
	row = append(row,
		strconv.Itoa(rec.Row),
		string(rec.Status),
		strings.Join(rec.Errors, "; "),
		strings.Join(rec.Warnings, "; "),
	)
	for _, f := range paymentreport.PaymentReportFields {
		row = append(row, rec.Values[f.Key])
	}
	return row
}

// FilterRecords keeps the records whose status is in statuses. No statuses keeps everything.
func FilterRecords(records []domain.ValidatedPaymentRecord, statuses ...domain.RecordStatus) []domain.ValidatedPaymentRecord {
	if len(statuses) == 0 {
		return records
	}
	want := make(map[domain.RecordStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	out := make([]domain.ValidatedPaymentRecord, 0, len(records))
	for i := range records {
		if want[records[i].Status] {
			out = append(out, records[i])
		}
	}
	return out
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition. Replaces non-alphanumeric
// chars (except - _) with _, collapses consecutive underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "report"
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(name), now.Format("2006-01-02"), ext)
}
