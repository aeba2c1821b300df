// Command seedportals converts a portal record export (Excel) into a SQL seed file.
// Records are loaded as Unmatched; the portal record view links them to invoices later.
// Usage: go run ./cmd/seedportals -in portal_records.xlsx -out db/seeds/portal_records.sql
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const batchSize = 500

// recordNamespace derives stable record IDs so re-running a seed is a no-op.
var recordNamespace = uuid.MustParse("0d6f3c55-2b8e-4c39-9a43-6b7e8f1d2a90")

type portalEntry struct {
	id            uuid.UUID
	portal        string
	invoiceNumber string
	buyer         string
	total         decimal.Decimal
	currency      string
	portalStatus  string
	lastSynced    time.Time
}

var requiredColumns = []string{"portal", "invoice number", "buyer", "total", "currency"}

func main() {
	in := flag.String("in", "portal_records.xlsx", "Excel export to read")
	out := flag.String("out", "db/seeds/portal_records.sql", "SQL file to write")
	sheet := flag.String("sheet", "", "sheet name (default: first sheet)")
	flag.Parse()

	if err := run(*in, *out, *sheet, time.Now().UTC()); err != nil {
		logrus.WithError(err).Fatal("seedportals failed")
	}
}

func run(inPath, outPath, sheet string, now time.Time) error {
	f, err := excelize.OpenFile(inPath)
	if err != nil {
		return fmt.Errorf("open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	entries, skipped, err := parseRows(rows, now)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"entries": len(entries), "skipped": skipped}).Info("parsed portal records")

	o, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = o.Close() }()

	if err := writeSQL(o, entries); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"batches": (len(entries) + batchSize - 1) / batchSize,
		"out":     outPath,
	}).Info("seed file written")
	return nil
}

// parseRows reads records below the header row. Rows with a missing key column or an
// unreadable total are skipped; repeated records keep their first occurrence.
func parseRows(rows [][]string, now time.Time) ([]portalEntry, int, error) {
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("sheet is empty")
	}
	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, 0, fmt.Errorf("missing column %q", name)
		}
	}
	get := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(cellVal(row, idx))
	}

	seen := make(map[uuid.UUID]bool)
	var entries []portalEntry
	skipped := 0
	for _, row := range rows[1:] {
		e := portalEntry{
			portal:        get(row, "portal"),
			invoiceNumber: get(row, "invoice number"),
			buyer:         get(row, "buyer"),
			currency:      strings.ToUpper(get(row, "currency")),
			portalStatus:  get(row, "portal status"),
			lastSynced:    now,
		}
		if e.portal == "" || e.invoiceNumber == "" || e.buyer == "" || len(e.currency) != 3 {
			skipped++
			continue
		}
		total, err := decimal.NewFromString(strings.ReplaceAll(get(row, "total"), ",", ""))
		if err != nil {
			skipped++
			continue
		}
		e.total = total
		if ts := get(row, "last synced"); ts != "" {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				e.lastSynced = t.UTC()
			}
		}

		key := strings.ToLower(e.portal + "|" + e.invoiceNumber + "|" + e.buyer)
		e.id = uuid.NewSHA1(recordNamespace, []byte(key))
		if seen[e.id] {
			continue
		}
		seen[e.id] = true
		entries = append(entries, e)
	}
	return entries, skipped, nil
}

func writeSQL(w io.Writer, entries []portalEntry) error {
	header := []string{
		"-- Portal record seed data generated from Excel.",
		fmt.Sprintf("-- %d records in batches of %d.", len(entries), batchSize),
		"BEGIN;",
		"",
	}
	for _, line := range header {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i := 0; i < len(entries); i += batchSize {
		end := min(i+batchSize, len(entries))
		if err := writeBatch(w, entries[i:end]); err != nil {
			return fmt.Errorf("write batch at offset %d: %w", i, err)
		}
	}

	if _, err := fmt.Fprintln(w, "\nCOMMIT;"); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}
	return nil
}

func writeBatch(w io.Writer, batch []portalEntry) error {
	if len(batch) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO portal_records (id, portal, invoice_number, buyer, total, currency, portal_status, match_type, last_synced_at) VALUES\n")
	for i := range batch {
		e := &batch[i]
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "  ('%s', '%s', '%s', '%s', %s, '%s', '%s', 'Unmatched', '%s')",
			e.id, escapeSQL(e.portal), escapeSQL(e.invoiceNumber), escapeSQL(e.buyer),
			e.total.StringFixed(2), escapeSQL(e.currency), escapeSQL(e.portalStatus),
			e.lastSynced.Format(time.RFC3339))
	}
	b.WriteString("\nON CONFLICT (id) DO NOTHING;\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func cellVal(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
