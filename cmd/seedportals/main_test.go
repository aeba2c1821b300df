package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseRows(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := [][]string{
		{"Portal", "Invoice Number", "Buyer", "Total", "Currency", "Portal Status"},
		{"Coupa", "INV-1", "O'Hara Foods", "1,250.5", "usd", "Approved"},
		{"coupa", "INV-1", "o'hara foods", "1250.50", "USD", "Approved"},
		{"Ariba", "INV-2", "Acme", "abc", "USD"},
		{"Ariba", "", "Acme", "10", "USD"},
		{"Ariba", "INV-3", "Acme", "10", "EURO"},
		{"Tungsten", "INV-4", "Acme", "99"},
	}

	entries, skipped, err := parseRows(rows, now)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 4, skipped)
	assert.Equal(t, "USD", entries[0].currency)
	assert.Equal(t, "1250.50", entries[0].total.StringFixed(2))
	assert.Equal(t, now, entries[0].lastSynced)
}

func TestParseRows_MissingColumn(t *testing.T) {
	_, _, err := parseRows([][]string{{"Portal", "Buyer"}}, time.Now())
	assert.ErrorContains(t, err, "invoice number")

	_, _, err = parseRows(nil, time.Now())
	assert.Error(t, err)
}

func TestRun_WritesIdempotentSQL(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "records.xlsx")
	out := filepath.Join(dir, "records.sql")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Portal", "Invoice Number", "Buyer", "Total", "Currency"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Coupa", "INV-9", "O'Hara", "12", "USD"}))
	require.NoError(t, f.SaveAs(in))
	require.NoError(t, f.Close())

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, run(in, out, "", now))
	first, err := os.ReadFile(out)
	require.NoError(t, err)

	sql := string(first)
	assert.True(t, strings.HasPrefix(sql, "-- Portal record seed data"))
	assert.Contains(t, sql, "'O''Hara'")
	assert.Contains(t, sql, "12.00")
	assert.Contains(t, sql, "'Unmatched'")
	assert.Contains(t, sql, "ON CONFLICT (id) DO NOTHING;")
	assert.Contains(t, sql, "COMMIT;")

	require.NoError(t, run(in, out, "", now))
	second, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}
