package paymentreport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"payops/internal/domain"
)

// Sheet is the tabular content of an uploaded report.
type Sheet struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"-"`
}

// ParseOptions bounds what Parse accepts.
type ParseOptions struct {
	// MaxRows rejects reports with more data rows. Zero means unlimited.
	MaxRows  int
	Progress ProgressFunc
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse reads a CSV, XLSX or XLS report. The first non-blank row is the header row; blank
// data rows are dropped. Only the first worksheet of a workbook is read.
func Parse(data []byte, format domain.ReportFormat, opts ParseOptions) (*Sheet, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case domain.ReportFormatCSV:
		records, err = readCSV(data)
	case domain.ReportFormatXLSX:
		records, err = readXLSX(data)
	case domain.ReportFormatXLS:
		records, err = readXLS(data)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, format)
	}
	if err != nil {
		return nil, err
	}
	return buildSheet(records, opts)
}

func buildSheet(records [][]string, opts ParseOptions) (*Sheet, error) {
	start := 0
	for start < len(records) && isBlank(records[start]) {
		start++
	}
	if start >= len(records) {
		return nil, domain.ErrEmptyReport
	}

	headers := make([]string, len(records[start]))
	for i, h := range records[start] {
		headers[i] = strings.TrimSpace(h)
	}

	body := records[start+1:]
	sheet := &Sheet{Headers: headers, Rows: make([]Row, 0, len(body))}
	for i, rec := range body {
		if isBlank(rec) {
			continue
		}
		if opts.MaxRows > 0 && len(sheet.Rows) >= opts.MaxRows {
			return nil, fmt.Errorf("%w: limit is %d", domain.ErrTooManyRows, opts.MaxRows)
		}
		row := make(Row, len(headers))
		for c, h := range headers {
			if h == "" {
				continue
			}
			if _, dup := row[h]; dup {
				continue
			}
			if c < len(rec) {
				row[h] = strings.TrimSpace(rec[c])
			} else {
				row[h] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, row)
		if opts.Progress != nil && ((i+1)%progressStep == 0 || i+1 == len(body)) {
			opts.Progress(i+1, len(body))
		}
	}
	if len(sheet.Rows) == 0 {
		return nil, domain.ErrEmptyReport
	}
	return sheet, nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv: %v", domain.ErrMalformedReport, err)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx: %v", domain.ErrMalformedReport, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.ErrEmptyReport
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx sheet %q: %v", domain.ErrMalformedReport, sheets[0], err)
	}
	return rows, nil
}

func readXLS(data []byte) (records [][]string, err error) {
	// The BIFF reader panics on malformed input instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, fmt.Errorf("%w: xls: %v", domain.ErrMalformedReport, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: xls: %v", domain.ErrMalformedReport, err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, domain.ErrEmptyReport
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for c := range cells {
			cells[c] = row.Col(c)
		}
		records = append(records, cells)
	}
	return records, nil
}

// xlsRow returns nil for rows missing from a sparse sheet, where WorkSheet.Row panics.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// DetectFormat maps a file name to a report format by extension.
func DetectFormat(filename string) (domain.ReportFormat, error) {
	dot := strings.LastIndexByte(filename, '.')
	if dot < 0 {
		return "", fmt.Errorf("%w: missing extension", domain.ErrUnsupportedFileType)
	}
	ext := strings.ToLower(filename[dot+1:])
	format, ok := domain.AllowedReportExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: .%s", domain.ErrUnsupportedFileType, ext)
	}
	return format, nil
}

// ReadAll reads at most limit bytes from r, failing with ErrFileTooLarge beyond that.
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, domain.ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", domain.ErrEmptyReport)
	}
	return data, nil
}
