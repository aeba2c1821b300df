package paymentreport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// TemplateSheet is the worksheet name of the XLSX template.
const TemplateSheet = "Payment Report"

// WriteTemplateXLSX writes the import template as a workbook: a bold header row with a
// comment on each column describing the field, frozen below the header.
func WriteTemplateXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TemplateSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	header := TemplateHeader()
	if err := f.SetSheetRow(TemplateSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E7EEF7"}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(TemplateSheet, "A1", last, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(TemplateSheet, "A", lastCol, 22); err != nil {
		return fmt.Errorf("setting column width: %w", err)
	}

	for i, field := range PaymentReportFields {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.AddComment(TemplateSheet, excelize.Comment{
			Author: "payops",
			Cell:   cell,
			Text:   fieldHint(field),
		}); err != nil {
			return fmt.Errorf("adding comment to %s: %w", cell, err)
		}
	}

	if err := f.SetPanes(TemplateSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	return f.Write(w)
}

func fieldHint(f Field) string {
	switch {
	case f.Required:
		return "Required. " + f.Description
	case f.ConditionallyRequired != "":
		return "Conditionally required. " + f.Description
	default:
		return "Optional."
	}
}
