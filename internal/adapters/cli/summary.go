package cli

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

const summarySheet = "Summary"

type SummaryRow struct {
	File           string
	Kind           domain.SchemaKind
	ReportType     string
	FieldCount     int
	MeanConfidence float64
	UncertainCount int
	ErrorKind      string
}

// Summarize reduces each result to counts only. No extracted values are kept.
func Summarize(results []FileResult) []SummaryRow {
	rows := make([]SummaryRow, 0, len(results))
	for _, r := range results {
		row := SummaryRow{File: filepath.Base(r.Path), Kind: r.Kind}
		if r.Err != nil {
			row.ErrorKind = domain.KindOf(r.Err)
			rows = append(rows, row)
			continue
		}
		if r.Result.Report != nil {
			row.ReportType = r.Result.Report.ReportType
		}
		var total float64
		for _, score := range r.Result.Confidence {
			if score > 0 {
				row.FieldCount++
			}
			total += score
		}
		if n := len(r.Result.Confidence); n > 0 {
			row.MeanConfidence = total / float64(n)
		}
		row.UncertainCount = len(r.Result.UncertainFields)
		rows = append(rows, row)
	}
	return rows
}

// BuildSummaryWorkbook renders rows as an XLSX workbook.
func BuildSummaryWorkbook(rows []SummaryRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	index, err := f.GetSheetIndex(summarySheet)
	if err != nil {
		return nil, fmt.Errorf("find sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"File",
		"Kind",
		"Report Type",
		"Fields Present",
		"Mean Confidence",
		"Uncertain Fields",
		"Error Kind",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(summarySheet, cell, h)
	}

	for i, row := range rows {
		line := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, line)
			_ = f.SetCellValue(summarySheet, cell, v)
		}
		write(1, row.File)
		write(2, string(row.Kind))
		write(3, row.ReportType)
		if row.ErrorKind == "" {
			write(4, row.FieldCount)
			write(5, fmt.Sprintf("%.2f", row.MeanConfidence))
			write(6, row.UncertainCount)
		}
		write(7, row.ErrorKind)
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 36)
	_ = f.SetColWidth(summarySheet, "B", "C", 18)
	_ = f.SetColWidth(summarySheet, "D", "F", 16)
	_ = f.SetColWidth(summarySheet, "G", "G", 24)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
