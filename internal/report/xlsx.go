package report

import (
	"fmt"
	"io"

	"github.com/Amr-9/rrt/pkg/models"
	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet       = "Results"
	summarySheet       = "Summary"
	defaultColumnWidth = 18.0
	patternType        = "pattern"
	patternValue       = 1
	errorBgColor       = "#FFC7CE"
	warningBgColor     = "#FFEB9C"
	cancelledBgColor   = "#D9D9D9"
)

var excelHeaders = []string{
	"#", "Test", "Method", "URL", "Critical", "Expected", "Actual",
	"Time (ms)", "Time Class", "Outcome", "Failure", "Reason",
}

// WriteXLSX writes the summary as a workbook with a results sheet and a
// summary sheet.
func WriteXLSX(w io.Writer, summary *models.RunSummary) error {
	f, err := buildWorkbook(summary)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook to path.
func SaveXLSX(summary *models.RunSummary, path string) error {
	f, err := buildWorkbook(summary)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func buildWorkbook(summary *models.RunSummary) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeResults(f, summary); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeSummary(f, summary); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func fillStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    patternType,
			Pattern: patternValue,
			Color:   []string{color},
		},
	})
}

func writeResults(f *excelize.File, summary *models.RunSummary) error {
	errorStyle, err := fillStyle(f, errorBgColor)
	if err != nil {
		return err
	}
	warningStyle, err := fillStyle(f, warningBgColor)
	if err != nil {
		return err
	}
	cancelledStyle, err := fillStyle(f, cancelledBgColor)
	if err != nil {
		return err
	}

	last, _ := excelize.ColumnNumberToName(len(excelHeaders))
	if err := f.SetColWidth(resultsSheet, "A", last, defaultColumnWidth); err != nil {
		return err
	}

	for i, header := range excelHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(resultsSheet, cell, header); err != nil {
			return err
		}
	}

	for i, r := range summary.Results {
		row := i + 2
		actual := interface{}("")
		if r.Responded() {
			actual = r.Status
		}
		cells := []interface{}{
			r.Index + 1,
			r.Description,
			r.Method,
			r.URL,
			r.Critical,
			r.ExpectedStatus,
			actual,
			float64(r.Elapsed.Microseconds()) / 1000,
			string(r.TimeClass),
			string(r.Outcome),
			string(r.FailureKind),
			r.Reason,
		}

		style := 0
		switch {
		case r.Outcome == models.Failed:
			style = errorStyle
		case r.Outcome == models.Cancelled:
			style = cancelledStyle
		case r.TimeClass == models.Slow:
			style = warningStyle
		}

		for col, value := range cells {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(resultsSheet, cell, value); err != nil {
				return err
			}
			if style != 0 {
				if err := f.SetCellStyle(resultsSheet, cell, cell, style); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeSummary(f *excelize.File, summary *models.RunSummary) error {
	rows := [][]interface{}{
		{"API Address", summary.APIAddress},
		{"State", string(summary.State)},
		{"Started", summary.Started.Format("2006-01-02 15:04:05")},
		{"Duration (ms)", float64(summary.Duration.Microseconds()) / 1000},
		{"Total", summary.Tally.Total},
		{"Passed", summary.Tally.Passed},
		{"Failed", summary.Tally.Failed},
		{"Cancelled", summary.Tally.Cancelled},
		{"Timed Out", summary.Tally.TimedOut},
		{"Aborted By", summary.AbortedBy()},
		{"Min (ms)", float64(summary.Latency.Min.Microseconds()) / 1000},
		{"P50 (ms)", float64(summary.Latency.P50.Microseconds()) / 1000},
		{"P90 (ms)", float64(summary.Latency.P90.Microseconds()) / 1000},
		{"P99 (ms)", float64(summary.Latency.P99.Microseconds()) / 1000},
		{"Max (ms)", float64(summary.Latency.Max.Microseconds()) / 1000},
	}

	if err := f.SetColWidth(summarySheet, "A", "B", defaultColumnWidth); err != nil {
		return err
	}
	for i, row := range rows {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}
	return nil
}
