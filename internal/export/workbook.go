package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/gema-grader/internal/grading"
)

// SheetName is the worksheet holding the batch results.
const SheetName = "Results"

var headers = []interface{}{"Student Name", "Score", "Max Score", "Percentage", "Comments"}

// WorkbookExporter renders grading batches as xlsx workbooks.
type WorkbookExporter struct{}

// NewWorkbookExporter constructs the exporter.
func NewWorkbookExporter() *WorkbookExporter {
	return &WorkbookExporter{}
}

// Export writes one row per result, in batch order, below a header row.
func (e *WorkbookExporter) Export(batch grading.Batch) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := file.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if err := file.SetCellStyle(SheetName, "A1", "E1", style); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, result := range batch {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			result.StudentName,
			result.TotalScore,
			result.TotalMaxScore,
			Percentage(result.TotalScore, result.TotalMaxScore),
			Comments(result),
		}
		if err := file.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := file.SetColWidth(SheetName, "A", "A", 28); err != nil {
		return nil, err
	}
	if err := file.SetColWidth(SheetName, "E", "E", 80); err != nil {
		return nil, err
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Percentage renders score/max as a rounded percent string; a zero max yields "0%".
func Percentage(score, max float64) string {
	if max <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%%", int(math.Round(score/max*100)))
}

// Comments joins the per-question comments of a result with "; ".
func Comments(result grading.GradeResult) string {
	comments := make([]string, 0, len(result.Questions))
	for _, q := range result.Questions {
		comments = append(comments, q.Comment)
	}
	return strings.Join(comments, "; ")
}
