package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/apvtools/signscan/internal/pipeline"
)

// header is the column layout shared by both output formats.
var header = []string{"filename", "predicted_class", "confidence", "swatch"}

// WriteCSV writes one row per crop to path, creating or truncating the
// file. Confidence is formatted with four decimals; crops that were not
// classified leave the class and confidence columns empty.
func WriteCSV(path string, results []pipeline.SignResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	for _, r := range results {
		if err := w.Write(row(r)); err != nil {
			return fmt.Errorf("failed to write report row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}

// WriteXLSX writes the same table as WriteCSV into a single-sheet XLSX
// workbook at path.
func WriteXLSX(path string, results []pipeline.SignResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Signs"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	set := func(col, rowNum int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, rowNum)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}

	for i, h := range header {
		if err := set(i+1, 1, h); err != nil {
			return fmt.Errorf("failed to write header cell: %w", err)
		}
	}
	for i, r := range results {
		for col, v := range row(r) {
			if err := set(col+1, i+2, v); err != nil {
				return fmt.Errorf("failed to write row cell: %w", err)
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 32)
	_ = f.SetColWidth(sheet, "B", "B", 24)
	_ = f.SetColWidth(sheet, "C", "D", 12)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func row(r pipeline.SignResult) []string {
	confidence := ""
	if r.PredictedClass != "" {
		confidence = strconv.FormatFloat(r.Confidence, 'f', 4, 64)
	}
	return []string{r.Filename, r.PredictedClass, confidence, r.Swatch}
}
