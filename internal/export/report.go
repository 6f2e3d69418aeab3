package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

var Header = []string{"Student ID", "Name", "Average Score", "Variance", "Rank", "Inversion Count"}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func WriteJSON(w io.Writer, rows []models.AnalysisRow) error {
	if rows == nil {
		rows = []models.AnalysisRow{}
	}
	return json.NewEncoder(w).Encode(rows)
}

// WriteCSV writes rows with averages and variances rounded to two decimals.
func WriteCSV(w io.Writer, rows []models.AnalysisRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.StudentID,
			row.Name,
			formatFloat(row.AverageScore),
			formatFloat(row.Variance),
			strconv.Itoa(row.Rank),
			strconv.Itoa(row.InversionCount),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row for %s: %w", row.StudentID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same table as WriteCSV into a single-sheet workbook.
func WriteXLSX(w io.Writer, sheet string, rows []models.AnalysisRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Analysis"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	for i, h := range Header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for r, row := range rows {
		values := []interface{}{
			row.StudentID,
			row.Name,
			round2(row.AverageScore),
			round2(row.Variance),
			row.Rank,
			row.InversionCount,
		}
		for c, value := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
