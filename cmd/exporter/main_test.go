package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	rows := []models.AnalysisRow{{StudentID: "B1", Name: "Student_B1", AverageScore: 5, Rank: 1}}

	for _, format := range []string{"json", "csv", "xlsx"} {
		path := filepath.Join(dir, "report."+format)
		require.NoError(t, writeReport(path, format, "c1", rows), format)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0), format)
	}

	data, err := os.ReadFile(filepath.Join(dir, "report.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "B1,Student_B1,5.00,0.00,1,0")
}

func TestWriteReport_UnknownFormatLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")

	assert.Error(t, writeReport(path, "pdf", "c1", nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteReport_BadSheetNameRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	// sheet names cannot contain ':'
	assert.Error(t, writeReport(path, "xlsx", "bad:class", nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
