package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/peerbulle/internal/app"
	"github.com/shrimpsizemoose/peerbulle/internal/export"
	"github.com/shrimpsizemoose/peerbulle/internal/models"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "Path to config file")
		class      = flag.String("class", "", "Class to analyze")
		round      = flag.Int("round", -1, "Round to analyze, 0 for all rounds (default from config)")
		group      = flag.Int("group", -1, "Only count ratings from this reviewer group")
		format     = flag.String("format", "csv", "Output format: json, csv or xlsx")
		outDir     = flag.String("out", ".", "Directory to write the report to")
	)
	flag.Parse()

	if *class == "" {
		logger.Error.Fatalf("Class is required, use -class")
	}

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	req := models.AnalysisRequest{ClassID: *class, Round: service.Config.Analysis.DefaultRound}
	if *round >= 0 {
		req.Round = *round
	}
	if *group >= 0 {
		req.ReviewerGroup = group
	}

	rows, err := service.Analyze(context.Background(), req)
	if err != nil {
		logger.Error.Fatalf("Failed to analyze class %s: %v", *class, err)
	}

	path := filepath.Join(*outDir, fmt.Sprintf("%s_round%d_analysis.%s", *class, req.Round, *format))
	if err := writeReport(path, *format, *class, rows); err != nil {
		logger.Error.Fatalf("Failed to export report: %v", err)
	}

	logger.Info.Printf("Exported %d rows to %s", len(rows), path)
}

func writeReport(path, format, class string, rows []models.AnalysisRow) error {
	var write func(io.Writer) error
	switch format {
	case "json":
		write = func(w io.Writer) error { return export.WriteJSON(w, rows) }
	case "csv":
		write = func(w io.Writer) error { return export.WriteCSV(w, rows) }
	case "xlsx":
		write = func(w io.Writer) error { return export.WriteXLSX(w, class, rows) }
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
