package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bikeshare-analytics/internal/config"
	"bikeshare-analytics/internal/loader"
	"bikeshare-analytics/internal/repository"
	"bikeshare-analytics/internal/services"
	"bikeshare-analytics/pkg/database"
	"bikeshare-analytics/pkg/logging"
	"bikeshare-analytics/pkg/metrics"
)

func main() {
	csvPath := flag.String("csv", "", "CSV file to import (default: dataset.csv_path from config)")
	batchSize := flag.Int("batch-size", services.DefaultBatchSize, "Number of rows written per transaction")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.ValidateDatabase(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	path := *csvPath
	if path == "" {
		path = cfg.Dataset.CSVPath
	}

	logger := logging.NewStructuredLogger("bikeshare-importer", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	logger.SetFormat(cfg.Logging.Format)

	ctx := context.Background()
	logger.Info(ctx, "[IMPORTER_START] Starting rental import", logging.Fields{
		"version":    "1.0.0",
		"csv":        path,
		"batch_size": *batchSize,
	})

	metricsCollector := metrics.NewCollector("bikeshare_importer")

	db, err := database.NewPostgresDB(ctx, cfg.Database.Connection(), logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[IMPORTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	rentalRepo := repository.NewRentalRepository(db, logger, metricsCollector)
	importService := services.NewImportService(rentalRepo, logger, metricsCollector)

	result, err := importService.ImportFile(ctx, path, loader.ParseOptions{Columns: cfg.Dataset.Columns}, *batchSize)
	if err != nil {
		logger.Error(ctx, "[IMPORT_ERROR] Import failed", logging.Fields{
			"csv": path,
		}, err)
		db.Close()
		os.Exit(1)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("IMPORT COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Source File:     %s\n", path)
	fmt.Printf("Total Rows:      %d\n", result.TotalRows)
	fmt.Printf("Imported Rows:   %d\n", result.Imported)
	fmt.Printf("Rejected Rows:   %d\n", result.Rejected)
	fmt.Printf("Batches:         %d\n", result.Batches)
	fmt.Printf("Stored Before:   %d\n", result.StoredBefore)
	fmt.Printf("Stored After:    %d\n", result.StoredAfter)
	if result.StoredSpan != nil {
		fmt.Printf("Stored Span:     %s (%d days)\n", result.StoredSpan, result.StoredSpan.Days())
	}
	fmt.Printf("Duration:        %v\n", result.Duration)
	if secs := result.Duration.Seconds(); secs > 0 {
		fmt.Printf("Rows/Second:     %.2f\n", float64(result.Imported)/secs)
	}

	if len(result.Errors) > 0 {
		fmt.Printf("\nRejected rows (%d):\n", len(result.Errors))
		for i, errMsg := range result.Errors {
			if i < 10 {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
		if len(result.Errors) > 10 {
			fmt.Printf("  ... and %d more\n", len(result.Errors)-10)
		}
	}

	logger.Info(ctx, "[IMPORTER_COMPLETE] Import completed successfully", logging.Fields{
		"total_rows":       result.TotalRows,
		"imported":         result.Imported,
		"rejected":         result.Rejected,
		"duration_seconds": result.Duration.Seconds(),
	})
}
