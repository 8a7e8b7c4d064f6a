package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bikeshare-analytics/internal/config"
	"bikeshare-analytics/internal/dataset"
	"bikeshare-analytics/internal/loader"
	"bikeshare-analytics/internal/models"
	"bikeshare-analytics/internal/services"
	"bikeshare-analytics/pkg/logging"
	"bikeshare-analytics/pkg/metrics"
)

// summary prints the dashboard for one date range without a server or database
func main() {
	csvPath := flag.String("csv", "", "CSV file to summarize (default: dataset.csv_path from config)")
	startDate := flag.String("start", "", "First day, YYYY-MM-DD (default: first day in the file)")
	endDate := flag.String("end", "", "Last day, YYYY-MM-DD (default: last day in the file)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	path := *csvPath
	if path == "" {
		path = cfg.Dataset.CSVPath
	}

	logger := logging.NewStructuredLogger("bikeshare-summary", "1.0.0", logging.WarnLevel)
	logger.SetOutput(os.Stderr)
	logger.SetFormat("console")

	metricsCollector := metrics.NewCollector("bikeshare_summary")

	ctx := context.Background()
	source := loader.NewCSVLoader(path, loader.ParseOptions{
		Columns:     cfg.Dataset.Columns,
		SkipInvalid: cfg.Dataset.SkipInvalidRows,
	}, logger, metricsCollector)

	ds, err := dataset.Load(ctx, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", path, err)
		os.Exit(1)
	}

	selection, err := resolveRange(ds.DefaultRange(), *startDate, *endDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid date: %v\n", err)
		os.Exit(2)
	}

	dashboard := services.NewDashboardService(ds, cfg.Dataset.TemperatureScale, logger, metricsCollector)
	summary, err := dashboard.Summary(ctx, selection)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot summarize %s: %v\n", selection, err)
		os.Exit(2)
	}

	render(os.Stdout, summary)
}

func resolveRange(defaults models.DateRange, start, end string) (models.DateRange, error) {
	var first, last time.Time
	if start != "" {
		day, err := models.ParseDay(start)
		if err != nil {
			return defaults, err
		}
		first = day
	}
	if end != "" {
		day, err := models.ParseDay(end)
		if err != nil {
			return defaults, err
		}
		last = day
	}
	return defaults.WithBounds(first, last), nil
}
