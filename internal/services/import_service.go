package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"bikeshare-analytics/internal/loader"
	"bikeshare-analytics/internal/models"
	"bikeshare-analytics/internal/repository"
	"bikeshare-analytics/pkg/logging"
	"bikeshare-analytics/pkg/metrics"
)

// DefaultBatchSize is the number of rows written per transaction
const DefaultBatchSize = 1000

// ImportService copies the hourly CSV export into PostgreSQL
type ImportService struct {
	repo    repository.RentalRepository
	logger  *logging.ContextLogger
	metrics *metrics.Collector
}

// ImportResult contains import statistics
type ImportResult struct {
	TotalRows    int
	Imported     int
	Rejected     int
	Batches      int
	StoredBefore int
	StoredAfter  int
	StoredSpan   *models.DateRange
	Duration     time.Duration
	Errors       []string
}

// NewImportService creates a new import service
func NewImportService(repo repository.RentalRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ImportService {
	return &ImportService{
		repo:    repo,
		logger:  logger.WithFields(logging.Fields{"component": "import"}),
		metrics: metricsCollector,
	}
}

// ImportFile parses the CSV at path and upserts valid rows in batches.
// Invalid rows are skipped and listed in the result.
func (s *ImportService) ImportFile(ctx context.Context, path string, opts loader.ParseOptions, batchSize int) (*ImportResult, error) {
	startTime := time.Now()
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	s.logger.Info(ctx, "[IMPORT_START] Starting rental import", logging.Fields{
		"path":       path,
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	before, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count stored rentals: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		s.metrics.RecordImportError("file_error")
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	opts.SkipInvalid = true

	records, report, err := loader.ParseCSV(file, opts)
	if err != nil {
		s.metrics.RecordImportError("parse_error")
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	result := &ImportResult{
		TotalRows:    report.Rows,
		Rejected:     len(report.Rejected),
		StoredBefore: before,
		Errors:       make([]string, 0, len(report.Rejected)),
	}

	for _, rejected := range report.Rejected {
		s.metrics.RecordImportError("validation_error")
		result.Errors = append(result.Errors, rejected.Error())
	}

	for _, batch := range batches(records, batchSize) {
		if err := s.repo.UpsertRentalsBatch(ctx, batch); err != nil {
			s.metrics.RecordImportError("batch_error")
			s.logger.Error(ctx, "[IMPORT_BATCH_ERROR] Batch upsert failed", logging.Fields{
				"batch":    result.Batches + 1,
				"imported": result.Imported,
				"stage":    "BATCH_WRITE",
			}, err)
			return result, fmt.Errorf("failed to upsert batch %d: %w", result.Batches+1, err)
		}
		result.Batches++
		result.Imported += len(batch)
	}

	after, err := s.repo.Count(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to count stored rentals: %w", err)
	}
	result.StoredAfter = after

	span, err := s.repo.DateSpan(ctx)
	var notFound *repository.NotFoundError
	switch {
	case errors.As(err, &notFound):
		// nothing stored yet
	case err != nil:
		return result, fmt.Errorf("failed to read stored date span: %w", err)
	default:
		result.StoredSpan = &span
	}
	result.Duration = time.Since(startTime)

	s.logger.Info(ctx, "[IMPORT_COMPLETE] Rental import completed", logging.Fields{
		"total_rows":       result.TotalRows,
		"imported":         result.Imported,
		"rejected":         result.Rejected,
		"batches":          result.Batches,
		"stored_before":    result.StoredBefore,
		"stored_after":     result.StoredAfter,
		"stored_span":      storedSpanText(result.StoredSpan),
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

func storedSpanText(span *models.DateRange) string {
	if span == nil {
		return "empty"
	}
	return span.String()
}

// batches splits records into consecutive chunks of at most size
func batches(records []models.RentalRecord, size int) [][]models.RentalRecord {
	out := make([][]models.RentalRecord, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		out = append(out, records[start:end])
	}
	return out
}
