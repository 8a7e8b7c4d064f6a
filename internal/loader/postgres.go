package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bikeshare-analytics/internal/models"
	"bikeshare-analytics/internal/repository"
	"bikeshare-analytics/pkg/logging"
	"bikeshare-analytics/pkg/metrics"
)

// PostgresLoader loads the dataset from the hourly_rentals table
type PostgresLoader struct {
	repo        repository.RentalRepository
	skipInvalid bool
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
}

// NewPostgresLoader creates a loader backed by repo
func NewPostgresLoader(repo repository.RentalRepository, skipInvalid bool, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *PostgresLoader {
	return &PostgresLoader{
		repo:        repo,
		skipInvalid: skipInvalid,
		logger:      logger,
		metrics:     metricsCollector,
	}
}

// Load reads every stored row and validates it like a CSV row
func (l *PostgresLoader) Load(ctx context.Context) ([]models.RentalRecord, error) {
	start := time.Now()

	rows, err := l.repo.ListRentals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read rentals: %w", err)
	}

	records := make([]models.RentalRecord, 0, len(rows))
	rejected := 0

	for i, row := range rows {
		if err := row.Validate(); err != nil {
			var vErr *models.ValidationError
			if !errors.As(err, &vErr) {
				return nil, err
			}
			rowErr := &RowError{Row: i + 1, Err: vErr}
			l.metrics.RecordRejectedRow(vErr.Field)

			if !l.skipInvalid {
				return nil, rowErr
			}
			rejected++
			l.logger.Warn(ctx, "[PG_ROW_REJECTED] Skipping invalid row", logging.Fields{
				"date":  row.Day().Format(models.DateLayout),
				"hour":  row.Hour,
				"field": vErr.Field,
			})
			continue
		}
		records = append(records, row)
	}

	l.logger.Info(ctx, "[PG_LOAD] Dataset rows read", logging.Fields{
		"rows":        len(rows),
		"accepted":    len(records),
		"rejected":    rejected,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return records, nil
}
