package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bikeshare-analytics/internal/models"
	"bikeshare-analytics/pkg/database"
	"bikeshare-analytics/pkg/logging"
	"bikeshare-analytics/pkg/metrics"
)

// RentalRepository provides data access for hourly rental records
type RentalRepository interface {
	ListRentals(ctx context.Context) ([]models.RentalRecord, error)
	DateSpan(ctx context.Context) (models.DateRange, error)
	Count(ctx context.Context) (int, error)
	UpsertRentalsBatch(ctx context.Context, records []models.RentalRecord) error

	HealthCheck(ctx context.Context) error
}

const rentalColumns = `dteday, hr, workingday, temp, windspeed, casual, registered, cnt`

const listRentalsQuery = `SELECT ` + rentalColumns + ` FROM hourly_rentals ORDER BY dteday, hr`

// rentalRepository implements RentalRepository
type rentalRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewRentalRepository creates a new rental repository
func NewRentalRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) RentalRepository {
	return &rentalRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ListRentals returns every stored record ordered by day and hour
func (r *rentalRepository) ListRentals(ctx context.Context) ([]models.RentalRecord, error) {
	var records []models.RentalRecord
	if err := r.db.SelectContext(ctx, "list_rentals", &records, listRentalsQuery); err != nil {
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}

	for i := range records {
		records[i].Date = models.CalendarDay(records[i].Date)
	}

	r.logger.Debug(ctx, "[REPO_LIST_RENTALS] Rentals listed", logging.Fields{
		"count": len(records),
	})

	return records, nil
}

// DateSpan returns the first and last stored day.
// An empty table yields a NotFoundError.
func (r *rentalRepository) DateSpan(ctx context.Context) (models.DateRange, error) {
	query := `SELECT MIN(dteday) AS first_day, MAX(dteday) AS last_day FROM hourly_rentals`

	var span struct {
		FirstDay sql.NullTime `db:"first_day"`
		LastDay  sql.NullTime `db:"last_day"`
	}

	if err := r.db.GetContext(ctx, "date_span", &span, query); err != nil {
		return models.DateRange{}, fmt.Errorf("failed to get date span: %w", err)
	}

	if !span.FirstDay.Valid || !span.LastDay.Valid {
		return models.DateRange{}, &NotFoundError{Resource: "hourly_rentals", ID: "date_span"}
	}

	return models.NewDateRange(span.FirstDay.Time, span.LastDay.Time)
}

// Count returns the number of stored records
func (r *rentalRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, "count_rentals", &count, `SELECT COUNT(*) FROM hourly_rentals`); err != nil {
		return 0, fmt.Errorf("failed to count rentals: %w", err)
	}
	return count, nil
}

// UpsertRentalsBatch writes records in one transaction, replacing rows with the same (dteday, hr)
func (r *rentalRepository) UpsertRentalsBatch(ctx context.Context, records []models.RentalRecord) error {
	if len(records) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		r.metrics.ImportBatchSize.Observe(float64(len(records)))
		r.logger.Debug(ctx, "[REPO_BATCH_UPSERT] Batch upsert completed", logging.Fields{
			"count":       len(records),
			"duration_ms": time.Since(timer).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO hourly_rentals (`+rentalColumns+`)
		VALUES (:dteday, :hr, :workingday, :temp, :windspeed, :casual, :registered, :cnt)
		ON CONFLICT (dteday, hr) DO UPDATE SET
			workingday = EXCLUDED.workingday,
			temp = EXCLUDED.temp,
			windspeed = EXCLUDED.windspeed,
			casual = EXCLUDED.casual,
			registered = EXCLUDED.registered,
			cnt = EXCLUDED.cnt,
			updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		if _, err := stmt.ExecContext(ctx, &records[i]); err != nil {
			r.metrics.RecordDBError("upsert_error")
			return fmt.Errorf("failed to upsert rental %s hour %d: %w",
				records[i].Day().Format(models.DateLayout), records[i].Hour, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.ImportRecordsTotal.Add(float64(len(records)))

	return nil
}

// HealthCheck performs a repository health check
func (r *rentalRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
