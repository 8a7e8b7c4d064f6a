// Package loader reads rental records from their external sources: the
// hourly CSV export and the hourly_rentals PostgreSQL table.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"

	"bikeshare-analytics/internal/config"
	"bikeshare-analytics/internal/models"
	"bikeshare-analytics/pkg/logging"
	"bikeshare-analytics/pkg/metrics"
)

// ErrMissingColumn is returned when a required CSV column is absent
var ErrMissingColumn = errors.New("missing column")

// RowError reports a rejected source row. Rows are numbered from 1, excluding the header.
type RowError struct {
	Row int
	Err *models.ValidationError
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Err.Field, e.Err.Message)
}

// Unwrap exposes the ValidationError so errors.Is matches ErrInvalidInput
func (e *RowError) Unwrap() error {
	return e.Err
}

// Report summarizes one parse
type Report struct {
	Rows     int
	Accepted int
	Rejected []*RowError
}

// ParseOptions controls CSV parsing
type ParseOptions struct {
	Columns config.ColumnsConfig
	// SkipInvalid collects rejected rows in the report instead of failing on the first one
	SkipInvalid bool
}

// resolvedColumns are the header names actually used after fallbacks
type resolvedColumns struct {
	date, hour, workingDay, temperature, windSpeed, casual, registered, total string
}

// ParseCSV reads hourly rental rows from r
func ParseCSV(r io.Reader, opts ParseOptions) ([]models.RentalRecord, *Report, error) {
	// every column is read as a string so rejected cells can be reported verbatim
	df := dataframe.ReadCSV(r, dataframe.DetectTypes(false), dataframe.HasHeader(true))
	if df.Err != nil {
		return nil, nil, fmt.Errorf("failed to read csv: %w", df.Err)
	}

	cols, err := resolveColumns(df.Names(), opts.Columns)
	if err != nil {
		return nil, nil, err
	}

	columns := map[string][]string{}
	for _, name := range []string{cols.date, cols.hour, cols.workingDay, cols.temperature,
		cols.windSpeed, cols.casual, cols.registered, cols.total} {
		columns[name] = df.Col(name).Records()
	}

	report := &Report{Rows: df.Nrow()}
	records := make([]models.RentalRecord, 0, df.Nrow())

	for i := 0; i < df.Nrow(); i++ {
		record, vErr := parseRow(columns, cols, i)
		if vErr == nil {
			if err := record.Validate(); err != nil {
				errors.As(err, &vErr)
			}
		}

		if vErr != nil {
			rowErr := &RowError{Row: i + 1, Err: vErr}
			if !opts.SkipInvalid {
				return nil, nil, rowErr
			}
			report.Rejected = append(report.Rejected, rowErr)
			continue
		}

		records = append(records, record)
	}

	report.Accepted = len(records)
	return records, report, nil
}

func resolveColumns(header []string, c config.ColumnsConfig) (resolvedColumns, error) {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	pick := func(names ...string) (string, error) {
		for _, n := range names {
			if n != "" && present[n] {
				return n, nil
			}
		}
		return "", fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(nonEmpty(names), " or "))
	}

	var (
		out resolvedColumns
		err error
	)
	if out.date, err = pick(c.Date); err != nil {
		return out, err
	}
	if out.hour, err = pick(c.Hour); err != nil {
		return out, err
	}
	if out.workingDay, err = pick(c.WorkingDay); err != nil {
		return out, err
	}
	if out.temperature, err = pick(c.Temperature, c.TemperatureFallback); err != nil {
		return out, err
	}
	if out.windSpeed, err = pick(c.WindSpeed, c.WindSpeedFallback); err != nil {
		return out, err
	}
	if out.casual, err = pick(c.Casual); err != nil {
		return out, err
	}
	if out.registered, err = pick(c.Registered); err != nil {
		return out, err
	}
	if out.total, err = pick(c.Total); err != nil {
		return out, err
	}
	return out, nil
}

func nonEmpty(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

func parseRow(columns map[string][]string, cols resolvedColumns, i int) (models.RentalRecord, *models.ValidationError) {
	var (
		record models.RentalRecord
		vErr   *models.ValidationError
	)

	cell := func(name string) string {
		return strings.TrimSpace(columns[name][i])
	}

	day, err := models.ParseDay(cell(cols.date))
	if err != nil {
		errors.As(err, &vErr)
		return record, vErr
	}
	record.Date = day

	ints := []struct {
		field string
		col   string
		dst   *int
	}{
		{"hour", cols.hour, &record.Hour},
		{"casual_count", cols.casual, &record.CasualCount},
		{"registered_count", cols.registered, &record.RegisteredCount},
		{"total_count", cols.total, &record.TotalCount},
	}
	for _, f := range ints {
		v, err := strconv.Atoi(cell(f.col))
		if err != nil {
			return record, models.NewInputError(f.field, cell(f.col), f.field+" must be an integer")
		}
		*f.dst = v
	}

	floats := []struct {
		field string
		col   string
		dst   *float64
	}{
		{"temperature_ratio", cols.temperature, &record.TemperatureRatio},
		{"wind_speed_ratio", cols.windSpeed, &record.WindSpeedRatio},
	}
	for _, f := range floats {
		v, err := strconv.ParseFloat(cell(f.col), 64)
		if err != nil {
			return record, models.NewInputError(f.field, cell(f.col), f.field+" must be a number")
		}
		*f.dst = v
	}

	wd, err := strconv.ParseBool(cell(cols.workingDay))
	if err != nil {
		return record, models.NewInputError("is_working_day", cell(cols.workingDay), "working day flag must be 0 or 1")
	}
	record.IsWorkingDay = wd

	return record, nil
}

// CSVLoader loads the dataset from a CSV file on disk
type CSVLoader struct {
	path    string
	opts    ParseOptions
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewCSVLoader creates a loader for the file at path
func NewCSVLoader(path string, opts ParseOptions, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CSVLoader {
	return &CSVLoader{
		path:    path,
		opts:    opts,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Load reads and validates every row of the file
func (l *CSVLoader) Load(ctx context.Context) ([]models.RentalRecord, error) {
	start := time.Now()

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", l.path, err)
	}
	defer f.Close()

	records, report, err := ParseCSV(f, l.opts)
	if err != nil {
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			l.metrics.RecordRejectedRow(rowErr.Err.Field)
		}
		l.logger.Error(ctx, "[CSV_LOAD_ERROR] Failed to parse dataset", logging.Fields{
			"path": l.path,
		}, err)
		return nil, err
	}

	for _, rejected := range report.Rejected {
		l.metrics.RecordRejectedRow(rejected.Err.Field)
		l.logger.Warn(ctx, "[CSV_ROW_REJECTED] Skipping invalid row", logging.Fields{
			"row":   rejected.Row,
			"field": rejected.Err.Field,
			"value": rejected.Err.Value,
		})
	}

	l.logger.Info(ctx, "[CSV_LOAD] Dataset file parsed", logging.Fields{
		"path":        l.path,
		"rows":        report.Rows,
		"accepted":    report.Accepted,
		"rejected":    len(report.Rejected),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return records, nil
}
