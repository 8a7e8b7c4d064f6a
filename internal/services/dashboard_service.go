package services

import (
	"context"
	"errors"
	"time"

	"bikeshare-analytics/internal/analytics"
	"bikeshare-analytics/internal/dataset"
	"bikeshare-analytics/internal/models"
	"bikeshare-analytics/pkg/logging"
	"bikeshare-analytics/pkg/metrics"
)

// Recompute outcomes reported to metrics
const (
	OutcomeOK           = "ok"
	OutcomeInvalidRange = "invalid_range"
	OutcomeError        = "error"
)

// Charts holds the series a renderer draws
type Charts struct {
	TimeBlocks     []models.TimeBlockMean    `json:"time_blocks"`
	WindCategories []models.WindCategoryMean `json:"wind_categories"`
	Hourly         []models.HourlyPoint      `json:"hourly"`
	Composition    []models.CompositionSlice `json:"composition"`
}

// Summary is the complete dashboard state for one date range
type Summary struct {
	RequestedRange models.DateRange       `json:"requested_range"`
	AppliedRange   models.DateRange       `json:"applied_range"`
	RecordCount    int                    `json:"record_count"`
	Aggregate      models.AggregateResult `json:"aggregate"`
	Charts         Charts                 `json:"charts"`
	Headlines      []Headline             `json:"headlines"`
	ComputedAt     time.Time              `json:"computed_at"`
}

// DatasetInfo describes the loaded dataset
type DatasetInfo struct {
	Span         models.DateRange `json:"span"`
	DefaultRange models.DateRange `json:"default_range"`
	Records      int              `json:"records"`
	Days         int              `json:"days"`
}

// DashboardService recomputes the dashboard from the in-memory dataset.
// Every call is a full synchronous pass; the dataset is shared read-only.
type DashboardService struct {
	dataset    *dataset.Dataset
	aggregator *analytics.Aggregator
	logger     *logging.ContextLogger
	metrics    *metrics.Collector
}

// NewDashboardService creates a dashboard service over ds
func NewDashboardService(ds *dataset.Dataset, temperatureScale float64, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DashboardService {
	return &DashboardService{
		dataset:    ds,
		aggregator: analytics.NewAggregator(temperatureScale),
		logger:     logger.WithFields(logging.Fields{"component": "dashboard"}),
		metrics:    metricsCollector,
	}
}

// DatasetInfo returns the span and size of the loaded dataset
func (s *DashboardService) DatasetInfo() DatasetInfo {
	span := s.dataset.Span()
	return DatasetInfo{
		Span:         span,
		DefaultRange: s.dataset.DefaultRange(),
		Records:      s.dataset.Len(),
		Days:         span.Days(),
	}
}

// DefaultRange is the selection used when the caller gives no bounds
func (s *DashboardService) DefaultRange() models.DateRange {
	return s.dataset.DefaultRange()
}

// Summary clamps r to the dataset span, filters, aggregates and formats the result.
// An inverted range fails with models.ErrInvalidRange.
func (s *DashboardService) Summary(ctx context.Context, r models.DateRange) (*Summary, error) {
	timer := s.metrics.NewTimer(s.metrics.RecomputeDuration)

	applied, records, err := s.dataset.Select(r)
	if err != nil {
		outcome := OutcomeError
		if errors.Is(err, models.ErrInvalidRange) {
			outcome = OutcomeInvalidRange
		}
		s.metrics.RecordRecompute(outcome, 0)
		s.logger.Warn(ctx, "[DASHBOARD_REJECTED] Date range rejected", logging.Fields{
			"requested": r.String(),
			"outcome":   outcome,
			"error":     err.Error(),
		})
		return nil, err
	}

	result := s.aggregator.Aggregate(records)

	summary := &Summary{
		RequestedRange: r,
		AppliedRange:   applied,
		RecordCount:    len(records),
		Aggregate:      result,
		Charts: Charts{
			TimeBlocks:     result.TimeBlocks,
			WindCategories: result.WindCategories,
			Hourly:         analytics.HourlyProfile(records),
			Composition:    analytics.Composition(result),
		},
		Headlines:  FormatHeadlines(result),
		ComputedAt: time.Now().UTC(),
	}

	duration := timer.ObserveDuration()
	s.metrics.RecordRecompute(OutcomeOK, len(records))

	s.logger.Debug(ctx, "[DASHBOARD_RECOMPUTE] Summary computed", logging.Fields{
		"requested":     r.String(),
		"applied":       applied.String(),
		"records":       len(records),
		"total_rentals": result.TotalRentals,
		"duration_us":   duration.Microseconds(),
	})

	return summary, nil
}
