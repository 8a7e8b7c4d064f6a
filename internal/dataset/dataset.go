// Package dataset owns the immutable, labeled record set loaded once at startup.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"bikeshare-analytics/internal/analytics"
	"bikeshare-analytics/internal/models"
)

// ErrEmptyDataset is returned when a loader yields no records
var ErrEmptyDataset = errors.New("dataset contains no records")

// Loader supplies the full record set
type Loader interface {
	Load(ctx context.Context) ([]models.RentalRecord, error)
}

// LoaderFunc adapts a function to the Loader interface
type LoaderFunc func(ctx context.Context) ([]models.RentalRecord, error)

// Load calls f(ctx)
func (f LoaderFunc) Load(ctx context.Context) ([]models.RentalRecord, error) {
	return f(ctx)
}

// Dataset is the labeled record set and its observed date span.
// It is never modified after construction.
type Dataset struct {
	records []analytics.LabeledRecord
	span    models.DateRange
}

// Load runs the loader once and builds a Dataset from its output
func Load(ctx context.Context, loader Loader) (*Dataset, error) {
	records, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	return New(records)
}

// New validates and labels records, orders them by (date, hour) and computes the span.
// The caller's slice is not retained.
func New(records []models.RentalRecord) (*Dataset, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}

	labeled, err := analytics.LabelAll(records)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(labeled, func(i, j int) bool {
		di, dj := labeled[i].Day(), labeled[j].Day()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return labeled[i].Hour < labeled[j].Hour
	})

	return &Dataset{
		records: labeled,
		span: models.DateRange{
			Start: labeled[0].Day(),
			End:   labeled[len(labeled)-1].Day(),
		},
	}, nil
}

// Records returns the labeled records in (date, hour) order.
// The slice is shared; callers must treat it as read-only.
func (d *Dataset) Records() []analytics.LabeledRecord {
	return d.records
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.records)
}

// Span returns the observed [min date, max date] interval
func (d *Dataset) Span() models.DateRange {
	return d.span
}

// DefaultRange is the full observed span, the initial dashboard selection
func (d *Dataset) DefaultRange() models.DateRange {
	return d.span
}

// Clamp restricts a caller-supplied range to the observed span.
// An inverted range is left inverted so filtering still rejects it.
func (d *Dataset) Clamp(r models.DateRange) models.DateRange {
	return r.Clamp(d.span)
}

// Select clamps r to the span and returns the matching records
func (d *Dataset) Select(r models.DateRange) (models.DateRange, []analytics.LabeledRecord, error) {
	applied := d.Clamp(r)
	records, err := analytics.Filter(d.records, applied)
	if err != nil {
		return applied, nil, err
	}
	return applied, records, nil
}
