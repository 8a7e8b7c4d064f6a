package analytics

import (
	"time"

	"bikeshare-analytics/internal/models"
)

// Dated is anything observed on a calendar day
type Dated interface {
	ObservedOn() time.Time
}

// Filter returns the records whose day lies within r, inclusive on both ends,
// in their original order. The input slice is never modified.
func Filter[T Dated](records []T, r models.DateRange) ([]T, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	out := make([]T, 0)
	for _, rec := range records {
		if r.Contains(rec.ObservedOn()) {
			out = append(out, rec)
		}
	}
	return out, nil
}
