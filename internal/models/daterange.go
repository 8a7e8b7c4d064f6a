package models

import (
	"fmt"
	"time"
)

// DateRange is an inclusive, closed interval of calendar days
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange normalizes both bounds to calendar days and validates start <= end
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: CalendarDay(start), End: CalendarDay(end)}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Validate returns an ErrInvalidRange error when start is after end
func (r DateRange) Validate() error {
	if CalendarDay(r.Start).After(CalendarDay(r.End)) {
		return NewRangeError(r.String(), fmt.Sprintf("start date %s is after end date %s",
			r.Start.Format(DateLayout), r.End.Format(DateLayout)))
	}
	return nil
}

// Contains reports whether the calendar day of t lies within the range, inclusive on both ends
func (r DateRange) Contains(t time.Time) bool {
	day := CalendarDay(t)
	return !day.Before(CalendarDay(r.Start)) && !day.After(CalendarDay(r.End))
}

// Clamp narrows the range to the given bounds.
// An inverted range is returned as is so the caller still sees ErrInvalidRange.
// A range entirely outside bounds collapses to an empty interval just past bounds.End.
func (r DateRange) Clamp(bounds DateRange) DateRange {
	if r.Start.After(r.End) {
		return r
	}

	out := r
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}

	if out.Start.After(out.End) {
		// disjoint with bounds: keep an ordered range that matches nothing
		edge := bounds.End.AddDate(0, 0, 1)
		if r.End.Before(bounds.Start) {
			edge = bounds.Start.AddDate(0, 0, -1)
		}
		return DateRange{Start: edge, End: edge}
	}

	return out
}

// WithBounds replaces the non-zero bounds of r. When only one bound is given
// and it lies past the other default bound, the range collapses to that day.
func (r DateRange) WithBounds(start, end time.Time) DateRange {
	out := r
	if !start.IsZero() {
		out.Start = start
	}
	if !end.IsZero() {
		out.End = end
	}

	switch {
	case end.IsZero() && out.End.Before(out.Start):
		out.End = out.Start
	case start.IsZero() && out.Start.After(out.End):
		out.Start = out.End
	}
	return out
}

// Days returns the number of calendar days covered by the range
func (r DateRange) Days() int {
	if r.Start.After(r.End) {
		return 0
	}
	return int(CalendarDay(r.End).Sub(CalendarDay(r.Start)).Hours()/24) + 1
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}
