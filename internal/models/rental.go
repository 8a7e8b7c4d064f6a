package models

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// DateLayout is the calendar-day layout used by the dataset and the API
const DateLayout = "2006-01-02"

// RentalRecord represents one hourly observation of rental activity and conditions.
// Records are immutable once loaded.
type RentalRecord struct {
	Date             time.Time `json:"date" db:"dteday"`
	Hour             int       `json:"hour" db:"hr"`
	IsWorkingDay     bool      `json:"is_working_day" db:"workingday"`
	TemperatureRatio float64   `json:"temperature_ratio" db:"temp"`
	WindSpeedRatio   float64   `json:"wind_speed_ratio" db:"windspeed"`
	CasualCount      int       `json:"casual_count" db:"casual"`
	RegisteredCount  int       `json:"registered_count" db:"registered"`
	TotalCount       int       `json:"total_count" db:"cnt"`
}

// Day returns the calendar day of the record
func (r RentalRecord) Day() time.Time {
	return CalendarDay(r.Date)
}

// Validate checks the record's field domains and the count invariant.
// Failures are ValidationErrors wrapping ErrInvalidInput.
func (r RentalRecord) Validate() error {
	if r.Date.IsZero() {
		return NewInputError("date", "", "date is required")
	}

	if r.Hour < 0 || r.Hour > 23 {
		return NewInputError("hour", strconv.Itoa(r.Hour), "hour must be between 0 and 23")
	}

	if err := validateRatio("temperature_ratio", r.TemperatureRatio); err != nil {
		return err
	}

	if err := validateRatio("wind_speed_ratio", r.WindSpeedRatio); err != nil {
		return err
	}

	if r.CasualCount < 0 {
		return NewInputError("casual_count", strconv.Itoa(r.CasualCount), "casual count must not be negative")
	}

	if r.RegisteredCount < 0 {
		return NewInputError("registered_count", strconv.Itoa(r.RegisteredCount), "registered count must not be negative")
	}

	if r.TotalCount != r.CasualCount+r.RegisteredCount {
		return NewInputError("total_count", strconv.Itoa(r.TotalCount),
			fmt.Sprintf("total count %d does not equal casual %d + registered %d", r.TotalCount, r.CasualCount, r.RegisteredCount))
	}

	return nil
}

func validateRatio(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return NewInputError(field, strconv.FormatFloat(v, 'f', -1, 64), field+" must be a normalized value between 0 and 1")
	}
	return nil
}

// CalendarDay truncates t to midnight UTC of its own calendar date
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD calendar day
func ParseDay(s string) (time.Time, error) {
	day, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, NewInputError("date", s, "invalid date format, expected YYYY-MM-DD")
	}
	return day, nil
}
