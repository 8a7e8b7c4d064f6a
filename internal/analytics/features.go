// Package analytics holds the derivation and aggregation pipeline that turns
// hourly rental records into the grouped statistics behind the dashboard.
// Everything here is pure: no I/O, no shared state.
package analytics

import (
	"math"
	"strconv"
	"time"

	"bikeshare-analytics/internal/models"
)

// timeBlockRule maps the closed hour interval [From, To] to a block
type timeBlockRule struct {
	From, To int
	Block    models.TimeBlock
}

// timeBlockRules is ordered by hour and partitions 0-23 with no gap or overlap
var timeBlockRules = []timeBlockRule{
	{From: 0, To: 4, Block: models.Night},
	{From: 5, To: 9, Block: models.MorningCommute},
	{From: 10, To: 15, Block: models.MiddayLeisure},
	{From: 16, To: 19, Block: models.EveningCommute},
	{From: 20, To: 23, Block: models.Night},
}

// windRule maps ratios below Below (and at or above the previous rule's bound) to a category
type windRule struct {
	Below    float64
	Category models.WindCategory
}

// windRules is ordered by bound; the last rule is unbounded
var windRules = []windRule{
	{Below: 0.15, Category: models.WindLow},
	{Below: 0.30, Category: models.WindModerate},
	{Below: 0.45, Category: models.WindHigh},
	{Below: math.Inf(1), Category: models.WindExtreme},
}

// DeriveTimeBlock maps an hour of day to its time block
func DeriveTimeBlock(hour int) (models.TimeBlock, error) {
	for _, rule := range timeBlockRules {
		if hour >= rule.From && hour <= rule.To {
			return rule.Block, nil
		}
	}
	return "", models.NewInputError("hour", strconv.Itoa(hour), "hour must be between 0 and 23")
}

// DeriveWindCategory maps a normalized wind speed to its severity band.
// Boundary values belong to the higher band.
func DeriveWindCategory(ratio float64) (models.WindCategory, error) {
	if math.IsNaN(ratio) || ratio < 0 {
		return "", models.NewInputError("wind_speed_ratio", strconv.FormatFloat(ratio, 'f', -1, 64),
			"wind speed ratio must not be negative")
	}

	for _, rule := range windRules {
		if ratio < rule.Below {
			return rule.Category, nil
		}
	}

	// +Inf is not below the last bound
	return windRules[len(windRules)-1].Category, nil
}

// LabeledRecord is a record together with its derived category labels
type LabeledRecord struct {
	models.RentalRecord
	TimeBlock    models.TimeBlock    `json:"time_block"`
	WindCategory models.WindCategory `json:"wind_category"`
}

// ObservedOn returns the calendar day of the record
func (r LabeledRecord) ObservedOn() time.Time {
	return r.Day()
}

// Label derives the category labels of a single record
func Label(record models.RentalRecord) (LabeledRecord, error) {
	block, err := DeriveTimeBlock(record.Hour)
	if err != nil {
		return LabeledRecord{}, err
	}

	wind, err := DeriveWindCategory(record.WindSpeedRatio)
	if err != nil {
		return LabeledRecord{}, err
	}

	return LabeledRecord{RentalRecord: record, TimeBlock: block, WindCategory: wind}, nil
}

// LabelAll derives labels for every record, preserving order.
// It stops at the first record with an out-of-domain field.
func LabelAll(records []models.RentalRecord) ([]LabeledRecord, error) {
	labeled := make([]LabeledRecord, 0, len(records))
	for _, r := range records {
		lr, err := Label(r)
		if err != nil {
			return nil, err
		}
		labeled = append(labeled, lr)
	}
	return labeled, nil
}
