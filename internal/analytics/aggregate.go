package analytics

import (
	"gonum.org/v1/gonum/stat"

	"bikeshare-analytics/internal/models"
)

// DefaultTemperatureScale converts a normalized temperature ratio to degrees
// Celsius: the source dataset divides by a 41 °C span.
const DefaultTemperatureScale = 41.0

// accumulator is a running (sum, count) pair; merging two is associative
type accumulator struct {
	sum   int64
	count int
}

func (a *accumulator) add(v int) {
	a.sum += int64(v)
	a.count++
}

func (a accumulator) mean() float64 {
	if a.count == 0 {
		return 0
	}
	return float64(a.sum) / float64(a.count)
}

type timeBlockKey struct {
	block      models.TimeBlock
	workingDay bool
}

type hourKey struct {
	hour       int
	workingDay bool
}

// workingDayOrder puts non-working days first, matching the chart legend
var workingDayOrder = []bool{false, true}

// Aggregator reduces labeled records to an AggregateResult
type Aggregator struct {
	// TemperatureScale rescales the mean temperature ratio to a physical unit
	TemperatureScale float64
}

// NewAggregator creates an aggregator; a non-positive scale selects DefaultTemperatureScale
func NewAggregator(temperatureScale float64) *Aggregator {
	if temperatureScale <= 0 {
		temperatureScale = DefaultTemperatureScale
	}
	return &Aggregator{TemperatureScale: temperatureScale}
}

// Aggregate reduces records with the default temperature scale
func Aggregate(records []LabeledRecord) models.AggregateResult {
	return NewAggregator(DefaultTemperatureScale).Aggregate(records)
}

// Aggregate computes totals, the registered ratio, the mean temperature and the
// grouped means. The result does not depend on input order; an empty input
// yields zero totals, empty groups and no mean temperature.
func (a *Aggregator) Aggregate(records []LabeledRecord) models.AggregateResult {
	result := models.AggregateResult{
		RecordCount:    len(records),
		TimeBlocks:     []models.TimeBlockMean{},
		WindCategories: []models.WindCategoryMean{},
	}

	byBlock := make(map[timeBlockKey]*accumulator)
	byWind := make(map[models.WindCategory]*accumulator)
	temperatures := make([]float64, 0, len(records))

	for _, r := range records {
		result.TotalRentals += int64(r.TotalCount)
		result.TotalRegistered += int64(r.RegisteredCount)
		result.TotalCasual += int64(r.CasualCount)
		temperatures = append(temperatures, r.TemperatureRatio)

		bk := timeBlockKey{block: r.TimeBlock, workingDay: r.IsWorkingDay}
		if byBlock[bk] == nil {
			byBlock[bk] = &accumulator{}
		}
		byBlock[bk].add(r.TotalCount)

		if byWind[r.WindCategory] == nil {
			byWind[r.WindCategory] = &accumulator{}
		}
		byWind[r.WindCategory].add(r.TotalCount)
	}

	result.RegisteredRatio = percent(result.TotalRegistered, result.TotalRentals)

	if len(temperatures) > 0 {
		mean := stat.Mean(temperatures, nil) * a.TemperatureScale
		result.MeanTemperature = &mean
	}

	for _, block := range models.TimeBlocks {
		for _, wd := range workingDayOrder {
			acc, ok := byBlock[timeBlockKey{block: block, workingDay: wd}]
			if !ok {
				continue
			}
			result.TimeBlocks = append(result.TimeBlocks, models.TimeBlockMean{
				TimeBlock:    block,
				IsWorkingDay: wd,
				MeanTotal:    acc.mean(),
				Records:      acc.count,
			})
		}
	}

	for _, category := range models.WindCategories {
		acc, ok := byWind[category]
		if !ok {
			continue
		}
		result.WindCategories = append(result.WindCategories, models.WindCategoryMean{
			WindCategory: category,
			MeanTotal:    acc.mean(),
			Records:      acc.count,
		})
	}

	return result
}

// HourlyProfile computes mean total rentals per (hour, working day), ordered by
// hour with non-working days first. Hours with no records are omitted.
func HourlyProfile(records []LabeledRecord) []models.HourlyPoint {
	byHour := make(map[hourKey]*accumulator)
	for _, r := range records {
		k := hourKey{hour: r.Hour, workingDay: r.IsWorkingDay}
		if byHour[k] == nil {
			byHour[k] = &accumulator{}
		}
		byHour[k].add(r.TotalCount)
	}

	points := make([]models.HourlyPoint, 0, len(byHour))
	for hour := 0; hour < 24; hour++ {
		for _, wd := range workingDayOrder {
			acc, ok := byHour[hourKey{hour: hour, workingDay: wd}]
			if !ok {
				continue
			}
			points = append(points, models.HourlyPoint{
				Hour:         hour,
				IsWorkingDay: wd,
				MeanTotal:    acc.mean(),
				Records:      acc.count,
			})
		}
	}
	return points
}

// Composition splits total rentals into casual and registered shares
func Composition(result models.AggregateResult) []models.CompositionSlice {
	return []models.CompositionSlice{
		{Label: "Casual", Count: result.TotalCasual, Percent: percent(result.TotalCasual, result.TotalRentals)},
		{Label: "Registered", Count: result.TotalRegistered, Percent: percent(result.TotalRegistered, result.TotalRentals)},
	}
}

func percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
