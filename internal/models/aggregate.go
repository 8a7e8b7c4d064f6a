package models

// TimeBlockMean is the mean total rentals of one (time block, working day) group
type TimeBlockMean struct {
	TimeBlock    TimeBlock `json:"time_block"`
	IsWorkingDay bool      `json:"is_working_day"`
	MeanTotal    float64   `json:"mean_total"`
	Records      int       `json:"records"`
}

// WindCategoryMean is the mean total rentals of one wind category
type WindCategoryMean struct {
	WindCategory WindCategory `json:"wind_category"`
	MeanTotal    float64      `json:"mean_total"`
	Records      int          `json:"records"`
}

// HourlyPoint is the mean total rentals of one (hour, working day) group
type HourlyPoint struct {
	Hour         int     `json:"hour"`
	IsWorkingDay bool    `json:"is_working_day"`
	MeanTotal    float64 `json:"mean_total"`
	Records      int     `json:"records"`
}

// CompositionSlice is one user type's share of total rentals
type CompositionSlice struct {
	Label   string  `json:"label"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

// AggregateResult holds the grouped means and dataset-level totals of a record set.
// Groups with no members are omitted; group slices follow canonical category order.
type AggregateResult struct {
	RecordCount     int   `json:"record_count"`
	TotalRentals    int64 `json:"total_rentals"`
	TotalRegistered int64 `json:"total_registered"`
	TotalCasual     int64 `json:"total_casual"`
	// RegisteredRatio is a percentage, 0 when TotalRentals is 0
	RegisteredRatio float64 `json:"registered_ratio"`
	// MeanTemperature is nil when there is no data
	MeanTemperature *float64           `json:"mean_temperature"`
	TimeBlocks      []TimeBlockMean    `json:"time_blocks"`
	WindCategories  []WindCategoryMean `json:"wind_categories"`
}

// HasTemperature reports whether a mean temperature could be computed
func (a AggregateResult) HasTemperature() bool {
	return a.MeanTemperature != nil
}

// TimeBlockMean returns the group for the given key, if present
func (a AggregateResult) TimeBlockMean(block TimeBlock, workingDay bool) (TimeBlockMean, bool) {
	for _, g := range a.TimeBlocks {
		if g.TimeBlock == block && g.IsWorkingDay == workingDay {
			return g, true
		}
	}
	return TimeBlockMean{}, false
}

// WindCategoryMean returns the group for the given category, if present
func (a AggregateResult) WindCategoryMean(category WindCategory) (WindCategoryMean, bool) {
	for _, g := range a.WindCategories {
		if g.WindCategory == category {
			return g, true
		}
	}
	return WindCategoryMean{}, false
}
