package services

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"bikeshare-analytics/internal/models"
)

// Headline labels, in display order
const (
	HeadlineTotalRentals    = "Total Rentals"
	HeadlineRegisteredUsers = "Registered Users"
	HeadlineMeanTemperature = "Mean Temperature"
)

// NoData is shown in place of a value that could not be computed
const NoData = "n/a"

// Headline is one formatted summary figure
type Headline struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Delta string `json:"delta,omitempty"`
}

// FormatHeadlines renders the three headline figures of an aggregate
func FormatHeadlines(result models.AggregateResult) []Headline {
	p := message.NewPrinter(language.English)

	temperature := NoData
	if result.HasTemperature() {
		temperature = p.Sprintf("%.1f °C", *result.MeanTemperature)
	}

	return []Headline{
		{Label: HeadlineTotalRentals, Value: p.Sprintf("%d", result.TotalRentals)},
		{
			Label: HeadlineRegisteredUsers,
			Value: p.Sprintf("%d", result.TotalRegistered),
			Delta: p.Sprintf("%.1f%%", result.RegisteredRatio),
		},
		{Label: HeadlineMeanTemperature, Value: temperature},
	}
}
