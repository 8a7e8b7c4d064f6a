package analytics

import (
	"testing"
	"time"

	"bikeshare-analytics/internal/models"
)

func day(d int) time.Time {
	return time.Date(2011, 1, d, 0, 0, 0, 0, time.UTC)
}

// rec builds a labeled record with registered = total - casual
func rec(t *testing.T, d, hour int, workingDay bool, wind, temp float64, casual, total int) LabeledRecord {
	t.Helper()

	lr, err := Label(models.RentalRecord{
		Date:             day(d),
		Hour:             hour,
		IsWorkingDay:     workingDay,
		TemperatureRatio: temp,
		WindSpeedRatio:   wind,
		CasualCount:      casual,
		RegisteredCount:  total - casual,
		TotalCount:       total,
	})
	if err != nil {
		t.Fatalf("Label() error = %v", err)
	}
	return lr
}

// tenDays builds two records per day for days 1-10
func tenDays(t *testing.T) []LabeledRecord {
	t.Helper()

	var out []LabeledRecord
	for d := 1; d <= 10; d++ {
		out = append(out,
			rec(t, d, 8, d%7 != 0, 0.1, 0.3, 2, 10*d),
			rec(t, d, 18, d%7 != 0, 0.35, 0.4, 1, 5*d),
		)
	}
	return out
}
