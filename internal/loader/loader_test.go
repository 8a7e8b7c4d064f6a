package loader

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"bikeshare-analytics/internal/analytics"
	"bikeshare-analytics/internal/config"
	"bikeshare-analytics/internal/models"
	"bikeshare-analytics/internal/repository"
	"bikeshare-analytics/pkg/logging"
	"bikeshare-analytics/pkg/metrics"
)

const hourlyCSV = `dteday,hr,workingday,temp,windspeed,casual,registered,cnt
2011-01-01,0,0,0.24,0.0,3,13,16
2011-01-01,8,0,0.24,0.2836,1,7,8
2011-01-03,17,1,0.22,0.4925,6,70,76
`

func testColumns() config.ColumnsConfig {
	return config.Default().Dataset.Columns
}

func testLogger() *logging.StructuredLogger {
	logger := logging.NewStructuredLogger("loader-test", "test", logging.DebugLevel)
	logger.SetOutput(io.Discard)
	return logger
}

func TestParseCSV(t *testing.T) {
	records, report, err := ParseCSV(strings.NewReader(hourlyCSV), ParseOptions{Columns: testColumns()})
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("len(records) = %v, want %v", len(records), 3)
	}
	if report.Rows != 3 || report.Accepted != 3 || len(report.Rejected) != 0 {
		t.Errorf("report = %+v, want 3 rows all accepted", report)
	}

	got := records[2]
	want := models.RentalRecord{
		Date:             time.Date(2011, 1, 3, 0, 0, 0, 0, time.UTC),
		Hour:             17,
		IsWorkingDay:     true,
		TemperatureRatio: 0.22,
		WindSpeedRatio:   0.4925,
		CasualCount:      6,
		RegisteredCount:  70,
		TotalCount:       76,
	}
	if got != want {
		t.Errorf("records[2] = %+v, want %+v", got, want)
	}
}

func TestParseCSV_DailyWeatherColumns(t *testing.T) {
	input := `dteday,hr,workingday,temp_day,windspeed_day,casual,registered,cnt
2011-01-01,0,0,0.34,0.16,3,13,16
`
	records, _, err := ParseCSV(strings.NewReader(input), ParseOptions{Columns: testColumns()})
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}

	if records[0].TemperatureRatio != 0.34 {
		t.Errorf("TemperatureRatio = %v, want %v", records[0].TemperatureRatio, 0.34)
	}
	if records[0].WindSpeedRatio != 0.16 {
		t.Errorf("WindSpeedRatio = %v, want %v", records[0].WindSpeedRatio, 0.16)
	}
}

func TestParseCSV_PrefersDailyWeatherColumns(t *testing.T) {
	input := `dteday,hr,workingday,temp,temp_day,windspeed,windspeed_day,casual,registered,cnt
2011-01-01,0,0,0.10,0.50,0.05,0.50,3,13,16
`
	records, _, err := ParseCSV(strings.NewReader(input), ParseOptions{Columns: testColumns()})
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}

	if records[0].TemperatureRatio != 0.50 {
		t.Errorf("TemperatureRatio = %v, want %v", records[0].TemperatureRatio, 0.50)
	}
	if records[0].WindSpeedRatio != 0.50 {
		t.Errorf("WindSpeedRatio = %v, want %v", records[0].WindSpeedRatio, 0.50)
	}

	labeled, err := analytics.Label(records[0])
	if err != nil {
		t.Fatalf("Label() error = %v", err)
	}
	if labeled.WindCategory != models.WindExtreme {
		t.Errorf("WindCategory = %v, want %v", labeled.WindCategory, models.WindExtreme)
	}
}

func TestParseCSV_CustomColumns(t *testing.T) {
	input := `day,hour,wd,t,w,c,r,total
2011-02-01,5,1,0.5,0.1,1,2,3
`
	cols := config.ColumnsConfig{
		Date: "day", Hour: "hour", WorkingDay: "wd", Temperature: "t", WindSpeed: "w",
		Casual: "c", Registered: "r", Total: "total",
	}

	records, _, err := ParseCSV(strings.NewReader(input), ParseOptions{Columns: cols})
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if records[0].Hour != 5 || records[0].TotalCount != 3 {
		t.Errorf("records[0] = %+v", records[0])
	}
}

func TestParseCSV_MissingColumn(t *testing.T) {
	input := `dteday,hr,workingday,temp,casual,registered,cnt
2011-01-01,0,0,0.24,3,13,16
`
	_, _, err := ParseCSV(strings.NewReader(input), ParseOptions{Columns: testColumns()})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("ParseCSV() error = %v, want ErrMissingColumn", err)
	}
	if !strings.Contains(err.Error(), "windspeed_day or windspeed") {
		t.Errorf("error %q does not name both wind columns", err.Error())
	}
}

func TestParseCSV_InvalidRows(t *testing.T) {
	tests := []struct {
		name      string
		row       string
		wantField string
	}{
		{name: "hour out of range", row: "2011-01-01,24,0,0.24,0.1,3,13,16", wantField: "hour"},
		{name: "negative count", row: "2011-01-01,1,0,0.24,0.1,-3,19,16", wantField: "casual_count"},
		{name: "total mismatch", row: "2011-01-01,1,0,0.24,0.1,3,13,17", wantField: "total_count"},
		{name: "ratio above one", row: "2011-01-01,1,0,1.5,0.1,3,13,16", wantField: "temperature_ratio"},
		{name: "bad date", row: "01/01/2011,1,0,0.24,0.1,3,13,16", wantField: "date"},
		{name: "non numeric hour", row: "2011-01-01,noon,0,0.24,0.1,3,13,16", wantField: "hour"},
		{name: "bad working day", row: "2011-01-01,1,maybe,0.24,0.1,3,13,16", wantField: "is_working_day"},
	}

	header := "dteday,hr,workingday,temp,windspeed,casual,registered,cnt\n"
	valid := "2011-01-01,0,0,0.24,0.0,3,13,16\n"

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := header + valid + tt.row + "\n"

			_, _, err := ParseCSV(strings.NewReader(input), ParseOptions{Columns: testColumns()})
			var rowErr *RowError
			if !errors.As(err, &rowErr) {
				t.Fatalf("ParseCSV() error = %v, want *RowError", err)
			}
			if rowErr.Row != 2 {
				t.Errorf("Row = %v, want %v", rowErr.Row, 2)
			}
			if rowErr.Err.Field != tt.wantField {
				t.Errorf("Field = %v, want %v", rowErr.Err.Field, tt.wantField)
			}
			if !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("errors.Is(err, ErrInvalidInput) = false")
			}

			records, report, err := ParseCSV(strings.NewReader(input), ParseOptions{Columns: testColumns(), SkipInvalid: true})
			if err != nil {
				t.Fatalf("ParseCSV(SkipInvalid) error = %v", err)
			}
			if len(records) != 1 || len(report.Rejected) != 1 {
				t.Errorf("accepted %d rejected %d, want 1 and 1", len(records), len(report.Rejected))
			}
		})
	}
}

func TestCSVLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main_data.csv")
	content := hourlyCSV + "2011-01-04,3,1,0.2,0.1,1,1,5\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	m := metrics.NewCollectorWith(prometheus.NewRegistry(), "test")
	l := NewCSVLoader(path, ParseOptions{Columns: testColumns(), SkipInvalid: true}, testLogger(), m)

	records, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 3 {
		t.Errorf("len(records) = %v, want %v", len(records), 3)
	}
	if got := testutil.ToFloat64(m.DatasetRejectedTotal.WithLabelValues("total_count")); got != 1 {
		t.Errorf("rejected total_count rows = %v, want 1", got)
	}
}

func TestCSVLoader_MissingFile(t *testing.T) {
	m := metrics.NewCollectorWith(prometheus.NewRegistry(), "test")
	l := NewCSVLoader(filepath.Join(t.TempDir(), "absent.csv"), ParseOptions{Columns: testColumns()}, testLogger(), m)

	if _, err := l.Load(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}
}

type fakeRepository struct {
	records []models.RentalRecord
	err     error
}

var _ repository.RentalRepository = (*fakeRepository)(nil)

func (f *fakeRepository) ListRentals(ctx context.Context) ([]models.RentalRecord, error) {
	return f.records, f.err
}

func (f *fakeRepository) DateSpan(ctx context.Context) (models.DateRange, error) {
	return models.DateRange{}, nil
}

func (f *fakeRepository) Count(ctx context.Context) (int, error) {
	return len(f.records), f.err
}

func (f *fakeRepository) UpsertRentalsBatch(ctx context.Context, records []models.RentalRecord) error {
	return f.err
}

func (f *fakeRepository) HealthCheck(ctx context.Context) error {
	return f.err
}

func TestPostgresLoader_Load(t *testing.T) {
	day := time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)
	good := models.RentalRecord{Date: day, Hour: 1, TemperatureRatio: 0.2, WindSpeedRatio: 0.1, CasualCount: 1, RegisteredCount: 2, TotalCount: 3}
	bad := good
	bad.Hour = 2
	bad.TotalCount = 9

	tests := []struct {
		name        string
		repo        *fakeRepository
		skipInvalid bool
		wantLen     int
		wantErr     bool
	}{
		{name: "all valid", repo: &fakeRepository{records: []models.RentalRecord{good}}, wantLen: 1},
		{name: "strict rejects", repo: &fakeRepository{records: []models.RentalRecord{good, bad}}, wantErr: true},
		{name: "lenient skips", repo: &fakeRepository{records: []models.RentalRecord{good, bad}}, skipInvalid: true, wantLen: 1},
		{name: "query failure", repo: &fakeRepository{err: errors.New("connection refused")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.NewCollectorWith(prometheus.NewRegistry(), "test")
			l := NewPostgresLoader(tt.repo, tt.skipInvalid, testLogger(), m)

			records, err := l.Load(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(records) != tt.wantLen {
				t.Errorf("len(records) = %v, want %v", len(records), tt.wantLen)
			}
		})
	}
}
