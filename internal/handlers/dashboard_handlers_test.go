package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"bikeshare-analytics/internal/dataset"
	"bikeshare-analytics/internal/models"
	"bikeshare-analytics/internal/services"
	"bikeshare-analytics/pkg/logging"
	"bikeshare-analytics/pkg/metrics"
)

type stubStore struct {
	err error
}

func (s stubStore) HealthCheck(ctx context.Context) error {
	return s.err
}

func testRecords() []models.RentalRecord {
	var records []models.RentalRecord
	for d := 1; d <= 10; d++ {
		for _, hour := range []int{8, 18} {
			records = append(records, models.RentalRecord{
				Date:             time.Date(2011, 1, d, 0, 0, 0, 0, time.UTC),
				Hour:             hour,
				IsWorkingDay:     d%7 != 1 && d%7 != 2,
				TemperatureRatio: 0.3,
				WindSpeedRatio:   0.2,
				CasualCount:      10,
				RegisteredCount:  90,
				TotalCount:       100,
			})
		}
	}
	return records
}

func newTestRouter(t *testing.T, store HealthChecker) (*mux.Router, *metrics.Collector) {
	t.Helper()

	ds, err := dataset.New(testRecords())
	if err != nil {
		t.Fatalf("dataset.New() error = %v", err)
	}

	logger := logging.NewStructuredLogger("handlers-test", "test", logging.DebugLevel)
	logger.SetOutput(io.Discard)
	m := metrics.NewCollectorWith(prometheus.NewRegistry(), "test")

	svc := services.NewDashboardService(ds, 41, logger, m)
	h := NewDashboardHandler(svc, store, logger, m)

	router := mux.NewRouter()
	router.Use(RequestLogging(logger))
	h.RegisterRoutes(router)
	return router, m
}

func TestGetDashboard(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantStatus  int
		wantRecords int
		wantApplied string
	}{
		{name: "defaults to span", query: "", wantStatus: http.StatusOK, wantRecords: 20, wantApplied: "2011-01-01..2011-01-10"},
		{name: "single day", query: "?start_date=2011-01-05&end_date=2011-01-05", wantStatus: http.StatusOK, wantRecords: 2, wantApplied: "2011-01-05..2011-01-05"},
		{name: "start only", query: "?start_date=2011-01-09", wantStatus: http.StatusOK, wantRecords: 4, wantApplied: "2011-01-09..2011-01-10"},
		{name: "end only", query: "?end_date=2011-01-02", wantStatus: http.StatusOK, wantRecords: 4, wantApplied: "2011-01-01..2011-01-02"},
		{name: "clamped", query: "?start_date=2010-06-01&end_date=2012-01-01", wantStatus: http.StatusOK, wantRecords: 20, wantApplied: "2011-01-01..2011-01-10"},
		{name: "outside span", query: "?start_date=2012-01-01&end_date=2012-01-31", wantStatus: http.StatusOK, wantRecords: 0},
		{name: "start only after span", query: "?start_date=2012-03-01", wantStatus: http.StatusOK, wantRecords: 0},
		{name: "end only before span", query: "?end_date=2010-03-01", wantStatus: http.StatusOK, wantRecords: 0},
		{name: "inverted", query: "?start_date=2011-01-08&end_date=2011-01-02", wantStatus: http.StatusBadRequest},
		{name: "malformed", query: "?start_date=01/02/2011", wantStatus: http.StatusBadRequest},
		{name: "impossible date", query: "?end_date=2011-02-30", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, nil)

			req := httptest.NewRequest(http.MethodGet, "/api/dashboard"+tt.query, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %v, want %v (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if rec.Header().Get(RequestIDHeader) == "" {
				t.Error("response has no request ID header")
			}

			if tt.wantStatus != http.StatusOK {
				var errResp ErrorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
					t.Fatalf("Unmarshal() error = %v", err)
				}
				if errResp.Code != tt.wantStatus || errResp.Message == "" {
					t.Errorf("error response = %+v", errResp)
				}
				return
			}

			var summary services.Summary
			if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if summary.RecordCount != tt.wantRecords {
				t.Errorf("RecordCount = %v, want %v", summary.RecordCount, tt.wantRecords)
			}
			if tt.wantApplied != "" && summary.AppliedRange.String() != tt.wantApplied {
				t.Errorf("AppliedRange = %v, want %v", summary.AppliedRange, tt.wantApplied)
			}
		})
	}
}

func TestGetDashboard_EmptyHasNoNaN(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?start_date=2015-01-01&end_date=2015-01-02", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %v, want %v", rec.Code, http.StatusOK)
	}

	body := rec.Body.String()
	if strings.Contains(body, "NaN") {
		t.Errorf("body contains NaN: %s", body)
	}
	if !strings.Contains(body, `"mean_temperature":null`) {
		t.Errorf("body lacks null mean_temperature: %s", body)
	}
}

func TestGetDashboard_InvalidRangeMetric(t *testing.T) {
	router, m := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?start_date=2011-01-08&end_date=2011-01-02", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(m.APIErrorsTotal.WithLabelValues("invalid_range", "/api/dashboard")); got != 1 {
		t.Errorf("invalid_range errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues("/api/dashboard", "GET", "400")); got != 1 {
		t.Errorf("400 requests = %v, want 1", got)
	}
}

func TestGetDataset(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dataset", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %v, want %v", rec.Code, http.StatusOK)
	}

	var info services.DatasetInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if info.Records != 20 || info.Days != 10 {
		t.Errorf("info = %+v, want 20 records over 10 days", info)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		store      HealthChecker
		wantStatus int
		wantState  string
	}{
		{name: "no store", store: nil, wantStatus: http.StatusOK, wantState: "healthy"},
		{name: "store up", store: stubStore{}, wantStatus: http.StatusOK, wantState: "healthy"},
		{name: "store down", store: stubStore{err: errors.New("connection refused")}, wantStatus: http.StatusServiceUnavailable, wantState: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, tt.store)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %v, want %v", rec.Code, tt.wantStatus)
			}

			var body map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if body["status"] != tt.wantState {
				t.Errorf("status = %v, want %v", body["status"], tt.wantState)
			}
		})
	}
}

func TestOpenAPISpec(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/openapi.json", nil))

	var doc struct {
		OpenAPI string                 `json:"openapi"`
		Paths   map[string]interface{} `json:"paths"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	for _, path := range []string{"/api/dashboard", "/api/dataset", "/health", "/metrics"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("OpenAPI document lacks path %s", path)
		}
	}
}

func TestRequestLogging_PropagatesRequestID(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dataset", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("%s = %v, want %v", RequestIDHeader, got, "abc-123")
	}
}
