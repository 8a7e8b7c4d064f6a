package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"bikeshare-analytics/internal/models"
	"bikeshare-analytics/internal/services"
	"bikeshare-analytics/internal/validation"
	"bikeshare-analytics/pkg/logging"
	"bikeshare-analytics/pkg/metrics"
)

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// DashboardHandler handles dashboard API endpoints
type DashboardHandler struct {
	dashboard *services.DashboardService
	store     HealthChecker
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewDashboardHandler creates a new dashboard handler.
// store may be nil when the dataset was loaded from a file.
func NewDashboardHandler(
	dashboard *services.DashboardService,
	store HealthChecker,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		store:     store,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// dashboardQuery holds the raw query parameters of GET /api/dashboard
type dashboardQuery struct {
	StartDate string `validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `validate:"omitempty,datetime=2006-01-02"`
}

// dateRange resolves the query against the default range; missing bounds keep the default
func (q dashboardQuery) dateRange(defaults models.DateRange) (models.DateRange, error) {
	var start, end time.Time

	if q.StartDate != "" {
		day, err := models.ParseDay(q.StartDate)
		if err != nil {
			return defaults, err
		}
		start = day
	}

	if q.EndDate != "" {
		day, err := models.ParseDay(q.EndDate)
		if err != nil {
			return defaults, err
		}
		end = day
	}

	return defaults.WithBounds(start, end), nil
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/dashboard"
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	query := dashboardQuery{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}

	if err := validation.Struct(&query); err != nil {
		h.metrics.RecordAPIError("invalid_date", endpoint)
		h.sendError(w, r, endpoint, "invalid date, expected YYYY-MM-DD: "+err.Error(), http.StatusBadRequest)
		return
	}

	dateRange, err := query.dateRange(h.dashboard.DefaultRange())
	if err != nil {
		h.metrics.RecordAPIError("invalid_date", endpoint)
		h.sendError(w, r, endpoint, err.Error(), http.StatusBadRequest)
		return
	}

	summary, err := h.dashboard.Summary(ctx, dateRange)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidRange):
			h.metrics.RecordAPIError("invalid_range", endpoint)
			h.sendError(w, r, endpoint, err.Error(), http.StatusBadRequest)
		case errors.Is(err, models.ErrInvalidInput):
			h.metrics.RecordAPIError("invalid_input", endpoint)
			h.sendError(w, r, endpoint, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error(ctx, "[API_GET_DASHBOARD_ERROR] Failed to compute dashboard", logging.Fields{
				"range": dateRange.String(),
			}, err)
			h.metrics.RecordAPIError("internal_error", endpoint)
			h.sendError(w, r, endpoint, "failed to compute dashboard", http.StatusInternalServerError)
		}
		return
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, summary, http.StatusOK)
}

// GetDataset handles GET /api/dataset
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/dataset"
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, h.dashboard.DatasetInfo(), http.StatusOK)
}

// HealthCheck handles GET /health
func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"records":   h.dashboard.DatasetInfo().Records,
	}
	code := http.StatusOK

	if h.store != nil {
		if err := h.store.HealthCheck(ctx); err != nil {
			h.logger.Warn(ctx, "[HEALTH_CHECK_DEGRADED] Store health check failed", logging.Fields{
				"error": err.Error(),
			})
			status["status"] = "degraded"
			status["store"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, code)
}

// sendJSON sends a JSON response
func (h *DashboardHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error(context.Background(), "[API_ENCODE_ERROR] Failed to encode response", logging.Fields{}, err)
	}
}

// sendError sends an error response
func (h *DashboardHandler) sendError(w http.ResponseWriter, r *http.Request, endpoint, message string, statusCode int) {
	h.metrics.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all dashboard API routes
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/dashboard", h.GetDashboard).Methods(http.MethodGet)
	router.HandleFunc("/api/dataset", h.GetDataset).Methods(http.MethodGet)
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/docs", SwaggerUI).Methods(http.MethodGet)
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods(http.MethodGet)
}
