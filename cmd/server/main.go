package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bikeshare-analytics/internal/config"
	"bikeshare-analytics/internal/dataset"
	"bikeshare-analytics/internal/handlers"
	"bikeshare-analytics/internal/loader"
	"bikeshare-analytics/internal/repository"
	"bikeshare-analytics/internal/services"
	"bikeshare-analytics/pkg/database"
	"bikeshare-analytics/pkg/logging"
	"bikeshare-analytics/pkg/metrics"
)

const version = "1.0.0"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("bikeshare-api", version, logging.ParseLevel(cfg.Logging.Level))
	logger.SetFormat(cfg.Logging.Format)

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting bike rental analytics server", logging.Fields{
		"version":        version,
		"server_host":    cfg.Server.Host,
		"server_port":    cfg.Server.Port,
		"dataset_source": cfg.Dataset.Source,
	})

	metricsCollector := metrics.NewCollector("bikeshare")

	// The store is only set for the postgres source; /health then pings it.
	var (
		source dataset.Loader
		store  handlers.HealthChecker
	)

	switch cfg.Dataset.Source {
	case config.SourcePostgres:
		db, err := database.NewPostgresDB(ctx, cfg.Database.Connection(), logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()

		rentalRepo := repository.NewRentalRepository(db, logger, metricsCollector)
		source = loader.NewPostgresLoader(rentalRepo, cfg.Dataset.SkipInvalidRows, logger, metricsCollector)
		store = rentalRepo
	default:
		source = loader.NewCSVLoader(cfg.Dataset.CSVPath, loader.ParseOptions{
			Columns:     cfg.Dataset.Columns,
			SkipInvalid: cfg.Dataset.SkipInvalidRows,
		}, logger, metricsCollector)
	}

	loadTimer := metricsCollector.NewTimer(metricsCollector.DatasetLoadDuration)
	ds, err := dataset.Load(ctx, source)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load dataset", logging.Fields{
			"source": cfg.Dataset.Source,
		}, err)
	}
	loadDuration := loadTimer.ObserveDuration()
	metricsCollector.DatasetRecords.Set(float64(ds.Len()))

	logger.Info(ctx, "[DATASET_READY] Dataset loaded", logging.Fields{
		"records":     ds.Len(),
		"span":        ds.Span().String(),
		"duration_ms": loadDuration.Milliseconds(),
	})

	dashboardService := services.NewDashboardService(ds, cfg.Dataset.TemperatureScale, logger, metricsCollector)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, store, logger, metricsCollector)

	router := mux.NewRouter()
	router.Use(handlers.RequestLogging(logger))
	dashboardHandler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
