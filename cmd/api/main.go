package main

import (
	"context"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/outbound-scan-service/pkg/cloudevents"
	"github.com/wms-platform/outbound-scan-service/pkg/kafka"
	"github.com/wms-platform/outbound-scan-service/pkg/logging"
	"github.com/wms-platform/outbound-scan-service/pkg/metrics"
	"github.com/wms-platform/outbound-scan-service/pkg/middleware"
	"github.com/wms-platform/outbound-scan-service/pkg/mongodb"
	"github.com/wms-platform/outbound-scan-service/pkg/tracing"

	apihttp "github.com/wms-platform/outbound-scan-service/internal/api/http"
	"github.com/wms-platform/outbound-scan-service/internal/application"
	"github.com/wms-platform/outbound-scan-service/internal/config"
	"github.com/wms-platform/outbound-scan-service/internal/infrastructure/boltstore"
	"github.com/wms-platform/outbound-scan-service/internal/infrastructure/camera"
	"github.com/wms-platform/outbound-scan-service/internal/infrastructure/excel"
	kafkaInfra "github.com/wms-platform/outbound-scan-service/internal/infrastructure/kafka"
	mongoRepo "github.com/wms-platform/outbound-scan-service/internal/infrastructure/mongodb"
)

const serviceName = "outbound-scan-service"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting outbound-scan-service API")

	cfg, err := config.Load(getEnv("CONFIG_PATH", ""))
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	ctx := context.Background()

	// Tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = cfg.Tracing.OTLPEndpoint
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = cfg.Tracing.Enabled

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Metrics
	m := metrics.New(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	// MongoDB
	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoClientConfig())
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)

	// Local snapshot store for pending buffers
	snapshots, err := boltstore.Open(cfg.SnapshotPath)
	if err != nil {
		logger.WithError(err).Error("Failed to open snapshot store")
		os.Exit(1)
	}
	defer snapshots.Close()
	logger.Info("Snapshot store opened", "path", cfg.SnapshotPath)

	// Kafka producer with circuit breaker
	producer := kafka.NewProductionProducer(cfg.KafkaProducerConfig(serviceName), m, logger)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", cfg.Kafka.Brokers)

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceOutboundScan)
	publisher := kafkaInfra.NewEventPublisher(producer, eventFactory, logger)

	// Repositories
	outboundRepo := mongoRepo.NewOutboundRepository(mongoClient.Database())
	inventoryRepo := mongoRepo.NewInventoryRepository(mongoClient.Database())

	// Application services
	reconciler := application.NewReconcileService(inventoryRepo, publisher, m, logger)
	stationService := application.NewStationService(outboundRepo, snapshots, reconciler, publisher, m, logger)
	defer stationService.Close()
	outboundService := application.NewOutboundService(outboundRepo, excel.NewExporter(), logger)

	// Pre-open stations declared in configuration and attach their
	// camera feeds
	for _, station := range cfg.Stations {
		factory := station.Factory
		if factory == "" {
			factory = cfg.Factory
		}
		if _, err := stationService.OpenStation(ctx, application.OpenStationCommand{
			StationID: station.StationID,
			Factory:   factory,
		}); err != nil {
			logger.WithError(err).Warn("Failed to open configured station", "stationId", station.StationID)
			continue
		}

		if station.CameraPort > 0 {
			source := camera.NewTCPSource(fmt.Sprintf(":%d", station.CameraPort), logger)
			feed, err := stationService.AttachCamera(station.StationID, source)
			if err != nil {
				logger.WithError(err).Warn("Failed to attach camera feed", "stationId", station.StationID)
				continue
			}
			defer feed.Stop()
			logger.Info("Camera feed attached", "stationId", station.StationID, "port", station.CameraPort)
		}
	}

	// Router
	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger.Logger))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", gin.WrapH(m.Handler()))

	apihttp.SetupRoutes(router, apihttp.NewHandlers(stationService, outboundService, logger))

	srv := &nethttp.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", cfg.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
