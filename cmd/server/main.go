package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/fekuna/omnipos-production-service/config"
	"github.com/fekuna/omnipos-production-service/internal/broker"
	"github.com/fekuna/omnipos-production-service/internal/cache"
	"github.com/fekuna/omnipos-production-service/internal/database/postgres"
	"github.com/fekuna/omnipos-production-service/internal/logger"
	"github.com/fekuna/omnipos-production-service/internal/metrics"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/fekuna/omnipos-production-service/internal/report"
	"github.com/fekuna/omnipos-production-service/internal/server"
	"github.com/fekuna/omnipos-production-service/internal/store"
	"github.com/fekuna/omnipos-production-service/internal/store/memory"
	pgstore "github.com/fekuna/omnipos-production-service/internal/store/postgres"

	invH "github.com/fekuna/omnipos-production-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/omnipos-production-service/internal/inventory/listener"
	invUCPkg "github.com/fekuna/omnipos-production-service/internal/inventory/usecase"

	recipeH "github.com/fekuna/omnipos-production-service/internal/recipe/handler"
	recipeUCPkg "github.com/fekuna/omnipos-production-service/internal/recipe/usecase"

	prodH "github.com/fekuna/omnipos-production-service/internal/production/handler"
	prodPublisherPkg "github.com/fekuna/omnipos-production-service/internal/production/publisher"
	prodUCPkg "github.com/fekuna/omnipos-production-service/internal/production/usecase"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "development",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Open the backing store
	st := openStore(ctx, cfg, appLogger)
	defer st.Close()

	// 4. Initialize Redis (optional)
	var (
		locker      cache.Locker
		recipeCache cache.JSONCache
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		locker, recipeCache = redisClient, redisClient
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		appLogger.Warn("REDIS_ADDR not set, running without distributed locks and recipe cache")
	}

	// 5. Initialize Kafka (optional)
	var publisher production.EventPublisher = prodPublisherPkg.Noop{}
	var kafkaConsumer *broker.KafkaConsumer
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.ProductionTopic,
		})
		defer kafkaProducer.Close()
		publisher = prodPublisherPkg.NewKafkaPublisher(kafkaProducer, appLogger.Named("publisher"))

		kafkaConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.OrdersTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	// 6. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	productionMetrics := metrics.NewProduction(registry)

	// 7. Initialize UseCases
	invUC := invUCPkg.NewInventoryUseCase(st, locker, cfg.Redis.LockTTL, appLogger.Named("inventory"))
	recipeUC := recipeUCPkg.NewRecipeUseCase(st, recipeCache, cfg.Redis.CacheTTL, appLogger.Named("recipe"))
	prodUC := prodUCPkg.NewProductionUseCase(st, publisher, productionMetrics, cfg.Production.TxTimeout, appLogger.Named("production"))

	// 8. Listeners and scheduled jobs
	if kafkaConsumer != nil {
		invListener := invListenerPkg.NewInventoryListener(kafkaConsumer, invUC, appLogger.Named("listener"))
		go invListener.Start(ctx)
	}

	scheduler, closeArchive := newReportScheduler(ctx, cfg, st, appLogger.Named("report"))
	defer closeArchive()
	if err := scheduler.Start(); err != nil {
		appLogger.Fatal("Could not start report scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	// 9. HTTP server
	router := server.NewRouter(appLogger.Named("http"), registry,
		invH.NewInventoryHandler(invUC, appLogger.Named("inventory")),
		recipeH.NewRecipeHandler(recipeUC, appLogger.Named("recipe")),
		prodH.NewProductionHandler(prodUC, appLogger.Named("production")),
	)
	httpServer := &http.Server{
		Addr:              normalizePort(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	// 10. gRPC server (health + reflection)
	grpcPort := normalizePort(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", grpcPort)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.String("port", grpcPort), zap.Error(err))
	}
	grpcServer, healthServer := server.NewGRPCServer(appLogger.Named("grpc"))
	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", grpcPort))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve grpc", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config, log logger.ZapLogger) store.Store {
	if cfg.Server.StoreDriver == "memory" {
		log.Warn("Using in-memory store, data will not survive a restart")
		return memory.New()
	}

	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		log.Fatal("Could not connect to database", zap.Error(err))
	}
	log.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal("Could not migrate database", zap.Error(err))
		}
		log.Info("Database schema is up to date")
	}

	return pgstore.New(db, cfg.Production.MaxRetries, log.Named("store"))
}

func newReportScheduler(ctx context.Context, cfg *config.Config, st store.Store, log logger.ZapLogger) (*report.Scheduler, func()) {
	loc, err := time.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		log.Fatal("Invalid timezone", zap.String("timezone", cfg.Report.Timezone), zap.Error(err))
	}

	var archive report.Archive
	closeArchive := func() {}
	if cfg.Mongo.URI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		mongoArchive, err := report.NewMongoArchive(connectCtx, cfg.Mongo.URI, cfg.Mongo.DBName)
		if err != nil {
			log.Warn("Could not connect to MongoDB (report archive disabled)", zap.Error(err))
		} else {
			archive = mongoArchive
			closeArchive = func() { _ = mongoArchive.Close(context.Background()) }
			log.Info("Connected to MongoDB", zap.String("db_name", cfg.Mongo.DBName))
		}
	}

	var notifier report.Notifier
	if cfg.Report.WebhookURL != "" {
		notifier = report.NewWebhookNotifier(cfg.Report.WebhookURL, 15*time.Second)
	}

	svc := report.NewService(st, loc, log)
	return report.NewScheduler(cfg.Report.CronSchedule, loc, svc, archive, notifier, log), closeArchive
}

func normalizePort(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
