package main

// @title Trip Planner API
// @version 1.0.0
// @description Сервис выбора поездки по карте станций: сессии выбора отправления и прибытия,
// @description расчёт маршрута и сравнение цены с такси.
// @description
// @description Основные возможности:
// @description - Сессии карты с командами камеры для клиента
// @description - Справочник станций и районов
// @description - Поиск станций рядом с пользователем
// @description - Расчёт стоимости с учётом часов пик

// @contact.name API Support
// @contact.email support@trip-planner.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/trip-planner/docs/swagger"
	"github.com/trip-planner/internal/config"
	httpDelivery "github.com/trip-planner/internal/delivery/http"
	"github.com/trip-planner/internal/delivery/http/handler"
	"github.com/trip-planner/internal/fare"
	"github.com/trip-planner/internal/infrastructure/ipgeo"
	"github.com/trip-planner/internal/infrastructure/mapbox"
	"github.com/trip-planner/internal/pkg/logger"
	"github.com/trip-planner/internal/refdata"
	"github.com/trip-planner/internal/repository/cache"
	redisRepo "github.com/trip-planner/internal/repository/redis"
	"github.com/trip-planner/internal/usecase"
	"github.com/trip-planner/internal/worker"
	refdataWorker "github.com/trip-planner/internal/worker/refdata"
	sessionWorker "github.com/trip-planner/internal/worker/session"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Trip Planner")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("clear_arrival_policy", string(cfg.Trip.ClearArrivalPolicy)),
	)

	// 3. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()
	log.Info("Redis connected")

	// 4. Reference data. Ошибка загрузки не фатальна: сервис отвечает 503,
	// а воркер refdata-refresher повторяет загрузку
	refProvider := refdata.NewProvider(
		refdata.NewAutoLoader(cfg.RefData.LoadTimeout, log),
		cfg.RefData.StationsPath,
		cfg.RefData.DistrictsPath,
		cfg.RefData.LoadTimeout,
		log,
	)
	if err := refProvider.Load(context.Background()); err != nil {
		log.Error("Reference data not loaded, will retry", zap.Error(err))
	}

	// 5. Initialize Repositories
	cacheRepo := cache.NewCacheRepository(redisClient)
	sessionRepo := cache.NewSessionRepository(cacheRepo, log)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)

	router := cache.NewRouteCache(
		mapbox.NewClient(&cfg.Mapbox, log),
		cacheRepo,
		cfg.Cache,
		log,
	)

	log.Info("Repositories initialized")

	// 6. Initialize Use Cases
	estimator, err := fare.NewEstimator(cfg.Fare)
	if err != nil {
		log.Fatal("Invalid fare configuration", zap.Error(err))
	}

	sessionUC := usecase.NewSessionUseCase(
		refProvider,
		router,
		estimator,
		sessionRepo,
		streamRepo,
		cfg,
		log,
	)
	defer sessionUC.Close()

	log.Info("Use cases initialized")

	// 7. Initialize Handlers
	sessionHandler := handler.NewSessionHandler(sessionUC, ipgeo.NewClient(&cfg.Geolocation, log), log)
	referenceHandler := handler.NewReferenceHandler(refProvider, cfg.Trip.ProximityRadiusMeters, log)
	fareHandler := handler.NewFareHandler(estimator, log)
	healthHandler := handler.NewHealthHandler(refProvider, sessionUC, map[string]handler.HealthChecker{
		"redis": redisClient,
	}, log)

	log.Info("Handlers initialized")

	// 8. Background workers
	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(sessionWorker.NewJanitorWorker(sessionUC, cfg.Session.SweepInterval, log))
	workerManager.Register(refdataWorker.NewRefresherWorker(refProvider, cfg.RefData.RetryInterval, log))

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	if err := workerManager.Start(workerCtx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// 9. Create HTTP Server
	server := httpDelivery.NewServer(
		cfg,
		log,
		sessionHandler,
		referenceHandler,
		fareHandler,
		healthHandler,
	)

	// 10. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully", zap.String("address", cfg.GetServerAddr()))

	// 11. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	cancelWorkers()
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Server exited")
}
