package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/config"
	"github.com/trip-planner/internal/delivery/http/handler"
	"github.com/trip-planner/internal/delivery/http/middleware"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	sessionHandler   *handler.SessionHandler
	referenceHandler *handler.ReferenceHandler
	fareHandler      *handler.FareHandler
	healthHandler    *handler.HealthHandler
}

// NewServer - создание нового HTTP сервера
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	sessionHandler *handler.SessionHandler,
	referenceHandler *handler.ReferenceHandler,
	fareHandler *handler.FareHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	// WriteTimeout покрывает ожидание маршрута при wait=true
	writeTimeout := 10 * time.Second
	if cfg.Server.EventWaitTimeout+2*time.Second > writeTimeout {
		writeTimeout = cfg.Server.EventWaitTimeout + 2*time.Second
	}

	app := fiber.New(fiber.Config{
		AppName:      "Trip Planner",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:              app,
		config:           cfg,
		logger:           logger,
		sessionHandler:   sessionHandler,
		referenceHandler: referenceHandler,
		fareHandler:      fareHandler,
		healthHandler:    healthHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	api := s.app.Group("/api/v1")

	api.Get("/health", s.healthHandler.Health)

	// Sessions
	sessions := api.Group("/sessions")
	sessions.Post("/", s.sessionHandler.Create)
	sessions.Get("/:id", s.sessionHandler.Get)
	sessions.Delete("/:id", s.sessionHandler.Delete)
	sessions.Post("/:id/map-loaded", s.sessionHandler.MapLoaded)
	sessions.Post("/:id/events", s.sessionHandler.Dispatch)
	sessions.Post("/:id/locate", s.sessionHandler.Locate)

	// Reference data
	api.Get("/stations", s.referenceHandler.Stations)
	api.Get("/districts", s.referenceHandler.Districts)
	api.Get("/districts/:id/stations", s.referenceHandler.DistrictStations)

	// Fare
	api.Post("/fare/estimate", s.fareHandler.Estimate)
}

// App - доступ к fiber.App (для тестов)
func (s *Server) App() *fiber.App {
	return s.app
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - кастомный обработчик ошибок
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		errCode := "INTERNAL_SERVER_ERROR"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			if code == fiber.StatusNotFound {
				errCode = "NOT_FOUND"
			}
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("HTTP Error",
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    errCode,
				"message": err.Error(),
			},
		})
	}
}
