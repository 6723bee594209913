package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/config"
	"github.com/transit-aggregator/internal/delivery/http/handler"
	"github.com/transit-aggregator/internal/delivery/http/middleware"
	"github.com/transit-aggregator/internal/pkg/errors"
	"github.com/transit-aggregator/internal/pkg/utils"
)

// Handlers - всё, что сервер монтирует на маршруты
type Handlers struct {
	Transport *handler.TransportHandler
	Search    *handler.SearchHandler
	Stats     *handler.StatsHandler
	Admin     *handler.AdminHandler
	Health    *handler.HealthHandler
}

// Server - HTTP сервер на основе Fiber
type Server struct {
	app      *fiber.App
	config   *config.Config
	logger   *zap.Logger
	handlers Handlers
}

// NewServer - создание нового HTTP сервера
func NewServer(cfg *config.Config, logger *zap.Logger, handlers Handlers) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Transit Aggregator",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:      app,
		config:   cfg,
		logger:   logger,
		handlers: handlers,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App - для app.Test в тестах
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.CORS())
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := s.app.Group("/api/v1")

	api.Get("/health", s.handlers.Health.Health)

	// Поиск по всем режимам
	api.Get("/search", s.handlers.Search.Search)
	api.Get("/near", s.handlers.Search.Near)
	api.Get("/stats", s.handlers.Stats.GetStatistics)

	admin := api.Group("/admin", middleware.AdminAuth(s.config.Admin.TokenHash))
	admin.Post("/sync/:mode/:entity", s.handlers.Admin.RequestSync)

	// Маршруты режима идут последними: :mode совпал бы с search/near/stats
	mode := api.Group("/:mode")
	mode.Get("/lines", s.handlers.Transport.GetLines)
	mode.Get("/lines/:code/stations", s.handlers.Transport.GetLineStations)
	mode.Get("/stations", s.handlers.Transport.GetStations)
	mode.Get("/stations/:code/routes", s.handlers.Transport.GetStationRoutes)
	mode.Get("/stations/:code/connections", s.handlers.Transport.GetStationConnections)
	mode.Get("/alerts", s.handlers.Transport.GetAlerts)
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

// customErrorHandler - ошибки, не обработанные хендлерами (404 маршрута, паника)
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if e, ok := err.(*fiber.Error); ok {
			code := "INTERNAL_SERVER_ERROR"
			if e.Code == fiber.StatusNotFound {
				code = "NOT_FOUND"
			}
			return c.Status(e.Code).JSON(utils.ErrorResponse{
				Error: errors.New(code, e.Message, e.Code),
			})
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return utils.SendError(c, err)
	}
}
