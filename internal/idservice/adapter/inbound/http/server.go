package http_handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/config"
	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/domain"
	"github.com/anthanhphan/go-distributed-id-generator/internal/idservice/port"
	"github.com/anthanhphan/go-distributed-id-generator/pkg/idgen"
	sdklogger "github.com/anthanhphan/gosdk/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	app     *fiber.App
	cfg     *config.Config
	service port.IDService
}

func NewServer(cfg *config.Config, service port.IDService) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	s := &Server{
		app:     app,
		cfg:     cfg,
		service: service,
	}

	// Routes
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.app.Get("/ids/next", s.handleNext)
	s.app.Get("/ids", s.handleBatch)
	s.app.Get("/node", s.handleNode)
	s.app.Get("/healthz", s.handleHealth)
}

// MountMetrics serves the metrics in g on GET /metrics.
func (s *Server) MountMetrics(g prometheus.Gatherer) {
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.HTTPAddr)
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) sendJSONError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// IDs are also returned as strings since JSON numbers lose precision above 2^53
// in most clients.
func (s *Server) handleNext(c *fiber.Ctx) error {
	id, err := s.service.NextID(c.Context())
	if err != nil {
		return s.sendGenerateError(c, err)
	}

	return c.JSON(fiber.Map{
		"id":     id,
		"id_str": strconv.FormatInt(id, 10),
	})
}

func (s *Server) handleBatch(c *fiber.Ctx) error {
	count, err := strconv.Atoi(c.Query("count", "1"))
	if err != nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, "Invalid 'count' query parameter")
	}

	ids, err := s.service.NextIDs(c.Context(), count)
	if err != nil {
		return s.sendGenerateError(c, err)
	}

	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = strconv.FormatInt(id, 10)
	}
	return c.JSON(fiber.Map{
		"ids":     ids,
		"ids_str": strs,
	})
}

func (s *Server) handleNode(c *fiber.Ctx) error {
	return c.JSON(s.service.Node())
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	health := s.service.Health()
	status := fiber.StatusOK
	if health.Status != domain.HealthOK {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(health)
}

func (s *Server) sendGenerateError(c *fiber.Ctx, err error) error {
	var regErr *idgen.ClockRegressionError
	switch {
	case errors.As(err, &regErr):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":          err.Error(),
			"retry_after_ms": regErr.Backward().Milliseconds(),
		})
	case errors.Is(err, port.ErrInvalidCount):
		return s.sendJSONError(c, fiber.StatusBadRequest, err.Error())
	default:
		sdklogger.Errorw("ID request failed", "path", c.Path(), "error", err.Error())
		return s.sendJSONError(c, fiber.StatusInternalServerError, "Failed to generate id")
	}
}
