// Package fakeservice is an in-memory workflow service. It answers the same
// routes as the real one and runs executions on a scripted progression:
// every execution read moves one step forward.
package fakeservice

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/dukex/flowstudio/pkg/metrics"
	"github.com/dukex/flowstudio/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type Service struct {
	logger   *slog.Logger
	store    *store
	validate *validator.Validate
	quiet    bool
	prom     *metrics.Prom
}

type Option func(*serviceConfig)

type serviceConfig struct {
	now      func() time.Time
	failStep string
	quiet    bool
	prom     *metrics.Prom
}

// WithClock replaces time.Now for execution timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *serviceConfig) { c.now = now }
}

// WithFailingStep makes every execution fail when it reaches stepID.
func WithFailingStep(stepID string) Option {
	return func(c *serviceConfig) { c.failStep = stepID }
}

// WithoutRequestLog disables the access log.
func WithoutRequestLog() Option {
	return func(c *serviceConfig) { c.quiet = true }
}

// WithMetrics records service counters on m and serves them on /metrics.
func WithMetrics(m *metrics.Prom) Option {
	return func(c *serviceConfig) { c.prom = m }
}

func New(logger *slog.Logger, opts ...Option) *Service {
	cfg := serviceConfig{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("steptype", func(fl validator.FieldLevel) bool {
		return models.StepType(fl.Field().String()).IsValid()
	})

	return &Service{
		logger:   logger,
		store:    newStore(cfg.now, cfg.failStep),
		validate: validate,
		quiet:    cfg.quiet,
		prom:     cfg.prom,
	}
}

func (s *Service) App() *fiber.App {
	h := &handlers{store: s.store, validate: s.validate, metrics: metrics.Noop{}}
	if s.prom != nil {
		h.metrics = s.prom
	}

	app := fiber.New()
	app.Use(cors.New())

	if !s.quiet {
		app.Use(logger.New(logger.Config{
			DisableColors: true,
		}))
	}

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	if s.prom != nil {
		app.Get("/metrics", adaptor.HTTPHandler(s.prom.Handler()))
	}

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowstudio fake workflow service")
	})

	w := app.Group("/api/workflows")
	w.Post("/", h.createWorkflow)
	w.Post("/search", h.searchWorkflows)
	w.Get("/:id", h.getWorkflow)
	w.Put("/:id", h.updateWorkflow)
	w.Delete("/:id", h.deleteWorkflow)
	w.Post("/:id/workflow-execute", h.executeWorkflow)
	w.Get("/:id/executions", h.listExecutions)
	w.Get("/:id/executions/:executionId", h.getExecution)

	return app
}

func (s *Service) Start(port int) error {
	s.logger.Info("Starting fake workflow service", "port", port)

	return s.App().Listen(":" + strconv.Itoa(port))
}
