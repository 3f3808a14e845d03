package web

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/webpilot-io/webpilot/pkg/app"
	"github.com/webpilot-io/webpilot/pkg/persistence"
	"github.com/webpilot-io/webpilot/pkg/scheduler"
)

type API struct {
	service   *app.Service
	store     persistence.Persistence
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
	validate  *validator.Validate
}

func NewAPI(
	service *app.Service,
	store persistence.Persistence,
	sched *scheduler.Scheduler,
	logger *slog.Logger,
) *API {
	return &API{
		service:   service,
		store:     store,
		scheduler: sched,
		logger:    logger,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := NewAPIHandlers(a.service, a.store, a.scheduler, a.validate, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Webpilot API")
	})

	autos := app.Group("/automations")
	autos.Get("/", handlers.GetAutomations)
	autos.Post("/", handlers.CreateAutomation)
	autos.Get("/:id", handlers.GetAutomation)
	autos.Put("/:id", handlers.UpdateAutomation)
	autos.Delete("/:id", handlers.DeleteAutomation)
	autos.Post("/:id/run", handlers.RunAutomation)
	autos.Get("/:id/logs", handlers.GetAutomationLogs)

	schedules := app.Group("/schedules")
	schedules.Get("/", handlers.GetSchedules)
	schedules.Post("/", handlers.CreateSchedule)
	schedules.Get("/:id", handlers.GetSchedule)
	schedules.Delete("/:id", handlers.DeleteSchedule)
	schedules.Patch("/:id", handlers.SetScheduleEnabled)

	app.Get("/health", handlers.HealthCheck)

	return app
}

// Start blocks serving the API until the listener fails or is shut down.
func (a *API) Start(addr string) error {
	return a.App().Listen(addr)
}
