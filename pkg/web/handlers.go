// Package web provides the HTTP surface for managing and running automations.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/webpilot-io/webpilot/pkg/app"
	"github.com/webpilot-io/webpilot/pkg/models"
	"github.com/webpilot-io/webpilot/pkg/persistence"
	"github.com/webpilot-io/webpilot/pkg/scheduler"
)

const defaultLogLimit = 20

type APIHandlers struct {
	service   *app.Service
	store     persistence.Persistence
	scheduler *scheduler.Scheduler
	validator *validator.Validate
	logger    *slog.Logger
}

func NewAPIHandlers(
	service *app.Service,
	store persistence.Persistence,
	sched *scheduler.Scheduler,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		service:   service,
		store:     store,
		scheduler: sched,
		validator: validator,
		logger:    logger,
	}
}

func (h *APIHandlers) GetAutomations(c fiber.Ctx) error {
	automations, err := h.store.Automations().List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"automations": automations,
		"total_count": len(automations),
	})
}

func (h *APIHandlers) GetAutomation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Automation ID is required")
	}

	automation, err := h.store.Automations().GetByID(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	if automation == nil {
		return notFound(c, "Automation not found")
	}

	return c.JSON(automation)
}

func (h *APIHandlers) CreateAutomation(c fiber.Ctx) error {
	var req CreateAutomationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	automation := &models.Automation{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Nodes:     req.Nodes,
		Edges:     req.Edges,
		Variables: req.Variables,
		Schedule:  req.Schedule,
		Headless:  req.Headless,
		Enabled:   req.Enabled,
	}

	if err := automation.Validate(); err != nil {
		return handleModelError(c, err)
	}

	if err := h.store.Automations().Save(c.Context(), automation); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(automation)
}

func (h *APIHandlers) UpdateAutomation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Automation ID is required")
	}

	var req UpdateAutomationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.store.Automations().GetByID(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	if existing == nil {
		return notFound(c, "Automation not found")
	}

	automation := &models.Automation{
		ID:        id,
		Name:      req.Name,
		Nodes:     req.Nodes,
		Edges:     req.Edges,
		Variables: req.Variables,
		Schedule:  req.Schedule,
		Headless:  req.Headless,
		Enabled:   req.Enabled,
		CreatedAt: existing.CreatedAt,
	}

	if err := automation.Validate(); err != nil {
		return handleModelError(c, err)
	}

	if err := h.store.Automations().Save(c.Context(), automation); err != nil {
		return internalError(c, err)
	}

	return c.JSON(automation)
}

func (h *APIHandlers) DeleteAutomation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Automation ID is required")
	}

	if err := h.store.Automations().Delete(c.Context(), id); err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RunAutomation executes the automation synchronously and returns the
// execution log entry. Long graphs hold the request open; this API fronts a
// single-operator tool, not a job queue.
func (h *APIHandlers) RunAutomation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Automation ID is required")
	}

	var req RunAutomationRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	entry, err := h.service.RunAndLog(c.Context(), id, req.Headless)
	if err != nil && entry == nil {
		if errors.Is(err, app.ErrAutomationNotFound) {
			return notFound(c, "Automation not found")
		}

		return internalError(c, err)
	}

	return c.JSON(entry)
}

func (h *APIHandlers) GetAutomationLogs(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Automation ID is required")
	}

	limit := defaultLogLimit

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			return badRequest(c, "Invalid limit parameter")
		}

		limit = parsed
	}

	entries, err := h.store.Logs().Recent(c.Context(), id, limit)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"logs": entries, "count": len(entries)})
}

func (h *APIHandlers) GetSchedules(c fiber.Ctx) error {
	records, err := h.store.Schedules().List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"schedules": records, "total_count": len(records)})
}

func (h *APIHandlers) GetSchedule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schedule ID is required")
	}

	record, err := h.store.Schedules().GetByID(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	if record == nil {
		return notFound(c, "Schedule not found")
	}

	return c.JSON(record)
}

// CreateSchedule persists a schedule record and arms it immediately. A spec
// that fails validation is rejected before anything is stored.
func (h *APIHandlers) CreateSchedule(c fiber.Ctx) error {
	var req CreateScheduleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	automation, err := h.store.Automations().GetByID(c.Context(), req.AutomationID)
	if err != nil {
		return internalError(c, err)
	}

	if automation == nil {
		return notFound(c, "Automation not found")
	}

	record := &models.ScheduleRecord{
		ID:             uuid.New().String(),
		AutomationID:   automation.ID,
		AutomationName: automation.Name,
		Spec:           req.Spec,
		Enabled:        true,
		Headless:       req.Headless,
	}

	if err := record.Validate(); err != nil {
		return handleModelError(c, err)
	}

	if err := h.store.Schedules().Save(c.Context(), record); err != nil {
		return internalError(c, err)
	}

	if err := h.scheduler.Activate(c.Context(), record); err != nil {
		return handleModelError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *APIHandlers) DeleteSchedule(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schedule ID is required")
	}

	h.scheduler.Deactivate(id)

	if err := h.store.Schedules().Delete(c.Context(), id); err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) SetScheduleEnabled(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Schedule ID is required")
	}

	var req SetScheduleEnabledRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	record, err := h.store.Schedules().GetByID(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	if record == nil {
		return notFound(c, "Schedule not found")
	}

	if err := h.scheduler.SetEnabled(c.Context(), id, *req.Enabled); err != nil {
		return internalError(c, err)
	}

	record.Enabled = *req.Enabled

	return c.JSON(record)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	storeErr := h.store.HealthCheck(c.Context())

	status := "healthy"
	httpStatus := http.StatusOK

	if storeErr != nil {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":        status,
		"active_tasks":  len(h.scheduler.Tasks()),
		"registry_size": len(h.service.Registry().StepTypes()),
		"timestamp":     time.Now().UTC(),
	})
}
