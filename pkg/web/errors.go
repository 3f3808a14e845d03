package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/webpilot-io/webpilot/pkg/models"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleModelError maps model validation sentinels to 400s so callers see
// what is wrong with the document instead of a blank 500.
func handleModelError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrAutomationInvalid),
		errors.Is(err, models.ErrEdgeEndpointUnknown),
		errors.Is(err, models.ErrEdgeBranchInvalid),
		errors.Is(err, models.ErrEdgeBranchDuplicate),
		errors.Is(err, models.ErrNodeMissingStep),
		errors.Is(err, models.ErrNodeMissingCondition),
		errors.Is(err, models.ErrNodeKindInvalid),
		errors.Is(err, models.ErrConditionMissingDOM),
		errors.Is(err, models.ErrConditionMissingVariable),
		errors.Is(err, models.ErrConditionMissingExpression),
		errors.Is(err, models.ErrConditionKindInvalid),
		errors.Is(err, models.ErrScheduleInvalid):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}
