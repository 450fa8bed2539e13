package fakeservice

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, kind, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusNotFound).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

func handleStoreError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrWorkflowNotFound):
		return notFound(c, "workflow_not_found", "Workflow not found")
	case errors.Is(err, ErrExecutionNotFound):
		return notFound(c, "execution_not_found", "Execution not found")
	case errors.Is(err, ErrInvalidPageToken), errors.Is(err, ErrMissingArgument):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}
