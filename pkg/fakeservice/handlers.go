package fakeservice

import (
	"fmt"
	"strconv"

	"github.com/dukex/flowstudio/pkg/metrics"
	"github.com/dukex/flowstudio/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type handlers struct {
	store    *store
	validate *validator.Validate
	metrics  metrics.ServiceMetrics
}

func (h *handlers) getWorkflow(c fiber.Ctx) error {
	workflow, err := h.store.get(c.Params("id"))
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(workflow)
}

func (h *handlers) createWorkflow(c fiber.Ctx) error {
	var req models.CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.validateSteps(req.Steps); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := h.store.create(req)
	h.metrics.IncWorkflowsSaved("create")

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *handlers) updateWorkflow(c fiber.Ctx) error {
	var req models.UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.validateSteps(req.Steps); err != nil {
		return badRequest(c, err.Error())
	}

	workflow, err := h.store.update(c.Params("id"), req)
	if err != nil {
		return handleStoreError(c, err)
	}

	h.metrics.IncWorkflowsSaved("update")

	return c.JSON(workflow)
}

func (h *handlers) deleteWorkflow(c fiber.Ctx) error {
	if err := h.store.delete(c.Params("id")); err != nil {
		return handleStoreError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) searchWorkflows(c fiber.Ctx) error {
	var req models.SearchWorkflowsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(h.store.search(req))
}

func (h *handlers) executeWorkflow(c fiber.Ctx) error {
	var req models.ExecuteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	executionID, err := h.store.execute(c.Params("id"), req.Args)
	if err != nil {
		return handleStoreError(c, err)
	}

	h.metrics.IncExecutionsStarted()

	return c.Status(fiber.StatusAccepted).JSON(models.ExecuteResponse{ExecutionID: executionID})
}

// getExecution moves the execution forward one step before answering.
func (h *handlers) getExecution(c fiber.Ctx) error {
	execution, err := h.store.advance(c.Params("id"), c.Params("executionId"))
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(execution)
}

func (h *handlers) listExecutions(c fiber.Ctx) error {
	query := models.ListExecutionsQuery{
		PageToken: c.Query("page_token"),
		Status:    c.Query("status"),
	}

	if limit := c.Query("limit"); limit != "" {
		size, err := strconv.Atoi(limit)
		if err != nil {
			return badRequest(c, "Invalid limit")
		}

		query.PageSize = size
	}

	page, err := h.store.list(c.Params("id"), query)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(page)
}

func (h *handlers) validateSteps(steps []models.Step) error {
	if err := h.validate.Var(steps, "unique=StepID"); err != nil {
		return fmt.Errorf("duplicate step id: %w", err)
	}

	for _, step := range steps {
		if err := h.validate.Var(string(step.Type), "required,steptype"); err != nil {
			return fmt.Errorf("step %s: unknown type %q", step.StepID, step.Type)
		}
	}

	return nil
}
