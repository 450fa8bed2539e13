// Package client talks to the workflow service over HTTP.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dukex/flowstudio/pkg/models"
	"github.com/dukex/flowstudio/pkg/otelhelper"
	"github.com/gofiber/fiber/v3"
	fiberclient "github.com/gofiber/fiber/v3/client"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dukex/flowstudio/pkg/client"

// Client implements the workflow service contract used by the editor,
// the poller and the history views.
type Client struct {
	http   *fiberclient.Client
	tracer trace.Tracer
	logger *slog.Logger
}

type Option func(*Client)

// WithAuthToken forwards the caller's credentials on every request.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.http.SetHeader("Authorization", "Bearer "+token)
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) { c.tracer = tracer }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:   fiberclient.New().SetBaseURL(baseURL),
		tracer: otel.Tracer(tracerName),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("module", "client")

	return c
}

func (c *Client) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.GetWorkflow",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	var workflow models.Workflow

	req := c.http.R().SetContext(ctx).SetPathParam("workflowID", id)
	if err := c.do(span, "get workflow", req, fiber.MethodGet, "/api/workflows/:workflowID", &workflow); err != nil {
		return nil, err
	}

	return &workflow, nil
}

func (c *Client) CreateWorkflow(ctx context.Context, body models.CreateWorkflowRequest) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.CreateWorkflow",
		attribute.String(otelhelper.WorkflowNameKey, body.Name))
	defer span.End()

	var workflow models.Workflow

	req := c.http.R().SetContext(ctx).SetJSON(body)
	if err := c.do(span, "create workflow", req, fiber.MethodPost, "/api/workflows", &workflow); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.WorkflowIDKey, workflow.ID))

	return &workflow, nil
}

func (c *Client) UpdateWorkflow(ctx context.Context, id string, body models.UpdateWorkflowRequest) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.UpdateWorkflow",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	var workflow models.Workflow

	req := c.http.R().SetContext(ctx).SetPathParam("workflowID", id).SetJSON(body)
	if err := c.do(span, "update workflow", req, fiber.MethodPut, "/api/workflows/:workflowID", &workflow); err != nil {
		return nil, err
	}

	return &workflow, nil
}

func (c *Client) DeleteWorkflow(ctx context.Context, id string) error {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.DeleteWorkflow",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	req := c.http.R().SetContext(ctx).SetPathParam("workflowID", id)

	return c.do(span, "delete workflow", req, fiber.MethodDelete, "/api/workflows/:workflowID", nil)
}

func (c *Client) SearchWorkflows(ctx context.Context, body models.SearchWorkflowsRequest) (*models.WorkflowPage, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.SearchWorkflows",
		attribute.String(otelhelper.WorkspaceIDKey, body.WorkspaceID))
	defer span.End()

	var page models.WorkflowPage

	req := c.http.R().SetContext(ctx).SetJSON(body)
	if err := c.do(span, "search workflows", req, fiber.MethodPost, "/api/workflows/search", &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// ExecuteWorkflow launches a run of a saved workflow and returns its execution id.
func (c *Client) ExecuteWorkflow(ctx context.Context, id string, args map[string]string) (string, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.ExecuteWorkflow",
		attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	if args == nil {
		args = map[string]string{}
	}

	var resp models.ExecuteResponse

	req := c.http.R().SetContext(ctx).SetPathParam("workflowID", id).SetJSON(models.ExecuteRequest{Args: args})
	if err := c.do(span, "execute workflow", req, fiber.MethodPost, "/api/workflows/:workflowID/workflow-execute", &resp); err != nil {
		return "", err
	}

	if resp.ExecutionID == "" {
		err := fmt.Errorf("execute workflow: %w: missing execution id", ErrBadResponse)
		otelhelper.SetError(span, err)

		return "", err
	}

	span.SetAttributes(attribute.String(otelhelper.ExecutionIDKey, resp.ExecutionID))

	return resp.ExecutionID, nil
}

func (c *Client) GetExecution(ctx context.Context, workflowID, executionID string) (*models.Execution, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.GetExecution",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.ExecutionIDKey, executionID))
	defer span.End()

	var execution models.Execution

	req := c.http.R().SetContext(ctx).
		SetPathParam("workflowID", workflowID).
		SetPathParam("executionID", executionID)
	if err := c.do(span, "get execution", req, fiber.MethodGet, "/api/workflows/:workflowID/executions/:executionID", &execution); err != nil {
		return nil, err
	}

	return &execution, nil
}

func (c *Client) ListExecutions(ctx context.Context, workflowID string, query models.ListExecutionsQuery) (*models.ExecutionPage, error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.ListExecutions",
		attribute.String(otelhelper.WorkflowIDKey, workflowID))
	defer span.End()

	req := c.http.R().SetContext(ctx).SetPathParam("workflowID", workflowID)

	if query.PageSize > 0 {
		req.SetParam("limit", strconv.Itoa(query.PageSize))
	}

	if query.PageToken != "" {
		req.SetParam("page_token", query.PageToken)
	}

	if query.Status != "" {
		req.SetParam("status", query.Status)
	}

	var page models.ExecutionPage
	if err := c.do(span, "list executions", req, fiber.MethodGet, "/api/workflows/:workflowID/executions", &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// do sends req and decodes a 2xx body into out when out is non-nil.
// Closing the response hands the request back to the pool.
func (c *Client) do(span trace.Span, op string, req *fiberclient.Request, method, path string, out any) error {
	resp, err := req.SetMethod(method).SetURL(path).Send()
	if err != nil {
		err = fmt.Errorf("%s: %w", op, err)
		otelhelper.SetError(span, err)
		c.logger.Error("Request failed", "op", op, "error", err)

		return err
	}
	defer resp.Close()

	status := resp.StatusCode()
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	if status < 200 || status > 299 {
		apiErr := newAPIError(op, status, resp.Body())
		otelhelper.SetError(span, apiErr)
		c.logger.Debug("Service returned an error", "op", op, "status", status, "detail", apiErr.Detail)

		return apiErr
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}

	if err := resp.JSON(out); err != nil {
		err = fmt.Errorf("%s: %w: %w", op, ErrBadResponse, err)
		otelhelper.SetError(span, err)

		return err
	}

	return nil
}
