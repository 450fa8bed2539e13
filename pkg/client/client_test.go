package client_test

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/flowstudio/pkg/client"
	"github.com/dukex/flowstudio/pkg/fakeservice"
	"github.com/dukex/flowstudio/pkg/models"
	"github.com/dukex/flowstudio/pkg/otelhelper"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newFakeServer(t *testing.T, opts ...fakeservice.Option) *httptest.Server {
	t.Helper()

	opts = append(opts, fakeservice.WithoutRequestLog())
	server := httptest.NewServer(adaptor.FiberApp(fakeservice.New(slog.Default(), opts...).App()))
	t.Cleanup(server.Close)

	return server
}

func simpleWorkflow() models.CreateWorkflowRequest {
	return models.CreateWorkflowRequest{
		Name:        "Caption",
		WorkspaceID: "ws-1",
		Steps: []models.Step{
			{
				StepID:  models.UserInputStepID,
				Type:    models.StepTypeUserInput,
				Outputs: map[string]models.StepOutput{"topic": {Type: "text"}},
			},
			{
				StepID:   "generate_text_1",
				Type:     models.StepTypeGenerateText,
				Inputs:   map[string]models.Value{"prompt": models.Reference(models.UserInputStepID, "topic")},
				Settings: map[string]models.Value{"temperature": models.Number(0.5)},
				Outputs:  map[string]models.StepOutput{"generated_text": {Type: "text"}},
			},
		},
	}
}

func TestClient_WorkflowLifecycle(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	c := client.New(server.URL)

	created, err := c.CreateWorkflow(t.Context(), simpleWorkflow())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	fetched, err := c.GetWorkflow(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Caption", fetched.Name)
	require.Len(t, fetched.Steps, 2)
	assert.InDelta(t, 0.5, fetched.Steps[1].Settings["temperature"].NumberValue(), 0.0001)

	updated, err := c.UpdateWorkflow(t.Context(), created.ID, models.UpdateWorkflowRequest{
		Name:        "Caption v2",
		WorkspaceID: "ws-1",
		Steps:       fetched.Steps,
	})
	require.NoError(t, err)
	assert.Equal(t, "Caption v2", updated.Name)

	page, err := c.SearchWorkflows(t.Context(), models.SearchWorkflowsRequest{WorkspaceID: "ws-1"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)
	assert.Equal(t, created.ID, page.Data[0].ID)

	require.NoError(t, c.DeleteWorkflow(t.Context(), created.ID))

	_, err = c.GetWorkflow(t.Context(), created.ID)
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))
}

func TestClient_ExecutionRoundTrip(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	c := client.New(server.URL)

	created, err := c.CreateWorkflow(t.Context(), simpleWorkflow())
	require.NoError(t, err)

	executionID, err := c.ExecuteWorkflow(t.Context(), created.ID, map[string]string{"topic": "cats"})
	require.NoError(t, err)
	require.NotEmpty(t, executionID)

	execution, err := c.GetExecution(t.Context(), created.ID, executionID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStateActive, execution.NormalizedState())

	execution, err = c.GetExecution(t.Context(), created.ID, executionID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStateSucceeded, execution.NormalizedState())
	assert.JSONEq(t, `"generated_text output of generate_text_1"`,
		string(execution.StepEntries[0].ReportedOutputs()["generated_text"]))

	page, err := c.ListExecutions(t.Context(), created.ID, models.ListExecutionsQuery{PageSize: 20, Status: "SUCCEEDED"})
	require.NoError(t, err)
	require.Len(t, page.Executions, 1)
	assert.Equal(t, executionID, page.Executions[0].ID)
}

func TestClient_DecodesProblemDetail(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	c := client.New(server.URL)

	created, err := c.CreateWorkflow(t.Context(), simpleWorkflow())
	require.NoError(t, err)

	_, err = c.ExecuteWorkflow(t.Context(), created.ID, nil)
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "validation_error", apiErr.Type)
	assert.Equal(t, "missing argument: topic", apiErr.UserMessage())
	assert.False(t, client.IsNotFound(err))
}

func TestClient_DecodesDetailShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantTitle   string
	}{
		{
			name:        "string detail",
			status:      fiber.StatusUnprocessableEntity,
			body:        `{"detail":"Workflow name is required"}`,
			wantMessage: "Workflow name is required",
			wantTitle:   "Unprocessable Entity",
		},
		{
			name:        "validation list",
			status:      fiber.StatusUnprocessableEntity,
			body:        `{"detail":[{"loc":["body","name"],"msg":"field required"},{"msg":"too short"}]}`,
			wantMessage: "field required; too short",
			wantTitle:   "Unprocessable Entity",
		},
		{
			name:      "server error hides detail",
			status:    fiber.StatusInternalServerError,
			body:      `{"title":"Internal Server Error","detail":"stack trace"}`,
			wantTitle: "Internal Server Error",
		},
		{
			name:      "not json",
			status:    fiber.StatusBadGateway,
			body:      `upstream down`,
			wantTitle: "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := fiber.New()
			app.Get("/api/workflows/:id", func(c fiber.Ctx) error {
				return c.Status(tt.status).SendString(tt.body)
			})

			server := httptest.NewServer(adaptor.FiberApp(app))
			t.Cleanup(server.Close)

			_, err := client.New(server.URL).GetWorkflow(t.Context(), "wf-1")

			var apiErr *client.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.UserMessage())
			assert.Equal(t, tt.wantTitle, apiErr.Title)
			assert.Contains(t, apiErr.Error(), "get workflow")
		})
	}
}

func TestClient_SendsAuthorization(t *testing.T) {
	t.Parallel()

	var got string

	app := fiber.New()
	app.Get("/api/workflows/:id", func(c fiber.Ctx) error {
		got = c.Get(fiber.HeaderAuthorization)

		return c.JSON(models.Workflow{ID: c.Params("id"), Name: "Secured"})
	})

	server := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(server.Close)

	workflow, err := client.New(server.URL, client.WithAuthToken("token-1")).GetWorkflow(t.Context(), "wf-9")
	require.NoError(t, err)
	assert.Equal(t, "wf-9", workflow.ID)
	assert.Equal(t, "Bearer token-1", got)
}

func TestClient_RecordsSpans(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	server := newFakeServer(t)
	c := client.New(server.URL, client.WithTracer(provider.Tracer("test")))

	_, err := c.GetWorkflow(t.Context(), "missing")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "client.GetWorkflow", spans[0].Name())
	assert.Equal(t, "Error", spans[0].Status().Code.String())

	var workflowID string

	for _, attr := range spans[0].Attributes() {
		if string(attr.Key) == otelhelper.WorkflowIDKey {
			workflowID = attr.Value.AsString()
		}
	}

	assert.Equal(t, "missing", workflowID)
}

func TestAPIError_Unwrap(t *testing.T) {
	t.Parallel()

	notFound := &client.APIError{Op: "get execution", StatusCode: http.StatusNotFound}
	assert.ErrorIs(t, notFound, client.ErrNotFound)

	conflict := &client.APIError{Op: "update workflow", StatusCode: http.StatusConflict, Detail: "stale"}
	assert.False(t, errors.Is(conflict, client.ErrNotFound))
	assert.Equal(t, "update workflow: status 409: stale", conflict.Error())
}
