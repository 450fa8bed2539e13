package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dukex/flowstudio/pkg/document"
	"github.com/dukex/flowstudio/pkg/editor"
	"github.com/dukex/flowstudio/pkg/fakeservice"
	"github.com/dukex/flowstudio/pkg/models"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := newRootCommand()
	root.Writer = &out
	root.ErrWriter = &out

	err := root.Run(t.Context(), append([]string{"studio"}, args...))

	return out.String(), err
}

func writeWorkflowFile(t *testing.T) string {
	t.Helper()

	workflow := models.Workflow{
		Name: "Caption writer",
		Steps: []models.Step{
			{
				StepID:  models.UserInputStepID,
				Type:    models.StepTypeUserInput,
				Outputs: map[string]models.StepOutput{"topic": {Type: "text"}},
			},
			{
				StepID:  "generate_text_1",
				Type:    models.StepTypeGenerateText,
				Inputs:  map[string]models.Value{"prompt": models.Reference(models.UserInputStepID, "topic")},
				Outputs: map[string]models.StepOutput{"generated_text": {Type: "text"}},
			},
		},
	}

	data, err := json.Marshal(workflow)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "workflow.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func TestCLI_SaveShowRunList(t *testing.T) {
	server := httptest.NewServer(adaptor.FiberApp(fakeservice.New(slog.Default(), fakeservice.WithoutRequestLog()).App()))
	t.Cleanup(server.Close)

	out, err := runCLI(t, "--api-url", server.URL, "--workspace-id", "ws-1", "workflow", "save", "--file", writeWorkflowFile(t))
	require.NoError(t, err)

	workflowID := strings.TrimSpace(out)
	require.NotEmpty(t, workflowID)

	out, err = runCLI(t, "--api-url", server.URL, "workflow", "show", workflowID)
	require.NoError(t, err)
	assert.Contains(t, out, "Caption writer")
	assert.Contains(t, out, "Generate Text")
	assert.Contains(t, out, "<- user_input.topic")

	out, err = runCLI(t, "--api-url", server.URL, "--poll-interval", "10ms",
		"workflow", "run", "--param", "topic=cats", workflowID)
	require.NoError(t, err)
	assert.Contains(t, out, "SUCCEEDED")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "generated_text output of generate_text_1")

	out, err = runCLI(t, "--api-url", server.URL, "executions", "list", workflowID)
	require.NoError(t, err)
	assert.Contains(t, out, "SUCCEEDED")

	_, err = runCLI(t, "--api-url", server.URL, "workflow", "run", workflowID)
	require.ErrorIs(t, err, editor.ErrMissingParameter)
}

func TestCLI_Catalog(t *testing.T) {
	out, err := runCLI(t, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "generate_text")
	assert.Contains(t, out, "virtual_try_on")

	out, err = runCLI(t, "catalog", "--schema", "generate_image")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "object", schema["type"])

	_, err = runCLI(t, "catalog", "teleport")
	require.Error(t, err)
}

func TestCLI_RejectsInvalidConfig(t *testing.T) {
	_, err := runCLI(t, "--api-url", "not a url", "workflow", "show", "wf-1")
	require.Error(t, err)
}

func TestParseParams(t *testing.T) {
	t.Parallel()

	params, err := parseParams([]string{"topic=cats", " style = a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"topic": "cats", "style": " a=b"}, params)

	_, err = parseParams([]string{"novalue"})
	require.ErrorIs(t, err, errInvalidParam)

	_, err = parseParams([]string{"=value"})
	require.ErrorIs(t, err, errInvalidParam)
}

func TestCLI_RunNoWaitReturnsOnceStarted(t *testing.T) {
	server := httptest.NewServer(adaptor.FiberApp(fakeservice.New(slog.Default(), fakeservice.WithoutRequestLog()).App()))
	t.Cleanup(server.Close)

	out, err := runCLI(t, "--api-url", server.URL, "workflow", "save", "--file", writeWorkflowFile(t))
	require.NoError(t, err)

	workflowID := strings.TrimSpace(out)

	out, err = runCLI(t, "--api-url", server.URL, "workflow", "run", "--no-wait", "--param", "topic=cats", workflowID)
	require.NoError(t, err)
	assert.Contains(t, out, "started")
	assert.NotContains(t, out, "SUCCEEDED")
}

func TestPrintRunResult_SortsOutputs(t *testing.T) {
	t.Parallel()

	state := editor.State{
		ExecutionID:    "exec-1",
		ExecutionState: models.ExecutionStateSucceeded,
		Document: &document.Document{
			Steps: []models.Step{{
				StepID: "generate_image_1",
				Status: models.StepStatusCompleted,
				Outputs: map[string]models.StepOutput{
					"zoomed":  {Type: "image", Value: json.RawMessage(`"gs://z.png"`)},
					"cropped": {Type: "image", Value: json.RawMessage(`"gs://c.png"`)},
					"mask":    {Type: "image", Value: json.RawMessage(`"gs://m.png"`)},
				},
			}},
		},
	}

	for range 5 {
		var out bytes.Buffer
		printRunResult(&runtime{out: &out}, state)

		text := out.String()
		cropped := strings.Index(text, "cropped")
		mask := strings.Index(text, "mask")
		zoomed := strings.Index(text, "zoomed")

		require.True(t, cropped >= 0 && mask >= 0 && zoomed >= 0, text)
		assert.Less(t, cropped, mask)
		assert.Less(t, mask, zoomed)
	}
}
