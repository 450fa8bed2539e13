package history_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/flowstudio/pkg/history"
	"github.com/dukex/flowstudio/pkg/mocks"
	"github.com/dukex/flowstudio/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func rows(ids ...string) []models.ExecutionSummary {
	summaries := make([]models.ExecutionSummary, 0, len(ids))
	for _, id := range ids {
		summaries = append(summaries, models.ExecutionSummary{ID: id, State: "SUCCEEDED"})
	}

	return summaries
}

func executionIDs(summaries []models.ExecutionSummary) []string {
	ids := make([]string, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, s.ID)
	}

	return ids
}

func TestHistory_LoadAndLoadMoreAppend(t *testing.T) {
	t.Parallel()

	service := &mocks.MockWorkflowService{}
	service.On("ListExecutions", mock.Anything, "wf-1", models.ListExecutionsQuery{PageSize: 20}).
		Return(&models.ExecutionPage{Executions: rows("e3", "e2"), NextPageToken: "t1"}, nil).Once()
	service.On("ListExecutions", mock.Anything, "wf-1", models.ListExecutionsQuery{PageSize: 20, PageToken: "t1"}).
		Return(&models.ExecutionPage{Executions: rows("e1")}, nil).Once()

	h := history.NewHistory(service, "wf-1", slog.Default())

	require.NoError(t, h.Load(t.Context()))
	assert.Equal(t, []string{"e3", "e2"}, executionIDs(h.Executions()))
	assert.True(t, h.HasMore())

	require.NoError(t, h.LoadMore(t.Context()))
	assert.Equal(t, []string{"e3", "e2", "e1"}, executionIDs(h.Executions()))
	assert.False(t, h.HasMore())

	require.NoError(t, h.LoadMore(t.Context()), "no continuation token means nothing to load")

	service.AssertExpectations(t)
}

func TestHistory_StatusFilterReloads(t *testing.T) {
	t.Parallel()

	service := &mocks.MockWorkflowService{}
	service.On("ListExecutions", mock.Anything, "wf-1", models.ListExecutionsQuery{PageSize: 20}).
		Return(&models.ExecutionPage{Executions: rows("e2", "e1")}, nil).Once()
	service.On("ListExecutions", mock.Anything, "wf-1", models.ListExecutionsQuery{PageSize: 20, Status: "FAILED"}).
		Return(&models.ExecutionPage{Executions: rows("e1")}, nil).Once()
	service.On("ListExecutions", mock.Anything, "wf-1", models.ListExecutionsQuery{PageSize: 20}).
		Return(&models.ExecutionPage{Executions: rows("e2", "e1")}, nil).Once()

	h := history.NewHistory(service, "wf-1", slog.Default())

	require.NoError(t, h.Load(t.Context()))
	require.NoError(t, h.SetStatusFilter(t.Context(), "FAILED"))
	assert.Equal(t, "FAILED", h.StatusFilter())
	assert.Equal(t, []string{"e1"}, executionIDs(h.Executions()))

	require.NoError(t, h.SetStatusFilter(t.Context(), history.StatusAll))
	assert.Equal(t, []string{"e2", "e1"}, executionIDs(h.Executions()))

	service.AssertExpectations(t)
}

func TestHistory_FailsOpen(t *testing.T) {
	t.Parallel()

	service := &mocks.MockWorkflowService{}
	service.On("ListExecutions", mock.Anything, "wf-1", models.ListExecutionsQuery{PageSize: 20}).
		Return(&models.ExecutionPage{Executions: rows("e3", "e2"), NextPageToken: "t1"}, nil).Once()
	service.On("ListExecutions", mock.Anything, "wf-1", mock.Anything).
		Return(nil, errors.New("service unavailable"))

	h := history.NewHistory(service, "wf-1", slog.Default())

	require.NoError(t, h.Load(t.Context()))
	require.Error(t, h.LoadMore(t.Context()))
	require.Error(t, h.Load(t.Context()))

	assert.Equal(t, []string{"e3", "e2"}, executionIDs(h.Executions()))
	assert.Equal(t, "t1", h.NextPageToken())
	assert.False(t, h.Loading())
}

type blockingLister struct {
	started chan struct{}
	release chan struct{}
	calls   int
}

func (l *blockingLister) ListExecutions(context.Context, string, models.ListExecutionsQuery) (*models.ExecutionPage, error) {
	l.calls++
	close(l.started)
	<-l.release

	return &models.ExecutionPage{Executions: rows("e1")}, nil
}

func TestHistory_IgnoresCallsWhileLoading(t *testing.T) {
	t.Parallel()

	lister := &blockingLister{started: make(chan struct{}), release: make(chan struct{})}
	h := history.NewHistory(lister, "wf-1", slog.Default())

	done := make(chan error, 1)

	go func() { done <- h.Load(context.Background()) }()

	<-lister.started
	assert.True(t, h.Loading())
	require.NoError(t, h.Load(t.Context()))

	close(lister.release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("load did not finish")
	}

	assert.Equal(t, 1, lister.calls)
	assert.Equal(t, []string{"e1"}, executionIDs(h.Executions()))
}

func TestDetails_LoadKeepsPreviousOnError(t *testing.T) {
	t.Parallel()

	service := &mocks.MockWorkflowService{}
	service.On("GetExecution", mock.Anything, "wf-1", "e1").Return(&models.Execution{
		ID:    "e1",
		State: "SUCCEEDED",
		StepEntries: []models.StepEntry{
			{StepID: "generate_text_1", State: "STATE_SUCCEEDED", StepOutputs: json.RawMessage(`{"generated_text":"hi"}`)},
		},
	}, nil).Once()
	service.On("GetExecution", mock.Anything, "wf-1", "e2").Return(nil, errors.New("timeout")).Once()

	d := history.NewDetails(service, slog.Default())

	_, ok := d.Execution()
	assert.False(t, ok)

	require.NoError(t, d.Load(t.Context(), "wf-1", "e1"))
	assert.True(t, d.ToggleStep("generate_text_1"))
	assert.True(t, d.Expanded("generate_text_1"))

	require.Error(t, d.Load(t.Context(), "wf-1", "e2"))

	execution, ok := d.Execution()
	require.True(t, ok)
	assert.Equal(t, "e1", execution.ID)
	assert.True(t, d.Expanded("generate_text_1"))
	assert.False(t, d.Loading())

	assert.False(t, d.ToggleStep("generate_text_1"))
	service.AssertExpectations(t)
}

func TestHasData(t *testing.T) {
	t.Parallel()

	assert.False(t, history.HasData(nil))
	assert.False(t, history.HasData(json.RawMessage(`null`)))
	assert.False(t, history.HasData(json.RawMessage(` {} `)))
	assert.False(t, history.HasData(json.RawMessage(`[]`)))
	assert.True(t, history.HasData(json.RawMessage(`{"prompt":"hi"}`)))
	assert.True(t, history.HasData(json.RawMessage(`"gs://a.png"`)))
}
