package poller_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dukex/flowstudio/pkg/metrics"
	"github.com/dukex/flowstudio/pkg/mocks"
	"github.com/dukex/flowstudio/pkg/models"
	"github.com/dukex/flowstudio/pkg/notify"
	"github.com/dukex/flowstudio/pkg/poller"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedFetcher struct {
	mu      sync.Mutex
	results []result
	calls   int
}

type result struct {
	state string
	err   error
}

func (f *scriptedFetcher) GetExecution(_ context.Context, _, executionID string) (*models.Execution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := f.results[min(f.calls, len(f.results)-1)]
	f.calls++

	if r.err != nil {
		return nil, r.err
	}

	return &models.Execution{ID: executionID, State: r.state}, nil
}

func (f *scriptedFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

type recordingSink struct {
	mu     sync.Mutex
	states []string
}

func (s *recordingSink) ApplyExecution(execution models.Execution) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states = append(s.states, execution.State)
}

func (s *recordingSink) States() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.states...)
}

func waitDone(t *testing.T, p *poller.Poller) {
	t.Helper()

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPoller_DeliversTerminalStateThenStops(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{results: []result{
		{state: "ACTIVE"},
		{state: "STATE_IN_PROGRESS"},
		{state: "STATE_SUCCEEDED"},
	}}
	notifier := &mocks.RecordingNotifier{}
	sink := &recordingSink{}

	p := poller.New(fetcher, notifier, slog.Default(), poller.WithInterval(5*time.Millisecond))
	p.Start(t.Context(), "wf-1", "exec-1", sink)
	waitDone(t, p)

	assert.Equal(t, []string{"ACTIVE", "STATE_IN_PROGRESS", "STATE_SUCCEEDED"}, sink.States())
	assert.Equal(t, 3, fetcher.Calls())

	notifications := notifier.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, notify.LevelSuccess, notifications[0].Level)
	assert.Equal(t, "exec-1", notifications[0].ExecutionID)
	assert.Equal(t, models.ExecutionStateSucceeded, notifications[0].State)
}

func TestPoller_FailureNotification(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{results: []result{{state: "FAILED"}}}
	notifier := &mocks.RecordingNotifier{}

	p := poller.New(fetcher, notifier, slog.Default(), poller.WithInterval(5*time.Millisecond))
	p.Start(t.Context(), "wf-1", "exec-1", &recordingSink{})
	waitDone(t, p)

	notifications := notifier.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, notify.LevelFailure, notifications[0].Level)
}

func TestPoller_FetchErrorKeepsPolling(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{results: []result{
		{err: errors.New("connection reset")},
		{err: errors.New("connection reset")},
		{state: "SUCCEEDED"},
	}}
	sink := &recordingSink{}
	m := metrics.NewProm()

	p := poller.New(fetcher, &mocks.RecordingNotifier{}, slog.Default(),
		poller.WithInterval(5*time.Millisecond),
		poller.WithMetrics(m),
	)
	p.Start(t.Context(), "wf-1", "exec-1", sink)
	waitDone(t, p)

	assert.Equal(t, []string{"SUCCEEDED"}, sink.States())
	assert.Equal(t, 3, fetcher.Calls())

	expected := `
# HELP flowstudio_execution_polls_total Execution status requests by result
# TYPE flowstudio_execution_polls_total counter
flowstudio_execution_polls_total{result="error"} 2
flowstudio_execution_polls_total{result="ok"} 1
# HELP flowstudio_executions_finished_total Executions observed reaching a terminal state
# TYPE flowstudio_executions_finished_total counter
flowstudio_executions_finished_total{state="SUCCEEDED"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"flowstudio_execution_polls_total", "flowstudio_executions_finished_total"))
}

func TestPoller_StopTearsDownActivePolling(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{results: []result{{state: "ACTIVE"}}}
	notifier := &mocks.RecordingNotifier{}

	p := poller.New(fetcher, notifier, slog.Default(), poller.WithInterval(5*time.Millisecond))
	p.Start(t.Context(), "wf-1", "exec-1", &recordingSink{})

	require.Eventually(t, func() bool { return fetcher.Calls() >= 2 }, time.Second, time.Millisecond)

	p.Stop()
	p.Stop()

	calls := fetcher.Calls()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, calls, fetcher.Calls(), "no fetch after stop")
	assert.Empty(t, notifier.Notifications())
}

func TestPoller_StopBeforeStart(t *testing.T) {
	t.Parallel()

	p := poller.New(&scriptedFetcher{}, notify.Discard{}, slog.Default())
	p.Stop()

	select {
	case <-p.Done():
	default:
		t.Fatal("Done must be closed when nothing is polling")
	}
}

type perExecutionFetcher map[string]string

func (f perExecutionFetcher) GetExecution(_ context.Context, _, executionID string) (*models.Execution, error) {
	return &models.Execution{ID: executionID, State: f[executionID]}, nil
}

func TestPoller_ConcurrentStartsLeaveOneLoop(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{results: []result{{state: "ACTIVE"}}}
	p := poller.New(fetcher, &mocks.RecordingNotifier{}, slog.Default(), poller.WithInterval(time.Millisecond))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			p.Start(t.Context(), "wf-1", "exec-1", &recordingSink{})
		}()
	}

	wg.Wait()
	p.Stop()

	calls := fetcher.Calls()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, calls, fetcher.Calls(), "no polling loop survives Stop")
}

func TestPoller_StartReplacesPreviousExecution(t *testing.T) {
	t.Parallel()

	fetcher := perExecutionFetcher{"exec-1": "ACTIVE", "exec-2": "SUCCEEDED"}
	notifier := &mocks.RecordingNotifier{}
	p := poller.New(fetcher, notifier, slog.Default(), poller.WithInterval(5*time.Millisecond))

	first := &recordingSink{}
	p.Start(t.Context(), "wf-1", "exec-1", first)

	require.Eventually(t, func() bool { return len(first.States()) >= 1 }, time.Second, time.Millisecond)

	second := &recordingSink{}
	p.Start(t.Context(), "wf-1", "exec-2", second)
	waitDone(t, p)

	firstCount := len(first.States())
	time.Sleep(20 * time.Millisecond)

	assert.Len(t, first.States(), firstCount, "previous execution no longer polled")
	assert.Equal(t, []string{"SUCCEEDED"}, second.States())

	notifications := notifier.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "exec-2", notifications[0].ExecutionID)
}
