package history

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukex/flowstudio/pkg/models"
)

// Fetcher loads a single execution.
type Fetcher interface {
	GetExecution(ctx context.Context, workflowID, executionID string) (*models.Execution, error)
}

// Details holds the execution opened from the history list. It is loaded on
// explicit request and never polled.
type Details struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu        sync.Mutex
	execution *models.Execution
	loading   bool
	expanded  map[string]bool
}

func NewDetails(fetcher Fetcher, logger *slog.Logger) *Details {
	return &Details{fetcher: fetcher, logger: logger, expanded: map[string]bool{}}
}

// Load fetches an execution. On failure the previous details stay in place.
func (d *Details) Load(ctx context.Context, workflowID, executionID string) error {
	d.mu.Lock()

	if d.loading {
		d.mu.Unlock()

		return nil
	}

	d.loading = true
	d.mu.Unlock()

	execution, err := d.fetcher.GetExecution(ctx, workflowID, executionID)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.loading = false

	if err != nil {
		d.logger.Error("Failed to load execution details", "error", err, "workflow_id", workflowID, "execution_id", executionID)

		return err
	}

	if d.execution == nil || d.execution.ID != execution.ID {
		d.expanded = map[string]bool{}
	}

	d.execution = execution

	return nil
}

// Execution returns the loaded execution, if any.
func (d *Details) Execution() (models.Execution, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.execution == nil {
		return models.Execution{}, false
	}

	execution := *d.execution
	execution.StepEntries = append([]models.StepEntry(nil), d.execution.StepEntries...)

	return execution, true
}

func (d *Details) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.loading
}

// ToggleStep flips whether a step entry is expanded and returns the new value.
func (d *Details) ToggleStep(stepID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.expanded[stepID] = !d.expanded[stepID]

	return d.expanded[stepID]
}

func (d *Details) Expanded(stepID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.expanded[stepID]
}

// HasData reports whether a step entry's inputs or outputs carry anything worth showing.
func HasData(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)

	switch string(trimmed) {
	case "", "null", "{}", "[]", `""`:
		return false
	default:
		return true
	}
}
