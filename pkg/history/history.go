// Package history pages through past executions of a workflow and loads
// single executions on demand. Both fail open: a failed request keeps what
// was already loaded.
package history

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/dukex/flowstudio/pkg/models"
)

const (
	PageSize = 20

	// StatusAll disables the status filter.
	StatusAll = "ALL"
)

// Lister loads one page of executions.
type Lister interface {
	ListExecutions(ctx context.Context, workflowID string, query models.ListExecutionsQuery) (*models.ExecutionPage, error)
}

// History is the paginated execution list of one workflow.
type History struct {
	lister     Lister
	logger     *slog.Logger
	workflowID string

	mu         sync.Mutex
	executions []models.ExecutionSummary
	nextToken  string
	status     string
	loading    bool
}

func NewHistory(lister Lister, workflowID string, logger *slog.Logger) *History {
	return &History{
		lister:     lister,
		workflowID: workflowID,
		logger:     logger.With("workflow_id", workflowID),
		status:     StatusAll,
	}
}

// Load replaces the list with the first page.
func (h *History) Load(ctx context.Context) error {
	return h.fetch(ctx, false, nil)
}

// LoadMore appends the next page. It does nothing when there is no next page.
func (h *History) LoadMore(ctx context.Context) error {
	return h.fetch(ctx, true, nil)
}

// SetStatusFilter changes the filter and reloads from the first page.
func (h *History) SetStatusFilter(ctx context.Context, status string) error {
	if status == "" {
		status = StatusAll
	}

	return h.fetch(ctx, false, &status)
}

func (h *History) fetch(ctx context.Context, more bool, status *string) error {
	h.mu.Lock()

	if h.loading {
		h.mu.Unlock()
		h.logger.Debug("Ignoring history request while loading")

		return nil
	}

	if more && h.nextToken == "" {
		h.mu.Unlock()

		return nil
	}

	if status != nil {
		h.status = *status
	}

	query := models.ListExecutionsQuery{PageSize: PageSize}
	if h.status != StatusAll {
		query.Status = h.status
	}

	if more {
		query.PageToken = h.nextToken
	}

	h.loading = true
	h.mu.Unlock()

	page, err := h.lister.ListExecutions(ctx, h.workflowID, query)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.loading = false

	if err != nil {
		h.logger.Error("Failed to load executions", "error", err)

		return err
	}

	if more {
		h.executions = append(h.executions, page.Executions...)
	} else {
		h.executions = slices.Clone(page.Executions)
	}

	h.nextToken = page.NextPageToken

	return nil
}

// Executions returns the rows loaded so far.
func (h *History) Executions() []models.ExecutionSummary {
	h.mu.Lock()
	defer h.mu.Unlock()

	return slices.Clone(h.executions)
}

func (h *History) NextPageToken() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.nextToken
}

func (h *History) HasMore() bool {
	return h.NextPageToken() != ""
}

func (h *History) StatusFilter() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.status
}

func (h *History) Loading() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.loading
}
