// Package editor implements the workflow editor as an explicit state reducer.
// Every action replaces the current snapshot with a new one and rebuilds the
// output availability lists before returning.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/flowstudio/pkg/catalog"
	"github.com/dukex/flowstudio/pkg/document"
	"github.com/dukex/flowstudio/pkg/metrics"
	"github.com/dukex/flowstudio/pkg/models"
	"github.com/dukex/flowstudio/pkg/notify"
	"github.com/dukex/flowstudio/pkg/poller"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// WorkflowService is the part of the workflow service the editor talks to.
type WorkflowService interface {
	GetWorkflow(ctx context.Context, id string) (*models.Workflow, error)
	CreateWorkflow(ctx context.Context, req models.CreateWorkflowRequest) (*models.Workflow, error)
	UpdateWorkflow(ctx context.Context, id string, req models.UpdateWorkflowRequest) (*models.Workflow, error)
	ExecuteWorkflow(ctx context.Context, id string, args map[string]string) (string, error)
	GetExecution(ctx context.Context, workflowID, executionID string) (*models.Execution, error)
}

// Navigator updates the view address without reloading the editor.
type Navigator interface {
	Replace(route Route)
}

// ParameterPrompt collects one text value per user-input output definition.
// Returning ErrRunCancelled aborts the run without an error message.
type ParameterPrompt interface {
	CollectParameters(ctx context.Context, definitions []document.OutputDefinition) (map[string]string, error)
}

// ExecutionPoller follows a launched execution.
type ExecutionPoller interface {
	Start(ctx context.Context, workflowID, executionID string, sink poller.Sink)
	Stop()
}

type Option func(*Editor)

// WithIDGenerator overrides how new step ids are built.
func WithIDGenerator(newID func(models.StepType) string) Option {
	return func(e *Editor) { e.newID = newID }
}

func WithNavigator(navigator Navigator) Option {
	return func(e *Editor) { e.navigator = navigator }
}

func WithNotifier(notifier notify.Notifier) Option {
	return func(e *Editor) { e.notifier = notifier }
}

func WithParameterPrompt(prompt ParameterPrompt) Option {
	return func(e *Editor) { e.prompt = prompt }
}

// WithPollInterval sets the interval of the default poller.
func WithPollInterval(interval time.Duration) Option {
	return func(e *Editor) { e.pollInterval = interval }
}

// WithMetrics records polling counters of the default poller on m.
func WithMetrics(m metrics.PollMetrics) Option {
	return func(e *Editor) { e.metrics = m }
}

func WithPoller(p ExecutionPoller) Option {
	return func(e *Editor) { e.poller = p }
}

func WithValidator(v *validator.Validate) Option {
	return func(e *Editor) { e.validate = v }
}

type Editor struct {
	service   WorkflowService
	catalog   *catalog.Catalog
	logger    *slog.Logger
	validate  *validator.Validate
	notifier  notify.Notifier
	navigator Navigator
	prompt    ParameterPrompt
	poller    ExecutionPoller

	newID        func(models.StepType) string
	pollInterval time.Duration
	metrics      metrics.PollMetrics

	mu       sync.Mutex
	state    State
	revision uint64
	closed   bool
}

func New(service WorkflowService, c *catalog.Catalog, logger *slog.Logger, opts ...Option) *Editor {
	e := &Editor{
		service:      service,
		catalog:      c,
		logger:       logger,
		notifier:     notify.NewLog(logger),
		navigator:    noopNavigator{},
		prompt:       StaticParameters(nil),
		newID:        defaultStepID,
		pollInterval: poller.DefaultInterval,
		metrics:      metrics.Noop{},
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.validate == nil {
		e.validate = validator.New(validator.WithRequiredStructEnabled())
	}

	if e.poller == nil {
		e.poller = poller.New(service, e.notifier, logger,
			poller.WithInterval(e.pollInterval),
			poller.WithMetrics(e.metrics),
		)
	}

	doc := document.InitEmpty()
	e.state = State{Mode: ModeCreate, Document: doc, Available: ComputeAvailableOutputs(doc, c)}

	return e
}

func defaultStepID(stepType models.StepType) string {
	return fmt.Sprintf("%s_%s", stepType, uuid.NewString())
}

type noopNavigator struct{}

func (noopNavigator) Replace(Route) {}

// StaticParameters answers the parameter prompt from a fixed map.
type StaticParameters map[string]string

func (p StaticParameters) CollectParameters(_ context.Context, definitions []document.OutputDefinition) (map[string]string, error) {
	values := make(map[string]string, len(definitions))
	for _, def := range definitions {
		values[def.Name] = p[def.Name]
	}

	return values, nil
}

// State returns a copy of the current snapshot.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state.clone()
}

// Open resets the editor for route and loads what the mode needs.
func (e *Editor) Open(ctx context.Context, route Route) error {
	mode := route.Mode()
	if mode == ModeRun && route.WorkflowID == "" {
		return actionError("open", ErrRunRequiresWorkflow)
	}

	e.mu.Lock()

	if e.state.Loading {
		e.mu.Unlock()

		return actionError("open", ErrBusy)
	}

	// Held until the new state replaces it, so a concurrent Open stays busy.
	e.state.Loading = true
	e.mu.Unlock()

	e.poller.Stop()

	e.mu.Lock()
	e.revision++
	e.closed = false

	if mode == ModeCreate {
		doc := document.InitEmpty()
		e.state = State{Mode: mode, Document: doc, Available: ComputeAvailableOutputs(doc, e.catalog)}
		e.mu.Unlock()

		return nil
	}

	e.state = State{
		Mode:       mode,
		WorkflowID: route.WorkflowID,
		RunID:      route.RunID,
		Document:   &document.Document{},
		Loading:    true,
	}
	e.mu.Unlock()

	logger := e.logger.With("workflow_id", route.WorkflowID, "mode", mode.String())

	workflow, execution, err := e.load(ctx, route)

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state
	next.Loading = false

	if err != nil {
		logger.Error("Failed to load workflow", "error", err)

		next.ErrorMessage = notify.MessageLoadFailed
		e.state = next

		return actionError("open", err)
	}

	doc := document.LoadFrom(*workflow)
	next.Document = doc
	next.Available = ComputeAvailableOutputs(doc, e.catalog)
	e.state = next

	if execution != nil {
		e.applyExecutionLocked(*execution)
	}

	logger.Debug("Workflow opened", "steps", len(doc.Steps))

	return nil
}

func (e *Editor) load(ctx context.Context, route Route) (*models.Workflow, *models.Execution, error) {
	workflow, err := e.service.GetWorkflow(ctx, route.WorkflowID)
	if err != nil {
		return nil, nil, err
	}

	if route.RunID == "" {
		return workflow, nil, nil
	}

	execution, err := e.service.GetExecution(ctx, route.WorkflowID, route.RunID)
	if err != nil {
		return nil, nil, err
	}

	return workflow, execution, nil
}

// Close tears down polling regardless of run state. It may be called more than once.
func (e *Editor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.poller.Stop()
}

func (e *Editor) notify(ctx context.Context, n notify.Notification) {
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.logger.Error("Failed to deliver notification", "error", err, "message", n.Message)
	}
}
