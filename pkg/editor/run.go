package editor

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/dukex/flowstudio/pkg/document"
	"github.com/dukex/flowstudio/pkg/models"
	"github.com/dukex/flowstudio/pkg/notify"
)

// Save persists the document: POST in Create mode, PUT in Edit mode. It is a
// no-op in Run mode and when nothing changed. Invalid documents are rejected
// before any request is made.
func (e *Editor) Save(ctx context.Context) error {
	return e.save(ctx, false)
}

func (e *Editor) save(ctx context.Context, force bool) error {
	e.mu.Lock()

	if e.state.Mode == ModeRun || (!e.state.Dirty && !force) {
		e.mu.Unlock()

		return nil
	}

	if e.state.Loading {
		e.mu.Unlock()

		return actionError("save", ErrBusy)
	}

	if err := e.state.Document.Validate(e.validate, e.catalog); err != nil {
		e.mu.Unlock()

		return actionError("save", fmt.Errorf("%w: %w", ErrInvalidDocument, err))
	}

	snapshot := e.state.Document.Clone()
	mode, workflowID, revision := e.state.Mode, e.state.WorkflowID, e.revision

	next := e.state
	next.Loading = true
	next.ErrorMessage = ""
	e.state = next
	e.mu.Unlock()

	logger := e.logger.With("workflow_id", workflowID, "mode", mode.String())

	var (
		saved *models.Workflow
		err   error
	)

	if mode == ModeCreate {
		saved, err = e.service.CreateWorkflow(ctx, snapshot.CreateRequest())
	} else {
		saved, err = e.service.UpdateWorkflow(ctx, workflowID, snapshot.UpdateRequest())
	}

	e.mu.Lock()

	next = e.state
	next.Loading = false

	if err != nil {
		next.ErrorMessage = bannerMessage(err, notify.MessageSaveFailed)
		e.state = next
		e.mu.Unlock()

		logger.Error("Failed to save workflow", "error", err)
		e.notify(ctx, notify.Notification{Level: notify.LevelFailure, Message: next.ErrorMessage, WorkflowID: workflowID})

		return actionError("save", err)
	}

	// Edits made while the request was in flight keep the document dirty.
	next.Dirty = e.revision != revision

	doc := next.Document.Clone()
	if saved != nil {
		if saved.ID != "" {
			doc.ID = saved.ID
		}

		doc.UserID = saved.UserID
		doc.CreatedAt = saved.CreatedAt
		doc.UpdatedAt = saved.UpdatedAt
	}

	next.Document = doc

	created := mode == ModeCreate && next.Mode == ModeCreate
	if created {
		next.Mode = ModeEdit
		next.WorkflowID = doc.ID
	}

	e.state = next
	e.mu.Unlock()

	logger.Info("Workflow saved", "workflow_id", doc.ID)

	if created {
		e.navigator.Replace(Route{WorkflowID: doc.ID})
	}

	return nil
}

// Run launches an execution. A document that is new or has unsaved changes is
// saved first, and nothing is executed when that save fails.
func (e *Editor) Run(ctx context.Context) error {
	e.mu.Lock()

	switch {
	case e.closed:
		e.mu.Unlock()

		return actionError("run", ErrClosed)
	case e.state.Mode == ModeRun:
		e.mu.Unlock()

		return actionError("run", ErrReadOnly)
	case e.state.Loading:
		e.mu.Unlock()

		return actionError("run", ErrBusy)
	}

	if err := e.state.Document.Validate(e.validate, e.catalog); err != nil {
		e.mu.Unlock()

		return actionError("run", fmt.Errorf("%w: %w", ErrInvalidDocument, err))
	}

	needsSave := e.state.Dirty || e.state.WorkflowID == ""
	e.mu.Unlock()

	if needsSave {
		if err := e.save(ctx, true); err != nil {
			if !errors.Is(err, ErrInvalidDocument) && !errors.Is(err, ErrBusy) {
				e.setErrorMessage(notify.MessageSaveBeforeRunFailed)
			}

			return actionError("run", err)
		}
	}

	return e.launch(ctx)
}

func (e *Editor) setErrorMessage(message string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state
	next.ErrorMessage = message
	e.state = next
}

func (e *Editor) launch(ctx context.Context) error {
	e.mu.Lock()

	if e.state.Loading {
		e.mu.Unlock()

		return actionError("run", ErrBusy)
	}

	definitions := append([]document.OutputDefinition(nil), e.state.Document.OutputDefinitions...)
	workflowID := e.state.WorkflowID

	next := e.state
	next.Loading = true
	next.ErrorMessage = ""
	e.state = next
	e.mu.Unlock()

	logger := e.logger.With("workflow_id", workflowID)

	args, err := e.collectParameters(ctx, definitions)
	if err != nil {
		e.finishLoading("")

		if errors.Is(err, ErrRunCancelled) {
			logger.Debug("Run cancelled")
		}

		return actionError("run", err)
	}

	executionID, err := e.service.ExecuteWorkflow(ctx, workflowID, args)
	if err != nil {
		e.finishLoading(notify.MessageExecuteFailed)

		logger.Error("Failed to execute workflow", "error", err)
		e.notify(ctx, notify.Notification{Level: notify.LevelFailure, Message: notify.MessageExecuteFailed, WorkflowID: workflowID})

		return actionError("run", err)
	}

	e.mu.Lock()

	next = e.state
	next.Loading = false
	next.ExecutionID = executionID
	next.ExecutionState = models.ExecutionStateActive
	next.ExecutionDuration = 0
	next.ExecutionError = ""
	next.StepEntries = nil

	doc := next.Document.Clone()
	for i := range doc.Steps {
		doc.Steps[i].Status = models.StepStatusPending
	}

	next.Document = doc
	e.state = next
	closed := e.closed
	e.mu.Unlock()

	logger.Info("Workflow execution started", "execution_id", executionID)
	e.notify(ctx, notify.Notification{
		Level:       notify.LevelSuccess,
		Message:     notify.MessageExecutionStarted,
		WorkflowID:  workflowID,
		ExecutionID: executionID,
		State:       models.ExecutionStateActive,
	})

	if !closed {
		e.poller.Start(ctx, workflowID, executionID, e)
	}

	return nil
}

func (e *Editor) collectParameters(ctx context.Context, definitions []document.OutputDefinition) (map[string]string, error) {
	values, err := e.prompt.CollectParameters(ctx, definitions)
	if err != nil {
		return nil, err
	}

	args := make(map[string]string, len(definitions))

	var errs []error

	for _, def := range definitions {
		value := values[def.Name]
		if err := e.validate.Var(value, "required"); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingParameter, def.Name))

			continue
		}

		args[def.Name] = value
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return args, nil
}

func (e *Editor) finishLoading(message string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state
	next.Loading = false
	next.ErrorMessage = message
	e.state = next
}

// ApplyExecution folds a fetched execution into the snapshot: step entries are
// replaced, step statuses follow the entry states, and reported outputs are
// copied onto the step outputs for display.
func (e *Editor) ApplyExecution(execution models.Execution) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.applyExecutionLocked(execution)
}

func (e *Editor) applyExecutionLocked(execution models.Execution) {
	next := e.state
	doc := next.Document.Clone()

	for _, entry := range execution.StepEntries {
		idx := doc.StepIndex(entry.StepID)
		if idx < 0 {
			continue
		}

		step := &doc.Steps[idx]

		if status, ok := models.StepStatusForEntry(entry.State); ok {
			step.Status = status
		}

		reported := entry.ReportedOutputs()
		if len(reported) == 0 {
			continue
		}

		outputs := make(map[string]models.StepOutput, len(step.Outputs)+len(reported))
		maps.Copy(outputs, step.Outputs)

		for name, raw := range reported {
			output := outputs[name]
			output.Value = append([]byte(nil), raw...)
			outputs[name] = output
		}

		step.Outputs = outputs
	}

	next.Document = doc
	next.StepEntries = append([]models.StepEntry(nil), execution.StepEntries...)
	next.ExecutionState = execution.NormalizedState()
	next.ExecutionDuration = execution.Duration
	next.ExecutionError = execution.Error

	if execution.ID != "" {
		next.ExecutionID = execution.ID
	}

	e.state = next
}
