// Package notify delivers the one-line messages shown to the user as toasts or banners.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukex/flowstudio/pkg/models"
)

// Level is the tone of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelFailure Level = "failure"
)

// User-facing messages.
const (
	MessageExecutionStarted    = "Workflow execution started!"
	MessageExecuteFailed       = "Failed to execute workflow"
	MessageSaveFailed          = "Failed to save workflow."
	MessageSaveBeforeRunFailed = "Failed to save workflow before running."
	MessageLoadFailed          = "Failed to load workflow data."
	MessageSaved               = "Workflow saved."
	MessageExecutionSucceeded  = "Workflow execution completed successfully."
	MessageExecutionFailed     = "Workflow execution failed."
)

type Notification struct {
	Level       Level
	Message     string
	WorkflowID  string
	ExecutionID string
	State       models.ExecutionState
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// ForTerminalState builds the notification emitted when polling stops.
func ForTerminalState(workflowID, executionID string, state models.ExecutionState) Notification {
	n := Notification{
		Level:       LevelFailure,
		Message:     MessageExecutionFailed,
		WorkflowID:  workflowID,
		ExecutionID: executionID,
		State:       state,
	}

	if state == models.ExecutionStateSucceeded {
		n.Level = LevelSuccess
		n.Message = MessageExecutionSucceeded
	}

	return n
}

// Log writes notifications to a structured logger.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, n Notification) error {
	level := slog.LevelInfo
	if n.Level == LevelFailure {
		level = slog.LevelError
	}

	attrs := []any{"tone", string(n.Level)}
	if n.WorkflowID != "" {
		attrs = append(attrs, "workflow_id", n.WorkflowID)
	}

	if n.ExecutionID != "" {
		attrs = append(attrs, "execution_id", n.ExecutionID)
	}

	if n.State != "" {
		attrs = append(attrs, "state", string(n.State))
	}

	l.logger.Log(ctx, level, n.Message, attrs...)

	return nil
}

// Multi delivers to every notifier, even when one of them fails.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error

	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(context.Context, Notification) error { return nil }
