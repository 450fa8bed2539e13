// Package events defines the studio events published on the event bus.
package events

import (
	"time"

	"github.com/dukex/flowstudio/pkg/models"
)

type EventType string

// Topic carries every studio event.
const Topic = "flowstudio.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	NotificationEvent EventType = "studio.notification"

	// Execution lifecycle events, as observed by the client.
	ExecutionStartedEvent  EventType = "workflow.execution.started"
	ExecutionFinishedEvent EventType = "workflow.execution.finished"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Notification is a user-visible message raised by the editor or the poller.
type Notification struct {
	BaseEvent

	Level       string                `json:"level"`
	Message     string                `json:"message"`
	ExecutionID string                `json:"execution_id,omitempty"`
	State       models.ExecutionState `json:"state,omitempty"`
}

func (n Notification) GetType() EventType {
	return NotificationEvent
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

// ExecutionFinished is published once, when polling observes a terminal state.
type ExecutionFinished struct {
	BaseEvent

	ExecutionID string                `json:"execution_id"`
	State       models.ExecutionState `json:"state"`
}

func (e ExecutionFinished) GetType() EventType {
	return ExecutionFinishedEvent
}
