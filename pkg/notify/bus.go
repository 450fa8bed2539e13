package notify

import (
	"context"
	"errors"
	"time"

	"github.com/dukex/flowstudio/pkg/eventbus"
	"github.com/dukex/flowstudio/pkg/events"
	"github.com/dukex/flowstudio/pkg/models"
)

// Bus publishes notifications as events. Execution notifications also
// publish the matching lifecycle event so subscribers can wait on a run.
type Bus struct {
	bus eventbus.EventPublisher
	ids func() string
	now func() time.Time
}

func NewBus(bus eventbus.EventBus) *Bus {
	return &Bus{bus: bus, ids: bus.GenerateID, now: time.Now}
}

func (b *Bus) Notify(ctx context.Context, n Notification) error {
	key := n.WorkflowID

	err := b.bus.Publish(ctx, key, events.Notification{
		BaseEvent:   b.base(events.NotificationEvent, n.WorkflowID),
		Level:       string(n.Level),
		Message:     n.Message,
		ExecutionID: n.ExecutionID,
		State:       n.State,
	})

	if n.ExecutionID == "" || n.State == "" {
		return err
	}

	var lifecycle eventbus.Event
	if n.State == models.ExecutionStateActive {
		lifecycle = events.ExecutionStarted{
			BaseEvent:   b.base(events.ExecutionStartedEvent, n.WorkflowID),
			ExecutionID: n.ExecutionID,
		}
	} else {
		lifecycle = events.ExecutionFinished{
			BaseEvent:   b.base(events.ExecutionFinishedEvent, n.WorkflowID),
			ExecutionID: n.ExecutionID,
			State:       n.State,
		}
	}

	return errors.Join(err, b.bus.Publish(ctx, key, lifecycle))
}

func (b *Bus) base(eventType events.EventType, workflowID string) events.BaseEvent {
	return events.BaseEvent{
		ID:         b.ids(),
		Type:       eventType,
		Timestamp:  b.now().UTC(),
		WorkflowID: workflowID,
	}
}
