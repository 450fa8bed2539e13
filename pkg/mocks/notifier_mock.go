package mocks

import (
	"context"
	"sync"

	"github.com/dukex/flowstudio/pkg/notify"
	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock implementation of notify.Notifier interface.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, notification notify.Notification) error {
	args := m.Called(ctx, notification)

	return args.Error(0)
}

// RecordingNotifier keeps every notification it receives.
type RecordingNotifier struct {
	mu            sync.Mutex
	notifications []notify.Notification
}

func (r *RecordingNotifier) Notify(_ context.Context, notification notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = append(r.notifications, notification)

	return nil
}

func (r *RecordingNotifier) Notifications() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]notify.Notification(nil), r.notifications...)
}
