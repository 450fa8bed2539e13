// Package poller follows a running execution until it reaches a terminal state.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/flowstudio/pkg/metrics"
	"github.com/dukex/flowstudio/pkg/models"
	"github.com/dukex/flowstudio/pkg/notify"
)

const DefaultInterval = 5 * time.Second

// Fetcher loads the current state of an execution.
type Fetcher interface {
	GetExecution(ctx context.Context, workflowID, executionID string) (*models.Execution, error)
}

// Sink receives every fetched execution, including the terminal one.
type Sink interface {
	ApplyExecution(execution models.Execution)
}

type SinkFunc func(execution models.Execution)

func (f SinkFunc) ApplyExecution(execution models.Execution) { f(execution) }

type Option func(*Poller)

func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

func WithMetrics(m metrics.PollMetrics) Option {
	return func(p *Poller) {
		if m != nil {
			p.metrics = m
		}
	}
}

// Poller polls one execution at a time. Starting a new execution stops the
// previous one.
type Poller struct {
	fetcher  Fetcher
	notifier notify.Notifier
	logger   *slog.Logger
	interval time.Duration
	metrics  metrics.PollMetrics

	// lifecycle serializes Start and Stop; mu guards cancel and done.
	lifecycle sync.Mutex
	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

func New(fetcher Fetcher, notifier notify.Notifier, logger *slog.Logger, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		notifier: notifier,
		logger:   logger,
		interval: DefaultInterval,
		metrics:  metrics.Noop{},
		done:     closedChan(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)

	return ch
}

// Start fetches immediately and then on every tick until the execution is no
// longer active, ctx is cancelled, or Stop is called.
func (p *Poller) Start(ctx context.Context, workflowID, executionID string, sink Sink) {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.cancel = cancel
	p.done = done

	logger := p.logger.With("workflow_id", workflowID, "execution_id", executionID)
	logger.Debug("Polling execution", "interval", p.interval)

	go p.run(ctx, cancel, done, logger, workflowID, executionID, sink)
}

// Stop cancels polling and waits for the loop to exit. It is safe to call
// at any time, any number of times.
func (p *Poller) Stop() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.stop()
}

func (p *Poller) stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	<-done
}

// Done is closed once the current polling loop exits.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.done
}

func (p *Poller) run(
	ctx context.Context,
	cancel context.CancelFunc,
	done chan struct{},
	logger *slog.Logger,
	workflowID, executionID string,
	sink Sink,
) {
	defer close(done)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if p.poll(ctx, logger, workflowID, executionID, sink) {
			return
		}

		select {
		case <-ctx.Done():
			logger.Debug("Polling stopped")

			return
		case <-ticker.C:
		}
	}
}

// poll reports whether polling must stop.
func (p *Poller) poll(ctx context.Context, logger *slog.Logger, workflowID, executionID string, sink Sink) bool {
	execution, err := p.fetcher.GetExecution(ctx, workflowID, executionID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}

		logger.Error("Failed to fetch execution", "error", err)
		p.metrics.IncPolls("error")

		return false
	}

	p.metrics.IncPolls("ok")
	sink.ApplyExecution(*execution)

	state := execution.NormalizedState()
	if !state.IsTerminal() {
		return false
	}

	logger.Info("Execution finished", "state", string(state), "duration", execution.Duration)
	p.metrics.IncExecutionsFinished(string(state))

	notification := notify.ForTerminalState(workflowID, executionID, state)
	if err := p.notifier.Notify(context.WithoutCancel(ctx), notification); err != nil {
		logger.Error("Failed to deliver notification", "error", err)
	}

	return true
}
