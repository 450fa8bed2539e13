// Package metrics exposes studio counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "flowstudio"

// PollMetrics is recorded by the execution poller.
type PollMetrics interface {
	IncPolls(result string)
	IncExecutionsFinished(state string)
}

// ServiceMetrics is recorded by the fake workflow service.
type ServiceMetrics interface {
	IncWorkflowsSaved(op string)
	IncExecutionsStarted()
}

// Noop implements every metrics interface without emitting anything.
type Noop struct{}

func (Noop) IncPolls(string)              {}
func (Noop) IncExecutionsFinished(string) {}
func (Noop) IncWorkflowsSaved(string)     {}
func (Noop) IncExecutionsStarted()        {}

// Prom implements the metrics interfaces with Prometheus counters.
type Prom struct {
	registry           *prometheus.Registry
	polls              *prometheus.CounterVec
	executionsFinished *prometheus.CounterVec
	workflowsSaved     *prometheus.CounterVec
	executionsStarted  prometheus.Counter
}

// NewProm registers the counters on a fresh registry, so several instances
// can live in one process.
func NewProm() *Prom {
	p := &Prom{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "execution_polls_total",
			Help:      "Execution status requests by result",
		}, []string{"result"}),
		executionsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "executions_finished_total",
			Help:      "Executions observed reaching a terminal state",
		}, []string{"state"}),
		workflowsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "workflows_saved_total",
			Help:      "Workflows saved by operation",
		}, []string{"op"}),
		executionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "executions_started_total",
			Help:      "Executions launched",
		}),
	}

	p.registry.MustRegister(p.polls, p.executionsFinished, p.workflowsSaved, p.executionsStarted)

	return p
}

func (p *Prom) IncPolls(result string) {
	p.polls.WithLabelValues(result).Inc()
}

func (p *Prom) IncExecutionsFinished(state string) {
	p.executionsFinished.WithLabelValues(state).Inc()
}

func (p *Prom) IncWorkflowsSaved(op string) {
	p.workflowsSaved.WithLabelValues(op).Inc()
}

func (p *Prom) IncExecutionsStarted() {
	p.executionsStarted.Inc()
}

func (p *Prom) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus text format.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
