package otelhelper_test

import (
	"errors"
	"testing"

	"github.com/dukex/flowstudio/pkg/otelhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })

	return recorder, provider
}

func TestStartSpan_SetsAttributes(t *testing.T) {
	t.Parallel()

	recorder, provider := newRecorder(t)

	_, span := otelhelper.StartSpan(t.Context(), provider.Tracer("test"), "client.get_workflow",
		attribute.String(otelhelper.WorkflowIDKey, "wf-1"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "client.get_workflow", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String(otelhelper.WorkflowIDKey, "wf-1"))
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestSetError(t *testing.T) {
	t.Parallel()

	recorder, provider := newRecorder(t)

	_, span := otelhelper.StartSpan(t.Context(), provider.Tracer("test"), "client.execute_workflow")
	otelhelper.SetError(span, errors.New("boom"), attribute.String(otelhelper.ExecutionIDKey, "exec-1"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)

	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
	assert.Contains(t, spans[0].Events()[0].Attributes, attribute.String(otelhelper.ExecutionIDKey, "exec-1"))
}

func TestSetError_NilLeavesSpanUntouched(t *testing.T) {
	t.Parallel()

	recorder, provider := newRecorder(t)

	_, span := otelhelper.StartSpan(t.Context(), provider.Tracer("test"), "client.get_execution")
	otelhelper.SetError(span, nil)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Empty(t, spans[0].Events())
}

func TestNoopTracer(t *testing.T) {
	t.Parallel()

	_, span := otelhelper.StartSpan(t.Context(), otelhelper.NoopTracer(), "noop")
	defer span.End()

	assert.False(t, span.SpanContext().IsValid())
}
