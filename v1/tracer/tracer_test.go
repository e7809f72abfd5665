package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (*Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewFromProvider(tp), recorder
}

func TestStartSpanAndRecordError(t *testing.T) {
	tr, recorder := newRecordingTracer()

	_, span := tr.StartSpan(context.Background(), "vectorstore.add_texts")
	tr.SetAttributes(span, map[string]interface{}{
		"db.collection": "docs",
		"texts":         3,
		"ids":           []string{"1", "2"},
		"lambda":        0.5,
		"refresh":       true,
		"other":         struct{ A int }{A: 1},
	})
	tr.RecordErrorOnSpan(span, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "vectorstore.add_texts", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String("db.collection", "docs"))
	assert.Contains(t, ended[0].Attributes(), attribute.Int("texts", 3))
	assert.Contains(t, ended[0].Attributes(), attribute.String("other", "{1}"))
}

func TestRecordNilErrorKeepsStatus(t *testing.T) {
	tr, recorder := newRecordingTracer()

	_, span := tr.StartSpan(context.Background(), "loader.load")
	tr.RecordErrorOnSpan(span, nil)
	span.End()

	assert.Equal(t, codes.Unset, recorder.Ended()[0].Status().Code)
}

func TestCarrierRoundTrip(t *testing.T) {
	tr, _ := newRecordingTracer()

	ctx, span := tr.StartSpan(context.Background(), "parent")
	defer span.End()

	carrier := tr.GetCarrier(ctx)
	require.Contains(t, carrier, "traceparent")

	restored := tr.SetCarrierOnContext(context.Background(), carrier)
	_, child := tr.StartSpan(restored, "child")
	defer child.End()

	assert.Equal(t, span.SpanContext().TraceID(), child.SpanContext().TraceID())
}

func TestNoopTracer(t *testing.T) {
	tr := NewNoop()

	_, span := tr.StartSpan(context.Background(), "anything")
	tr.RecordErrorOnSpan(span, errors.New("ignored"))
	span.End()

	assert.False(t, span.SpanContext().IsValid())
	assert.NoError(t, tr.Shutdown(context.Background()))
}
