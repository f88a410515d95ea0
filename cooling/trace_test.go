package cooling

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/rushteam/ecool/dataset"
)

func TestController_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	mainEffect, interaction := newEngines()
	ctrl, err := New(Config{
		Mode:             ModeBoth,
		TargetAttributes: 4,
		Removal:          RemovalSchedule{Count: 2},
	}, dataset.NewWorkingSet(attributeNames(8)),
		WithMainEffectEngine(mainEffect),
		WithInteractionEngine(interaction),
		WithLogger(testLogger),
		WithTracerProvider(tp),
	)
	require.NoError(t, err)
	_, err = ctrl.Run(context.Background())
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "cooling.Iteration", spans[0].Name())
	assert.Equal(t, "cooling.Iteration", spans[1].Name())
	run := spans[2]
	assert.Equal(t, "cooling.Run", run.Name())
	assert.Equal(t, run.SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestController_SpanRecordsFailure(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	mainEffect, interaction := newEngines()
	interaction.err = errors.New("boom")
	ctrl, err := New(Config{
		Mode:             ModeBoth,
		TargetAttributes: 4,
		Removal:          RemovalSchedule{Count: 2},
	}, dataset.NewWorkingSet(attributeNames(8)),
		WithMainEffectEngine(mainEffect),
		WithInteractionEngine(interaction),
		WithLogger(testLogger),
		WithTracerProvider(tp),
	)
	require.NoError(t, err)
	_, err = ctrl.Run(context.Background())
	require.Error(t, err)

	spans := sr.Ended()
	require.NotEmpty(t, spans)
	run := spans[len(spans)-1]
	assert.Equal(t, "cooling.Run", run.Name())
	assert.Equal(t, codes.Error, run.Status().Code)
}
