package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitTracing(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "campusforum-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, err = InitTracing(TracingConfig{ServiceName: "campusforum-test", Enabled: true, Exporter: "zipkin"})
	assert.ErrorContains(t, err, "zipkin")
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Contains(t, sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestStartSpan(t *testing.T) {
	ctx, end := StartSpan(context.Background(), "PostService", "publish")
	require.NotNil(t, ctx)
	assert.NotPanics(t, func() { end(errors.New("boom")) })
}
