package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/chandruydv805026/my-web/internal/config"
)

func TestSetup_StdoutExportsSpans(t *testing.T) {
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	var buf bytes.Buffer
	shutdown, err := Setup(config.TelemetryConfig{StdoutTraces: true, ServiceName: "grocery-test"}, &buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "OrderService.PlaceOrder")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "OrderService.PlaceOrder")
	assert.Contains(t, buf.String(), "grocery-test")
}

func TestSetup_DisabledIsNoop(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(config.TelemetryConfig{}, &buf)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	assert.Empty(t, buf.String())
}
