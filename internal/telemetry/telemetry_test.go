package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitializeDisabled(t *testing.T) {
	p, err := Initialize(context.Background(), Config{Enabled: false}, nil)

	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.NotNil(t, p.Tracer("x"))
}

func TestInitializeExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	exp := tracetest.NewInMemoryExporter()
	p, err := Initialize(context.Background(), Config{
		Enabled:        true,
		ServiceName:    "auralens-test",
		ServiceVersion: "v0.0.0",
		Environment:    "test",
		Exporter:       exp,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, p)

	_, span := otel.Tracer("test").Start(context.Background(), "work")
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "work", spans[0].Name)

	var service string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	assert.Equal(t, "auralens-test", service)
}

func TestExporterOptions(t *testing.T) {
	assert.Len(t, exporterOptions(Config{Endpoint: "localhost:4318"}), 1)
	assert.Len(t, exporterOptions(Config{
		Endpoint: "collector:4318",
		URLPath:  "/otlp/v1/traces",
		Headers:  map[string]string{"Authorization": "Basic x"},
		Insecure: true,
	}), 4)
}
