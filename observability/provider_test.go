package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	mp := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
	})
}

func TestNewProviderDisabledIsInert(t *testing.T) {
	restoreGlobals(t)
	before := otel.GetTracerProvider()

	p, err := NewProvider(&Config{}, nil)
	require.NoError(t, err)

	assert.Same(t, before, otel.GetTracerProvider())
	assert.IsType(t, noop.NewTracerProvider(), p.TracerProvider())
	assert.IsType(t, metricnoop.NewMeterProvider(), p.MeterProvider())
	assert.NoError(t, p.ForceFlush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderNilConfig(t *testing.T) {
	_, err := NewProvider(nil, nil)
	assert.ErrorIs(t, err, ErrNilConfig)
}

func TestNewProviderRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{
			name: "missing service name",
			cfg:  Config{Enabled: true},
			want: ErrMissingServiceName,
		},
		{
			name: "sample rate above one",
			cfg: Config{Enabled: true, Service: ServiceConfig{Name: "svc"},
				Trace: TraceConfig{Sample: SampleConfig{Rate: Float64Ptr(1.5)}}},
			want: ErrInvalidSampleRate,
		},
		{
			name: "unknown protocol",
			cfg: Config{Enabled: true, Service: ServiceConfig{Name: "svc"},
				Trace: TraceConfig{Protocol: "udp"}},
			want: ErrInvalidProtocol,
		},
		{
			name: "grpc endpoint with scheme",
			cfg: Config{Enabled: true, Service: ServiceConfig{Name: "svc"},
				Trace: TraceConfig{Protocol: ProtocolGRPC, Endpoint: "http://collector:4317"}},
			want: ErrInvalidEndpointFormat,
		},
		{
			name: "http metrics endpoint without scheme",
			cfg: Config{Enabled: true, Service: ServiceConfig{Name: "svc"},
				Metrics: MetricsConfig{Endpoint: "collector:4318"}},
			want: ErrInvalidEndpointFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(&tt.cfg, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewProviderStdoutExportsSpansAndMetrics(t *testing.T) {
	restoreGlobals(t)

	var out bytes.Buffer
	p, err := NewProvider(&Config{
		Enabled: true,
		Service: ServiceConfig{Name: "sqlbricks-test", Version: "1.0.0"},
		Output:  &out,
	}, nil)
	require.NoError(t, err)

	assert.Same(t, p.TracerProvider(), otel.GetTracerProvider())

	ctx := context.Background()
	_, span := otel.Tracer("test").Start(ctx, "db.select")
	span.End()

	counter, err := otel.Meter("test").Int64Counter("db.client.calls")
	require.NoError(t, err)
	counter.Add(ctx, 1)

	require.NoError(t, Shutdown(p, time.Second))

	assert.Contains(t, out.String(), "db.select")
	assert.Contains(t, out.String(), "db.client.calls")
	assert.Contains(t, out.String(), "sqlbricks-test")
}

func TestNewProviderHonorsDisabledSignals(t *testing.T) {
	restoreGlobals(t)

	p, err := NewProvider(&Config{
		Enabled: true,
		Service: ServiceConfig{Name: "svc"},
		Trace:   TraceConfig{Enabled: BoolPtr(false)},
		Metrics: MetricsConfig{Enabled: BoolPtr(false)},
		Output:  &bytes.Buffer{},
	}, nil)
	require.NoError(t, err)

	assert.IsType(t, noop.NewTracerProvider(), p.TracerProvider())
	assert.IsType(t, metricnoop.NewMeterProvider(), p.MeterProvider())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Enabled: true, Trace: TraceConfig{Headers: map[string]string{"api-key": "k"}}}
	headers := cfg.Trace.Headers
	cfg.ApplyDefaults()

	assert.Equal(t, "unknown", cfg.Service.Version)
	assert.Equal(t, EnvironmentDevelopment, cfg.Environment)
	assert.Equal(t, EndpointStdout, cfg.Trace.Endpoint)
	assert.Equal(t, ProtocolHTTP, cfg.Trace.Protocol)
	assert.True(t, *cfg.Trace.Enabled)
	assert.True(t, *cfg.Metrics.Enabled)
	assert.InDelta(t, 1.0, *cfg.Trace.Sample.Rate, 0.0001)
	assert.Equal(t, 500*time.Millisecond, cfg.Trace.Batch.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Metrics.Interval)

	cfg.Trace.Headers["api-key"] = "changed"
	assert.Equal(t, "k", headers["api-key"])
}

func TestApplyDefaultsProductionTimeouts(t *testing.T) {
	cfg := Config{
		Enabled:     true,
		Environment: "production",
		Trace:       TraceConfig{Endpoint: "collector:4317", Protocol: ProtocolGRPC},
		Metrics:     MetricsConfig{Endpoint: "collector:4317"},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, 5*time.Second, cfg.Trace.Batch.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Trace.Export.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Metrics.Export.Timeout)
}

func TestShutdownNilProvider(t *testing.T) {
	assert.NoError(t, Shutdown(nil, 0))
}

type failingProvider struct {
	Provider
	flushErr error
}

func (f *failingProvider) ForceFlush(context.Context) error {
	return f.flushErr
}

func TestShutdownReportsFlushFailure(t *testing.T) {
	flushErr := assert.AnError
	err := Shutdown(&failingProvider{Provider: &provider{}, flushErr: flushErr}, time.Second)
	assert.ErrorIs(t, err, flushErr)
	assert.Contains(t, err.Error(), "observability flush failed")
}
