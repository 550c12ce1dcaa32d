package observability

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials/insecure"
)

// target is where one signal is exported. Metrics reuse the trace protocol,
// TLS and header settings with their own endpoint.
type target struct {
	endpoint string
	protocol string
	insecure bool
	headers  map[string]string
	output   io.Writer
}

func (p *provider) target(endpoint string) target {
	return target{
		endpoint: endpoint,
		protocol: p.config.Trace.Protocol,
		insecure: p.config.Trace.Insecure,
		headers:  p.config.Trace.Headers,
		output:   p.output(),
	}
}

func (t target) stdout() bool {
	return t.endpoint == EndpointStdout
}

func (t target) spanExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	if t.stdout() {
		return stdouttrace.New(stdouttrace.WithWriter(t.output), stdouttrace.WithPrettyPrint())
	}

	switch t.protocol {
	case ProtocolHTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(t.endpoint)}
		if t.insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(t.headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(t.headers))
		}
		return otlptracehttp.New(ctx, opts...)
	case ProtocolGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(t.endpoint)}
		if t.insecure {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		if len(t.headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(t.headers))
		}
		return otlptracegrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("trace protocol %q: %w", t.protocol, ErrInvalidProtocol)
	}
}

func (t target) metricExporter(ctx context.Context) (sdkmetric.Exporter, error) {
	if t.stdout() {
		return stdoutmetric.New(stdoutmetric.WithWriter(t.output), stdoutmetric.WithPrettyPrint())
	}

	switch t.protocol {
	case ProtocolHTTP:
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(t.endpoint)}
		if t.insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		if len(t.headers) > 0 {
			opts = append(opts, otlpmetrichttp.WithHeaders(t.headers))
		}
		return otlpmetrichttp.New(ctx, opts...)
	case ProtocolGRPC:
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(t.endpoint)}
		if t.insecure {
			opts = append(opts, otlpmetricgrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		if len(t.headers) > 0 {
			opts = append(opts, otlpmetricgrpc.WithHeaders(t.headers))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("metrics protocol %q: %w", t.protocol, ErrInvalidProtocol)
	}
}
