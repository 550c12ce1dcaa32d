// Package observability sets up the OpenTelemetry providers that receive the spans
// and metrics recorded around statement execution.
//
// Statement tracking uses the global otel providers, so an application installs a
// Provider once at startup and shuts it down on exit:
//
//	provider, err := observability.NewProvider(&cfg, log)
//	if err != nil {
//		return err
//	}
//	defer observability.Shutdown(provider, 0)
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/gaborage/sqlbricks/logger"
)

// Provider manages the lifecycle of the trace and meter providers.
type Provider interface {
	// TracerProvider returns the configured trace provider.
	TracerProvider() trace.TracerProvider

	// MeterProvider returns the configured meter provider.
	MeterProvider() metric.MeterProvider

	// Shutdown flushes pending telemetry and releases the exporters.
	Shutdown(ctx context.Context) error

	// ForceFlush immediately exports any pending telemetry.
	ForceFlush(ctx context.Context) error
}

type provider struct {
	config         Config
	log            logger.Logger
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	mu             sync.Mutex
}

// NewProvider creates a provider from cfg and installs it as the global otel
// tracer and meter provider. A disabled configuration returns an inert provider
// and leaves the globals untouched. log may be nil.
//
// Defaults are applied to a copy of cfg before validation.
func NewProvider(cfg *Config, log logger.Logger) (Provider, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	safeCfg := *cfg
	safeCfg.ApplyDefaults()
	if err := safeCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	p := &provider{config: safeCfg, log: log}
	if !safeCfg.Enabled {
		return p, nil
	}

	ctx := context.Background()
	res, err := newResource(ctx, &safeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if enabled(safeCfg.Trace.Enabled) {
		if *safeCfg.Trace.Sample.Rate == 0.0 {
			p.debug("trace sample rate is 0.0, no spans will be recorded")
		}
		if err := p.initTraceProvider(ctx, res); err != nil {
			return nil, fmt.Errorf("failed to initialize trace provider: %w", err)
		}
		otel.SetTracerProvider(p.tracerProvider)
	}

	if enabled(safeCfg.Metrics.Enabled) {
		if err := p.initMeterProvider(ctx, res); err != nil {
			return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
		}
		otel.SetMeterProvider(p.meterProvider)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if log != nil {
		log.Info().
			Str("service", safeCfg.Service.Name).
			Str("trace_endpoint", safeCfg.Trace.Endpoint).
			Str("metrics_endpoint", safeCfg.Metrics.Endpoint).
			Msg("Observability provider initialized")
	}
	return p, nil
}

// MustNewProvider creates a new observability provider and panics on error.
func MustNewProvider(cfg *Config, log logger.Logger) Provider {
	p, err := NewProvider(cfg, log)
	if err != nil {
		panic(fmt.Errorf("failed to create observability provider: %w", err))
	}
	return p
}

func enabled(flag *bool) bool {
	return flag != nil && *flag
}

func (p *provider) debug(msg string) {
	if p.log != nil {
		p.log.Debug().Msg(msg)
	}
}

func (p *provider) output() io.Writer {
	if p.config.Output != nil {
		return p.config.Output
	}
	return os.Stdout
}

func (p *provider) initTraceProvider(ctx context.Context, res *resource.Resource) error {
	exporter, err := p.target(p.config.Trace.Endpoint).spanExporter(ctx)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(
		exporter,
		sdktrace.WithBatchTimeout(p.config.Trace.Batch.Timeout),
		sdktrace.WithExportTimeout(p.config.Trace.Export.Timeout),
		sdktrace.WithMaxExportBatchSize(p.config.Trace.Batch.Size),
	)

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(*p.config.Trace.Sample.Rate)),
	)
	return nil
}

func (p *provider) initMeterProvider(ctx context.Context, res *resource.Resource) error {
	exporter, err := p.target(p.config.Metrics.Endpoint).metricExporter(ctx)
	if err != nil {
		return fmt.Errorf("failed to create metric exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(p.config.Metrics.Interval),
		sdkmetric.WithTimeout(p.config.Metrics.Export.Timeout),
	)

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	return nil
}

// newResource merges the SDK default resource with the service attributes.
func newResource(ctx context.Context, cfg *Config) (*resource.Resource, error) {
	custom, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.Service.Name),
			semconv.ServiceVersion(cfg.Service.Version),
			semconv.DeploymentEnvironmentName(cfg.Environment),
		),
	)
	if err != nil {
		return nil, err
	}
	return resource.Merge(resource.Default(), custom)
}

// TracerProvider returns the SDK trace provider, or a no-op one when tracing is off.
func (p *provider) TracerProvider() trace.TracerProvider {
	if p.tracerProvider == nil {
		return noop.NewTracerProvider()
	}
	return p.tracerProvider
}

// MeterProvider returns the SDK meter provider, or a no-op one when metrics are off.
func (p *provider) MeterProvider() metric.MeterProvider {
	if p.meterProvider == nil {
		return metricnoop.NewMeterProvider()
	}
	return p.meterProvider
}

// Shutdown flushes and stops both SDK providers.
func (p *provider) Shutdown(ctx context.Context) error {
	return p.both(ctx, "shutdown", (*sdktrace.TracerProvider).Shutdown, (*sdkmetric.MeterProvider).Shutdown)
}

// ForceFlush exports pending spans and metrics without stopping the providers.
func (p *provider) ForceFlush(ctx context.Context) error {
	return p.both(ctx, "flush", (*sdktrace.TracerProvider).ForceFlush, (*sdkmetric.MeterProvider).ForceFlush)
}

// both runs traceFn and meterFn on whichever providers exist and joins their errors.
func (p *provider) both(
	ctx context.Context,
	verb string,
	traceFn func(*sdktrace.TracerProvider, context.Context) error,
	meterFn func(*sdkmetric.MeterProvider, context.Context) error,
) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.tracerProvider != nil {
		if err := traceFn(p.tracerProvider, ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to %s trace provider: %w", verb, err))
		}
	}
	if p.meterProvider != nil {
		if err := meterFn(p.meterProvider, ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to %s meter provider: %w", verb, err))
		}
	}
	return errors.Join(errs...)
}

// DefaultShutdownTimeout bounds Shutdown when no timeout is given.
const DefaultShutdownTimeout = 10 * time.Second

// Shutdown flushes and shuts down provider within timeout. A nil provider is a no-op
// and a non-positive timeout uses DefaultShutdownTimeout.
func Shutdown(provider Provider, timeout time.Duration) error {
	if provider == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := provider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("observability flush failed: %w", err)
	}
	if err := provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("observability shutdown failed: %w", err)
	}
	return nil
}
