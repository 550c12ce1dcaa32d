package observability

import (
	"errors"
	"io"
	"maps"
	"strings"
	"time"
)

const (
	// EndpointStdout is a special endpoint value that writes telemetry to Config.Output
	// (standard output when unset) instead of an OTLP collector.
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	// EnvironmentDevelopment is the default environment name.
	EnvironmentDevelopment = "development"
)

var (
	ErrNilConfig          = errors.New("observability: config is nil")
	ErrMissingServiceName = errors.New("observability: service name is required when enabled")
	ErrInvalidSampleRate  = errors.New("observability: trace sample rate must be between 0.0 and 1.0")
	ErrInvalidProtocol    = errors.New("observability: protocol must be http or grpc")

	// ErrInvalidEndpointFormat rejects a grpc endpoint with a scheme or an
	// http endpoint without one.
	ErrInvalidEndpointFormat = errors.New("observability: invalid endpoint format for protocol")
)

// BoolPtr returns a pointer to the provided bool value.
func BoolPtr(v bool) *bool {
	return &v
}

// Float64Ptr returns a pointer to the provided float64 value.
func Float64Ptr(v float64) *float64 {
	return &v
}

func cloneHeaderMap(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	clone := make(map[string]string, len(headers))
	maps.Copy(clone, headers)
	return clone
}

// Config defines where the spans and metrics recorded around statement execution go.
// It is read from the `observability` section of the configuration file.
type Config struct {
	// Enabled turns the OpenTelemetry SDK on. When false every provider is a no-op.
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	Service     ServiceConfig `koanf:"service" json:"service" yaml:"service" mapstructure:"service"`
	Environment string        `koanf:"environment" json:"environment" yaml:"environment" mapstructure:"environment"`
	Trace       TraceConfig   `koanf:"trace" json:"trace" yaml:"trace" mapstructure:"trace"`
	Metrics     MetricsConfig `koanf:"metrics" json:"metrics" yaml:"metrics" mapstructure:"metrics"`

	// Output receives stdout-endpoint telemetry. Nil means os.Stdout.
	Output io.Writer `koanf:"-" json:"-" yaml:"-" mapstructure:"-"`
}

// ServiceConfig identifies the service in exported resources.
type ServiceConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name" mapstructure:"name"`
	Version string `koanf:"version" json:"version" yaml:"version" mapstructure:"version"`
}

// TraceConfig configures span export.
type TraceConfig struct {
	// Enabled defaults to true when observability is enabled.
	Enabled *bool `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Endpoint is "stdout" or an OTLP collector address. HTTP endpoints carry a scheme,
	// gRPC endpoints are host:port.
	Endpoint string            `koanf:"endpoint" json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Protocol string            `koanf:"protocol" json:"protocol" yaml:"protocol" mapstructure:"protocol"`
	Insecure bool              `koanf:"insecure" json:"insecure" yaml:"insecure" mapstructure:"insecure"`
	Headers  map[string]string `koanf:"headers" json:"headers" yaml:"headers" mapstructure:"headers"`

	Sample SampleConfig `koanf:"sample" json:"sample" yaml:"sample" mapstructure:"sample"`
	Batch  BatchConfig  `koanf:"batch" json:"batch" yaml:"batch" mapstructure:"batch"`
	Export ExportConfig `koanf:"export" json:"export" yaml:"export" mapstructure:"export"`
}

// SampleConfig holds the trace sampling ratio.
type SampleConfig struct {
	// Rate is the fraction of traces recorded, 0.0 to 1.0. Nil defaults to 1.0.
	Rate *float64 `koanf:"rate" json:"rate" yaml:"rate" mapstructure:"rate"`
}

// BatchConfig holds span batching settings.
type BatchConfig struct {
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	Size    int           `koanf:"size" json:"size" yaml:"size" mapstructure:"size"`
}

// ExportConfig holds exporter timeouts.
type ExportConfig struct {
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// MetricsConfig configures metric export. Protocol, headers and TLS settings are
// shared with TraceConfig.
type MetricsConfig struct {
	Enabled  *bool         `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `koanf:"endpoint" json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Interval time.Duration `koanf:"interval" json:"interval" yaml:"interval" mapstructure:"interval"`
	Export   ExportConfig  `koanf:"export" json:"export" yaml:"export" mapstructure:"export"`
}

// ApplyDefaults fills unset fields. NewProvider calls it on a copy of the config.
func (c *Config) ApplyDefaults() {
	if c.Service.Version == "" {
		c.Service.Version = "unknown"
	}
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}

	c.applyTraceDefaults()
	c.applyMetricsDefaults()
}

func (c *Config) development() bool {
	return c.Environment == EnvironmentDevelopment
}

func (c *Config) applyTraceDefaults() {
	if c.Trace.Endpoint == "" {
		c.Trace.Endpoint = EndpointStdout
	}
	// Only set when unset; an explicit false is preserved
	if c.Enabled && c.Trace.Enabled == nil {
		c.Trace.Enabled = BoolPtr(true)
	}
	if c.Trace.Protocol == "" {
		c.Trace.Protocol = ProtocolHTTP
	}
	if c.Trace.Sample.Rate == nil {
		c.Trace.Sample.Rate = Float64Ptr(1.0)
	}

	if c.Trace.Batch.Timeout == 0 {
		if c.development() || c.Trace.Endpoint == EndpointStdout {
			c.Trace.Batch.Timeout = 500 * time.Millisecond
		} else {
			c.Trace.Batch.Timeout = 5 * time.Second
		}
	}
	if c.Trace.Batch.Size == 0 {
		c.Trace.Batch.Size = 512
	}
	if c.Trace.Export.Timeout == 0 {
		c.Trace.Export.Timeout = c.exportTimeout(c.Trace.Endpoint)
	}
	c.Trace.Headers = cloneHeaderMap(c.Trace.Headers)
}

func (c *Config) applyMetricsDefaults() {
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = EndpointStdout
	}
	if c.Enabled && c.Metrics.Enabled == nil {
		c.Metrics.Enabled = BoolPtr(true)
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = 10 * time.Second
	}
	if c.Metrics.Export.Timeout == 0 {
		c.Metrics.Export.Timeout = c.exportTimeout(c.Metrics.Endpoint)
	}
}

func (c *Config) exportTimeout(endpoint string) time.Duration {
	if c.development() || endpoint == EndpointStdout {
		return 10 * time.Second
	}
	return 60 * time.Second
}

// Validate checks the configuration. A disabled configuration is always valid.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.Service.Name == "" {
		return ErrMissingServiceName
	}

	if c.Trace.Sample.Rate != nil {
		if rate := *c.Trace.Sample.Rate; rate < 0.0 || rate > 1.0 {
			return ErrInvalidSampleRate
		}
	}

	protocol := c.Trace.Protocol
	if protocol == "" {
		protocol = ProtocolHTTP
	}
	if protocol != ProtocolHTTP && protocol != ProtocolGRPC {
		return ErrInvalidProtocol
	}

	if err := validateEndpointFormat(c.Trace.Endpoint, protocol); err != nil {
		return err
	}
	return validateEndpointFormat(c.Metrics.Endpoint, protocol)
}

// validateEndpointFormat checks that the endpoint matches the protocol:
// gRPC endpoints are host:port, HTTP endpoints include the http:// or https:// scheme.
func validateEndpointFormat(endpoint, protocol string) error {
	if endpoint == EndpointStdout || endpoint == "" {
		return nil
	}

	hasScheme := strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
	if protocol == ProtocolGRPC && hasScheme {
		return ErrInvalidEndpointFormat
	}
	if protocol == ProtocolHTTP && !hasScheme {
		return ErrInvalidEndpointFormat
	}
	return nil
}
