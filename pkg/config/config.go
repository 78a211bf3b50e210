package config

import (
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/lae/pkg/compression"
	"github.com/ajitpratap0/lae/pkg/errors"
	"github.com/ajitpratap0/lae/pkg/performance"
)

// EngineConfig is the complete configuration of the lae command. It is
// organized into sections:
//   - Threads: number of scheduler workers
//   - Logging: level, encoding and destinations of the global logger
//   - Metrics: Prometheus endpoint
//   - Tracing: OpenTelemetry stdout exporter
//   - Output: artifact encoding
type EngineConfig struct {
	// Threads is the number of scheduler workers
	Threads int `yaml:"threads" json:"threads" mapstructure:"threads"`

	// Report prints the per-worker report after a successful run
	Report bool `yaml:"report" json:"report" mapstructure:"report"`

	Logging LoggingConfig `yaml:"logging" json:"logging" mapstructure:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" mapstructure:"metrics"`
	Tracing TracingConfig `yaml:"tracing" json:"tracing" mapstructure:"tracing"`
	Output  OutputConfig  `yaml:"output" json:"output" mapstructure:"output"`
}

// LoggingConfig configures the global zap logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level" json:"level" mapstructure:"level"`
	// Format is json or console
	Format string `yaml:"format" json:"format" mapstructure:"format"`
	// Output lists zap sink URLs such as stderr or a file path
	Output []string `yaml:"output" json:"output" mapstructure:"output"`
	// Development enables colored levels and error stack traces
	Development bool `yaml:"development" json:"development" mapstructure:"development"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	// Addr is the listen address of the /metrics handler
	Addr string `yaml:"addr" json:"addr" mapstructure:"addr"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	SampleRate  float64 `yaml:"sample_rate" json:"sample_rate" mapstructure:"sample_rate"`
	PrettyPrint bool    `yaml:"pretty_print" json:"pretty_print" mapstructure:"pretty_print"`
}

// OutputConfig configures artifact encoding.
type OutputConfig struct {
	Indent bool `yaml:"indent" json:"indent" mapstructure:"indent"`
	// Compression is the level used when the output path selects a
	// compressed format: fastest, default, better or best
	Compression string `yaml:"compression" json:"compression" mapstructure:"compression"`
}

// Default returns a configuration with one worker per logical CPU, info
// logging to stderr and everything optional disabled.
func Default() *EngineConfig {
	return &EngineConfig{
		Threads: performance.DefaultThreads(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: []string{"stderr"},
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Tracing: TracingConfig{
			Enabled:    false,
			SampleRate: 1.0,
		},
		Output: OutputConfig{
			Compression: "default",
		},
	}
}

// Validate reports every invalid field at once.
func (c *EngineConfig) Validate() error {
	var errs error

	if c.Threads <= 0 {
		errs = multierr.Append(errs, invalid("threads", "threads must be a positive integer, got %d", c.Threads))
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = multierr.Append(errs, invalid("logging.level", "unknown log level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = multierr.Append(errs, invalid("logging.format", "log format must be json or console, got %q", c.Logging.Format))
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = multierr.Append(errs, invalid("metrics.addr", "metrics address is required when metrics are enabled"))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = multierr.Append(errs, invalid("tracing.sample_rate", "sample rate must be within [0, 1], got %g", c.Tracing.SampleRate))
	}
	if _, err := compression.ParseLevel(c.Output.Compression); err != nil {
		errs = multierr.Append(errs, err)
	}

	return errs
}

// CompressionLevel returns the parsed output compression level.
func (c *EngineConfig) CompressionLevel() compression.Level {
	level, _ := compression.ParseLevel(c.Output.Compression)
	return level
}

func invalid(field, format string, args ...interface{}) error {
	return errors.Newf(errors.ErrorTypeConfig, format, args...).WithDetail("field", field)
}
