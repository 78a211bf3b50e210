package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/ajitpratap0/lae/pkg/compression"
	"github.com/ajitpratap0/lae/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lae.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.GreaterOrEqual(t, cfg.Threads, 1)
	assert.Equal(t, compression.Default, cfg.CompressionLevel())
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Threads = -1
	cfg.Logging.Level = "loud"
	cfg.Logging.Format = "xml"
	cfg.Metrics = MetricsConfig{Enabled: true}
	cfg.Tracing.SampleRate = 2
	cfg.Output.Compression = "maximum"

	err := cfg.Validate()
	require.Error(t, err)

	errs := multierr.Errors(err)
	assert.Len(t, errs, 6)
	for _, e := range errs {
		assert.True(t, errors.IsType(e, errors.ErrorTypeConfig), e.Error())
	}
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestLoadEngineConfig(t *testing.T) {
	t.Setenv("LAE_TEST_LEVEL", "debug")
	path := writeConfig(t, `
threads: 3
report: true
logging:
  level: ${LAE_TEST_LEVEL}
  format: console
tracing:
  enabled: true
  sample_rate: 0.25
output:
  indent: true
  compression: best
`)

	cfg, err := LoadEngineConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Threads)
	assert.True(t, cfg.Report)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, []string{"stderr"}, cfg.Logging.Output, "unset fields keep defaults")
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRate)
	assert.True(t, cfg.Output.Indent)
	assert.Equal(t, compression.Best, cfg.CompressionLevel())
}

func TestLoadEngineConfigWithoutFile(t *testing.T) {
	cfg, err := LoadEngineConfig("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadEngineConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = LoadEngineConfig(writeConfig(t, "threads: [1, 2"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Threads = 5
	cfg.Metrics = MetricsConfig{Enabled: true, Addr: "127.0.0.1:9999"}

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, Save(path, cfg))

	loaded, err := LoadEngineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyOverridesFromFlags(t *testing.T) {
	flags := pflag.NewFlagSet("lae", pflag.ContinueOnError)
	flags.String(KeyLogLevel, "info", "")
	flags.Bool(KeyReport, false, "")
	flags.String(KeyMetricsAddr, "", "")
	flags.Bool(KeyTracing, false, "")
	require.NoError(t, flags.Parse([]string{"--log-level=warn", "--metrics-addr=:8081"}))

	v := NewViper()
	require.NoError(t, v.BindPFlags(flags))

	cfg := Default()
	cfg.Report = true
	ApplyOverrides(v, cfg)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":8081", cfg.Metrics.Addr)
	assert.True(t, cfg.Report, "flags left at their default do not override")
	assert.False(t, cfg.Tracing.Enabled)
}

func TestApplyOverridesFromEnvironment(t *testing.T) {
	t.Setenv("LAE_THREADS", "7")
	t.Setenv("LAE_LOG_FORMAT", "console")
	t.Setenv("LAE_TRACING", "true")

	cfg := Default()
	ApplyOverrides(NewViper(), cfg)

	assert.Equal(t, 7, cfg.Threads)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.True(t, cfg.Tracing.Enabled)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("LAE_A", "x")
	assert.Equal(t, "x-x-", substituteEnvVars("${LAE_A}-${LAE_A}-${LAE_UNSET_FOR_TEST}"))
	assert.Equal(t, "no refs", substituteEnvVars("no refs"))
	assert.Equal(t, "open ${LAE_A", substituteEnvVars("open ${LAE_A"))
}
