package config

import (
	"bytes"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/lae/pkg/errors"
)

// EnvPrefix prefixes the environment variables that override configuration.
const EnvPrefix = "LAE"

// Load loads a configuration from a YAML file into config after
// substituting ${VAR} references.
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").
			WithDetail("path", filePath)
	}

	content := substituteEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML").
			WithDetail("path", filePath)
	}

	return nil
}

// LoadEngineConfig returns Default overlaid with the file at path. An empty
// path yields the defaults. The result is not validated.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if err := Load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := Dump(config)
	if err != nil {
		return err
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to write config file").
			WithDetail("path", filePath)
	}

	return nil
}

// Dump renders config as YAML with two-space indentation.
func Dump(config interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}
	return buf.Bytes(), nil
}

// Override keys understood by ApplyOverrides. Command flags use the same
// names; environment variables use LAE_ and underscores, e.g. LAE_LOG_LEVEL.
const (
	KeyThreads     = "threads"
	KeyLogLevel    = "log-level"
	KeyLogFormat   = "log-format"
	KeyReport      = "report"
	KeyMetricsAddr = "metrics-addr"
	KeyTracing     = "tracing"
	KeyIndent      = "indent"
)

// NewViper returns a viper instance reading LAE_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// ApplyOverrides copies every key explicitly set in v, from a bound flag or
// the environment, over cfg. Setting metrics-addr also enables metrics.
func ApplyOverrides(v *viper.Viper, cfg *EngineConfig) {
	if v.IsSet(KeyThreads) {
		cfg.Threads = v.GetInt(KeyThreads)
	}
	if v.IsSet(KeyLogLevel) {
		cfg.Logging.Level = v.GetString(KeyLogLevel)
	}
	if v.IsSet(KeyLogFormat) {
		cfg.Logging.Format = v.GetString(KeyLogFormat)
	}
	if v.IsSet(KeyReport) {
		cfg.Report = v.GetBool(KeyReport)
	}
	if v.IsSet(KeyMetricsAddr) {
		if addr := v.GetString(KeyMetricsAddr); addr != "" {
			cfg.Metrics.Enabled = true
			cfg.Metrics.Addr = addr
		}
	}
	if v.IsSet(KeyTracing) {
		cfg.Tracing.Enabled = v.GetBool(KeyTracing)
	}
	if v.IsSet(KeyIndent) {
		cfg.Output.Indent = v.GetBool(KeyIndent)
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
