// Package config holds the configuration of the lae command.
//
// Configuration is resolved in three layers, later layers winning:
//
//  1. Default(): one worker per logical CPU, info logging, no metrics or tracing
//  2. an optional YAML file passed with --config
//  3. LAE_* environment variables and explicitly set command flags
//
// # YAML file
//
//	threads: 8
//	report: true
//	logging:
//	  level: debug
//	  format: console
//	metrics:
//	  enabled: true
//	  addr: ":9090"
//	tracing:
//	  enabled: true
//	  sample_rate: 0.5
//	output:
//	  indent: true
//	  compression: best
//
// ${VAR_NAME} references anywhere in the file are replaced by the value of the
// environment variable before parsing; unset variables become empty.
//
// # Overrides
//
// ApplyOverrides reads the keys threads, log-level, log-format, report,
// metrics-addr, tracing and indent from a viper instance. NewViper binds them
// to LAE_THREADS, LAE_LOG_LEVEL and so on; the command additionally binds its
// flags of the same names.
//
// Validate checks every field and returns all problems combined with
// go.uber.org/multierr, each carrying a "field" detail.
package config
