package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lae/internal/engine"
	"github.com/ajitpratap0/lae/pkg/config"
	"github.com/ajitpratap0/lae/pkg/errors"
	"github.com/ajitpratap0/lae/pkg/logger"
	"github.com/ajitpratap0/lae/pkg/observability"
	"github.com/ajitpratap0/lae/pkg/output"
	"github.com/ajitpratap0/lae/pkg/parser"
	"github.com/ajitpratap0/lae/pkg/performance"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	v := config.NewViper()
	var configFile string

	root := &cobra.Command{
		Use:   "lae <threads> <input-file> <output-file>",
		Short: "lae - parallel linear algebra engine",
		Long: `lae evaluates a tree of matrix operations (add, multiply, negate, transpose)
read from a JSON document, spreading every step row by row over a pool of
workers, and writes {"result": ...} or {"error": "..."} to the output file.

Example:
  lae 4 input.json output.json
  lae --report --metrics-addr :9090 8 input.json.zst output.json.gz`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(3)(cmd, args); err != nil {
				fmt.Fprintln(stderr, "Usage: lae <threads> <input-file> <output-file>")
				return err
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			threads, err := parseThreads(args[0])
			if err != nil {
				fmt.Fprintln(stderr, "Error:", err)
				return err
			}
			v.Set(config.KeyThreads, threads)

			cfg, err := resolveConfig(v, configFile)
			if err != nil {
				fmt.Fprintln(stderr, "Error:", err)
				return err
			}
			return evaluate(cmd.Context(), cfg, args[1], args[2], stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		fmt.Fprintln(stderr, "Error:", err)
		return err
	})

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to a YAML configuration file")
	flags.String(config.KeyLogLevel, "info", "Log level (debug, info, warn, error)")
	flags.String(config.KeyLogFormat, "json", "Log encoding (json, console)")
	flags.Bool(config.KeyReport, false, "Print the per-worker report after a successful run")
	flags.String(config.KeyMetricsAddr, "", "Serve Prometheus metrics on this address, e.g. :9090")
	flags.Bool(config.KeyTracing, false, "Export spans of every step to stderr")
	flags.Bool(config.KeyIndent, false, "Pretty-print the output document")
	_ = v.BindPFlags(flags)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "lae v%s\n", version)
			fmt.Fprintf(stdout, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(stdout, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(v, configFile)
			if err != nil {
				fmt.Fprintln(stderr, "Error:", err)
				return err
			}
			data, err := config.Dump(cfg)
			if err != nil {
				return err
			}
			_, err = stdout.Write(data)
			return err
		},
	})

	return root
}

func parseThreads(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.Newf(errors.ErrorTypeConfig, "invalid number of threads %q, must be an integer", arg)
	}
	if n <= 0 {
		return 0, errors.Newf(errors.ErrorTypeConfig, "number of threads must be positive, got %d", n)
	}
	return n, nil
}

// resolveConfig layers the config file, LAE_* variables and set flags over
// the defaults.
func resolveConfig(v *viper.Viper, path string) (*config.EngineConfig, error) {
	cfg, err := config.LoadEngineConfig(path)
	if err != nil {
		return nil, err
	}
	config.ApplyOverrides(v, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func evaluate(ctx context.Context, cfg *config.EngineConfig, inputPath, outputPath string, stdout, stderr io.Writer) error {
	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		Encoding:    cfg.Logging.Format,
		OutputPaths: cfg.Logging.Output,
	}); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx = context.WithValue(ctx, logger.RunIDKey, newRunID())
	ctx = context.WithValue(ctx, logger.InputKey, inputPath)
	log := logger.WithContext(ctx).With(
		zap.String("component", "lae-cli"),
		zap.String("output", outputPath),
	)

	if err := startTracing(cfg, stderr); err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.Shutdown(shutdownCtx); err != nil {
			log.Warn("failed to flush spans", zap.Error(err))
		}
	}()

	if cfg.Metrics.Enabled {
		stopMetrics, err := serveMetrics(cfg.Metrics.Addr, log)
		if err != nil {
			log.Warn("metrics endpoint disabled", zap.Error(err))
		} else {
			defer stopMetrics()
		}
	}

	writer := output.NewWriter(output.Options{
		Indent: cfg.Output.Indent,
		Level:  cfg.CompressionLevel(),
	})
	fail := func(prefix string, cause error) error {
		message := prefix + cause.Error()
		if werr := writer.WriteError(outputPath, message); werr != nil {
			fmt.Fprintln(stderr, "Error writing error message to output file:", werr)
		}
		fmt.Fprintln(stderr, message)
		return cause
	}

	monitor := performance.NewResourceMonitor()
	log.Info("starting evaluation", zap.Int("threads", cfg.Threads))

	g, err := parser.ParseFile(inputPath)
	if err != nil {
		return fail("Error parsing input file: ", err)
	}

	e, err := engine.New(engine.Config{Threads: cfg.Threads}, log)
	if err != nil {
		return fail("Illegal operation: ", err)
	}
	defer e.Close()

	result, err := e.Run(ctx, g)
	if err != nil {
		return fail("Illegal operation: ", err)
	}

	if err := writer.WriteResult(outputPath, result); err != nil {
		return fail("Error writing result: ", err)
	}

	p50, p95, p99 := e.StepLatencies()
	log.Info("evaluation completed",
		zap.Int64("steps", e.Steps()),
		zap.Duration("step_p50", p50),
		zap.Duration("step_p95", p95),
		zap.Duration("step_p99", p99))
	log.Info("resource usage", monitor.GetResourceUsage().Fields()...)

	fmt.Fprintln(stdout, "Computation completed successfully.")
	if cfg.Report {
		fmt.Fprintln(stdout, "\n--- Worker Report ---")
		fmt.Fprint(stdout, e.WorkerReport())
	}
	return nil
}

// newRunID returns a short identifier correlating the log lines of one run.
func newRunID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}

func startTracing(cfg *config.EngineConfig, stderr io.Writer) error {
	tc := observability.DefaultTracingConfig()
	tc.Enabled = cfg.Tracing.Enabled
	tc.SamplingRate = cfg.Tracing.SampleRate
	tc.PrettyPrint = cfg.Tracing.PrettyPrint
	tc.ServiceVersion = version
	tc.Writer = stderr
	return observability.InitTracing(tc)
}

// serveMetrics exposes the default Prometheus registry on addr until the
// returned function is called.
func serveMetrics(addr string, log *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to listen for metrics").
			WithDetail("addr", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
