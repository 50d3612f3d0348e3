package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/larrydiffey/xferplan/pkg/catalog"
	"github.com/larrydiffey/xferplan/pkg/config"
	"github.com/larrydiffey/xferplan/pkg/core"
	"github.com/larrydiffey/xferplan/pkg/executor"
	"github.com/larrydiffey/xferplan/pkg/metrics"
	"github.com/larrydiffey/xferplan/pkg/optimizer"
	"github.com/larrydiffey/xferplan/pkg/output"
	"github.com/larrydiffey/xferplan/pkg/probe"
	"github.com/larrydiffey/xferplan/pkg/retry"
)

const version = "0.1.0"

// app holds the state of one CLI invocation
type app struct {
	stdout io.Writer
	stderr io.Writer

	probe     core.ToolProbe
	resources core.ResourceOracle
	retryWait time.Duration

	// Global flags
	configFile   string
	outputFormat string

	// Flag values, applied only when changed
	flags   config.Config
	dryRun  bool
	stream  bool
	retries int
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:       stdout,
		stderr:       stderr,
		probe:        probe.NewPathProbe(),
		resources:    probe.NewHostResources(),
		retryWait:    5 * time.Second,
		outputFormat: "text",
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := newApp(os.Stdout, os.Stderr).run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code
func (a *app) run(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return core.ExitSuccess
	}

	var usage *usageError
	if errors.As(err, &usage) {
		fmt.Fprintln(a.stderr, "Error:", err)
		return core.ExitConfigError
	}

	format, ferr := output.ParseFormat(a.outputFormat)
	if ferr != nil {
		format = output.FormatText
	}
	_ = output.New(format, a.stderr).Error(err)
	return core.ExitCodeOf(err)
}

// usageError marks bad command-line input or configuration
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "xferplan",
		Short: "xferplan - transfer strategy planning for research data",
		Long: `xferplan picks a transfer tool, storage class, concurrency and chunking
for a bulk data movement job, estimates its cost and duration, and can run
the plan through s5cmd, rclone or the AWS CLI.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (JSON/YAML), use '-' for stdin")
	root.PersistentFlags().StringVarP(&a.outputFormat, "output", "o", "text", "output format: text, json, yaml, csv")
	root.PersistentFlags().StringVar(&a.flags.Log.Level, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.flags.Log.Format, "log-format", "", "log format: text, json")
	root.PersistentFlags().StringVar(&a.flags.Catalog.Path, "catalog", "", "YAML/JSON overlay for the reference tables")
	root.PersistentFlags().StringVar(&a.flags.Metrics.Textfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")
	root.PersistentFlags().StringVar(&a.flags.Tools.S5cmd, "s5cmd-path", "", "s5cmd executable, instead of searching PATH")
	root.PersistentFlags().StringVar(&a.flags.Tools.Rclone, "rclone-path", "", "rclone executable, instead of searching PATH")
	root.PersistentFlags().StringVar(&a.flags.Tools.AWS, "aws-path", "", "aws executable, instead of searching PATH")

	planCmd := &cobra.Command{
		Use:   "plan [source] [destination]",
		Short: "Recommend a transfer strategy without running it",
		Long: `Plan a transfer and print the strategy with its rationale.

Examples:
  # 2.5 TB of genomics reads into S3
  xferplan plan /data/genomes/ s3://lab-bucket/genomes/ --size-gb 2500 --items 15000 --domain genomics

  # Plan from a config file
  xferplan plan --config transfer.yaml -o json`,
		Args: cobra.MaximumNArgs(2),
		RunE: a.runPlan,
	}
	executeCmd := &cobra.Command{
		Use:   "execute [source] [destination]",
		Short: "Plan a transfer and run it with the selected tool",
		Long: `Plan a transfer and run it. With --dry-run the tool command is built
and printed but nothing is started.`,
		Args: cobra.MaximumNArgs(2),
		RunE: a.runExecute,
	}
	for _, cmd := range []*cobra.Command{planCmd, executeCmd} {
		cmd.Flags().Float64Var(&a.flags.Transfer.SizeGB, "size-gb", 0, "total transfer size in GB")
		cmd.Flags().Int64Var(&a.flags.Transfer.Items, "items", 0, "number of objects or files")
		cmd.Flags().StringVar(&a.flags.Transfer.Domain, "domain", "", "research domain, e.g. genomics, climate")
		cmd.Flags().StringVar(&a.flags.Transfer.AccessPattern, "pattern", "", "access pattern: frequent, infrequent, archive, deep_archive")
		cmd.Flags().BoolVar(&a.stream, "stream", false, "stream lifecycle events as newline-delimited JSON on stderr")
	}
	executeCmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "build the tool command without running it")
	executeCmd.Flags().StringVar(&a.flags.Execution.Timeout, "timeout", "", "deadline per attempt, e.g. 6h")
	executeCmd.Flags().IntVar(&a.retries, "retries", 0, "retries after a timeout or non-zero exit")
	executeCmd.Flags().IntVar(&a.flags.Execution.OutputCapBytes, "output-cap", 0, "bytes of stdout/stderr to keep per stream")

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List transfer tools, their availability and profiles",
		Args:  cobra.NoArgs,
		RunE:  a.runTools,
	}
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print JSON schema for config file",
		Long: `Print the JSON schema for the configuration file format.
Useful for validation and IDE autocomplete.`,
		Args: cobra.NoArgs,
		RunE: a.runSchema,
	}

	root.AddCommand(planCmd, executeCmd, toolsCmd, schemaCmd)
	return root
}

// session is everything a command needs after configuration is resolved
type session struct {
	cfg       *config.Config
	formatter *output.Formatter
	stream    *output.StreamWriter
	logger    *slog.Logger
	metrics   *metrics.Collector
	optimizer *optimizer.Optimizer
}

// setup resolves configuration and builds the planning components.
// Priority: flags > args > config file > environment.
func (a *app) setup(cmd *cobra.Command, args []string, needRequest bool) (*session, error) {
	var fileCfg *config.Config
	if a.configFile != "" {
		var err error
		fileCfg, err = config.LoadConfig(a.configFile)
		if err != nil {
			return nil, &usageError{fmt.Errorf("load config: %w", err)}
		}
	}

	flagCfg := a.changedFlags(cmd)
	if len(args) == 2 {
		flagCfg.Transfer.Source = args[0]
		flagCfg.Transfer.Destination = args[1]
	} else if len(args) == 1 {
		return nil, &usageError{errors.New("both [source] and [destination] are required")}
	}

	cfg := config.Merge(flagCfg, fileCfg, config.FromEnv())
	if needRequest && (cfg.Transfer.Source == "" || cfg.Transfer.Destination == "") {
		return nil, &usageError{errors.New("either --config or [source] [destination] arguments required")}
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, &usageError{err}
	}
	a.outputFormat = string(format)

	logger, err := newLogger(a.stderr, cfg.Log)
	if err != nil {
		return nil, &usageError{err}
	}

	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		cat, err = catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			return nil, &usageError{err}
		}
	}

	s := &session{
		cfg:       cfg,
		formatter: output.New(format, a.stdout),
		logger:    logger,
	}
	if cfg.Output.IsStreaming() {
		s.stream = output.NewStreamWriter(a.stderr)
	}
	if cfg.Metrics.Textfile != "" {
		s.metrics = metrics.New()
	}
	if pp, ok := a.probe.(*probe.PathProbe); ok {
		for tool, path := range cfg.Tools.BinaryPaths() {
			pp.WithBinaryPath(tool, path)
		}
	}
	s.optimizer = optimizer.New(a.probe, a.resources).
		WithCatalog(cat).
		WithLogger(logger).
		WithMetrics(s.metrics)

	return s, nil
}

// finish writes the metrics textfile, if one was requested
func (s *session) finish() {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
		s.logger.Error("write metrics textfile", "path", s.cfg.Metrics.Textfile, "error", err)
	}
}

// changedFlags returns a config holding only the flags set on the command line
func (a *app) changedFlags(cmd *cobra.Command) *config.Config {
	cfg := &config.Config{}
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("size-gb") {
		cfg.Transfer.SizeGB = a.flags.Transfer.SizeGB
	}
	if changed("items") {
		cfg.Transfer.Items = a.flags.Transfer.Items
	}
	if changed("domain") {
		cfg.Transfer.Domain = a.flags.Transfer.Domain
	}
	if changed("pattern") {
		cfg.Transfer.AccessPattern = a.flags.Transfer.AccessPattern
	}
	if changed("dry-run") {
		cfg.Execution.DryRun = &a.dryRun
	}
	if changed("timeout") {
		cfg.Execution.Timeout = a.flags.Execution.Timeout
	}
	if changed("retries") {
		cfg.Execution.Retries = &a.retries
	}
	if changed("output-cap") {
		cfg.Execution.OutputCapBytes = a.flags.Execution.OutputCapBytes
	}
	if changed("stream") {
		cfg.Output.Stream = &a.stream
	}
	if changed("output") {
		cfg.Output.Format = a.outputFormat
	}
	if changed("log-level") {
		cfg.Log.Level = a.flags.Log.Level
	}
	if changed("log-format") {
		cfg.Log.Format = a.flags.Log.Format
	}
	if changed("catalog") {
		cfg.Catalog.Path = a.flags.Catalog.Path
	}
	if changed("metrics-textfile") {
		cfg.Metrics.Textfile = a.flags.Metrics.Textfile
	}
	if changed("s5cmd-path") {
		cfg.Tools.S5cmd = a.flags.Tools.S5cmd
	}
	if changed("rclone-path") {
		cfg.Tools.Rclone = a.flags.Tools.Rclone
	}
	if changed("aws-path") {
		cfg.Tools.AWS = a.flags.Tools.AWS
	}
	return cfg
}

func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", cfg.Level)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}
}

// runPlan executes the plan command
func (a *app) runPlan(cmd *cobra.Command, args []string) error {
	s, err := a.setup(cmd, args, true)
	if err != nil {
		return err
	}
	defer s.finish()

	strategy, err := s.optimizer.Plan(cmd.Context(), s.cfg.Request())
	if err != nil {
		_ = s.stream.Error(err)
		return err
	}
	_ = s.stream.Planned(strategy)

	return s.formatter.Strategy(strategy)
}

// runExecute executes the execute command
func (a *app) runExecute(cmd *cobra.Command, args []string) error {
	s, err := a.setup(cmd, args, true)
	if err != nil {
		return err
	}
	defer s.finish()

	timeout, err := s.cfg.TimeoutDuration()
	if err != nil {
		return &usageError{err}
	}

	req := s.cfg.Request()
	strategy, err := s.optimizer.Plan(cmd.Context(), req)
	if err != nil {
		_ = s.stream.Error(err)
		return err
	}
	_ = s.stream.Planned(strategy)

	runner := executor.NewExecRunner()
	if s.cfg.Execution.OutputCapBytes > 0 {
		runner = runner.WithOutputCap(s.cfg.Execution.OutputCapBytes)
	}
	adapter := executor.New().
		WithBinaryPaths(s.cfg.Tools.BinaryPaths()).
		WithRunner(runner).
		WithLogger(s.logger).
		WithMetrics(s.metrics)

	policy := retry.ExponentialPolicy(s.cfg.Execution.RetryCount() + 1)
	policy.InitialWait = a.retryWait
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		s.logger.Warn("retrying transfer", "attempt", attempt, "wait", wait, "error", err)
		if r := retry.FailedResult(err); r != nil {
			_ = s.stream.Retry(r, attempt, wait)
		}
	}

	exec := &streamingExecutor{adapter: adapter, stream: s.stream}
	result, attempts := retry.Execute(cmd.Context(), exec, policy, timeout, strategy, req, s.cfg.Execution.IsDryRun())
	s.logger.Debug("execution attempts", "tool", strategy.Tool, "summary", attempts.String())

	if err := s.formatter.Result(result); err != nil {
		return err
	}
	if !result.Success {
		return result.Err
	}
	return nil
}

// streamingExecutor reports each attempt on the event stream
type streamingExecutor struct {
	adapter *executor.Adapter
	stream  *output.StreamWriter
	attempt int
}

func (e *streamingExecutor) Execute(ctx context.Context, strategy *core.TransferStrategy, req *core.TransferRequest, dryRun bool) *core.ExecutionResult {
	e.attempt++
	_ = e.stream.Start(strategy, e.attempt, dryRun)
	result := <-e.adapter.ExecuteAsync(ctx, strategy, req, dryRun)
	_ = e.stream.Complete(result)
	return result
}

// runTools executes the tools command
func (a *app) runTools(cmd *cobra.Command, args []string) error {
	s, err := a.setup(cmd, args, false)
	if err != nil {
		return err
	}
	defer s.finish()

	available := s.optimizer.Available()
	cat := s.optimizer.Catalog()

	rows := make([]output.ToolRow, 0, len(core.AllTools()))
	for _, tool := range core.AllTools() {
		profile, _ := cat.Profile(tool)
		rows = append(rows, output.ToolRow{
			Tool:      tool,
			Binary:    tool.Binary(),
			Available: available.Has(tool),
			Profile:   profile,
		})
	}

	return s.formatter.Tools(rows)
}

// runSchema executes the schema command
func (a *app) runSchema(cmd *cobra.Command, args []string) error {
	_, err := fmt.Fprintln(a.stdout, configSchema)
	return err
}

const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "xferplan Configuration",
  "type": "object",
  "properties": {
    "transfer": {
      "type": "object",
      "properties": {
        "source": {"type": "string"},
        "destination": {"type": "string"},
        "size_gb": {"type": "number", "minimum": 0},
        "items": {"type": "integer", "minimum": 0},
        "domain": {"type": "string"},
        "access_pattern": {"type": "string", "enum": ["frequent", "infrequent", "archive", "deep_archive", "unknown"]}
      },
      "required": ["source", "destination"]
    },
    "execution": {
      "type": "object",
      "properties": {
        "dry_run": {"type": "boolean"},
        "timeout": {"type": "string", "description": "Go duration, e.g. 6h"},
        "output_cap_bytes": {"type": "integer", "minimum": 1},
        "retries": {"type": "integer", "minimum": 0}
      }
    },
    "output": {
      "type": "object",
      "properties": {
        "format": {"type": "string", "enum": ["text", "json", "yaml", "csv"]},
        "stream": {"type": "boolean"}
      }
    },
    "catalog": {
      "type": "object",
      "properties": {
        "path": {"type": "string"}
      }
    },
    "metrics": {
      "type": "object",
      "properties": {
        "textfile": {"type": "string"}
      }
    },
    "log": {
      "type": "object",
      "properties": {
        "level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
        "format": {"type": "string", "enum": ["text", "json"]}
      }
    },
    "tools": {
      "type": "object",
      "description": "Explicit executables, instead of searching PATH",
      "properties": {
        "s5cmd": {"type": "string"},
        "rclone": {"type": "string"},
        "aws": {"type": "string"}
      }
    }
  },
  "required": ["transfer"]
}`
