// Package executor runs transfer strategies through the external tools.
//
// The Adapter is the single dispatch point from a strategy's tool to the
// translator that builds its command line. It never retries and never panics
// on tool failures: every outcome comes back as a core.ExecutionResult.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/larrydiffey/xferplan/pkg/core"
	"github.com/larrydiffey/xferplan/pkg/engines/awscli"
	"github.com/larrydiffey/xferplan/pkg/engines/rclone"
	"github.com/larrydiffey/xferplan/pkg/engines/s5cmd"
	"github.com/larrydiffey/xferplan/pkg/metrics"
)

// Adapter executes strategies with the registered translators
type Adapter struct {
	translators map[core.TransferTool]core.Translator
	runner      core.Runner
	logger      *slog.Logger
	metrics     *metrics.Collector
	tempDir     string
	now         func() time.Time
}

// New creates an adapter with all built-in translators registered
func New() *Adapter {
	a := &Adapter{
		translators: make(map[core.TransferTool]core.Translator),
		runner:      NewExecRunner(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
	}

	a.Register(s5cmd.New())
	a.Register(rclone.New())
	a.Register(awscli.New())
	a.Register(awscli.NewOptimized())

	return a
}

// Register sets the translator for its tool, replacing any previous one
func (a *Adapter) Register(t core.Translator) *Adapter {
	a.translators[t.Tool()] = t
	return a
}

// WithBinaryPaths re-registers the built-in translators of the given tools
// with explicit executables
func (a *Adapter) WithBinaryPaths(paths map[core.TransferTool]string) *Adapter {
	for tool, path := range paths {
		if path == "" {
			continue
		}
		switch tool {
		case core.ToolS5cmd:
			a.Register(s5cmd.New().WithBinaryPath(path))
		case core.ToolRclone:
			a.Register(rclone.New().WithBinaryPath(path))
		case core.ToolAWSCLI:
			a.Register(awscli.New().WithBinaryPath(path))
		case core.ToolAWSCLIOptimized:
			a.Register(awscli.NewOptimized().WithBinaryPath(path))
		}
	}
	return a
}

// WithRunner sets the process backend
func (a *Adapter) WithRunner(r core.Runner) *Adapter {
	a.runner = r
	return a
}

// WithLogger sets the logger
func (a *Adapter) WithLogger(logger *slog.Logger) *Adapter {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithMetrics sets the metrics collector
func (a *Adapter) WithMetrics(m *metrics.Collector) *Adapter {
	a.metrics = m
	return a
}

// WithTempDir sets where per-invocation config files are written
func (a *Adapter) WithTempDir(dir string) *Adapter {
	a.tempDir = dir
	return a
}

// Translator returns the translator registered for a tool
func (a *Adapter) Translator(tool core.TransferTool) (core.Translator, error) {
	t, ok := a.translators[tool]
	if !ok {
		return nil, fmt.Errorf("no translator registered for tool: %s", tool)
	}
	return t, nil
}

// Execute runs a strategy and waits for the tool to finish. With dryRun the
// command is built but nothing is started or written to disk.
func (a *Adapter) Execute(ctx context.Context, strategy *core.TransferStrategy, req *core.TransferRequest, dryRun bool) *core.ExecutionResult {
	result := &core.ExecutionResult{
		ID:        uuid.NewString(),
		DryRun:    dryRun,
		Strategy:  strategy,
		StartedAt: a.now(),
		ExitCode:  -1,
	}
	defer a.finish(result)

	if strategy == nil || req == nil {
		a.startFailed(result, errors.New("strategy and request are required"))
		return result
	}
	result.Tool = strategy.Tool

	translator, err := a.Translator(strategy.Tool)
	if err != nil {
		a.startFailed(result, err)
		return result
	}

	inv, err := translator.BuildInvocation(strategy, req, dryRun)
	if err != nil {
		a.startFailed(result, fmt.Errorf("build command: %w", err))
		return result
	}
	result.Command = inv.Argv()
	result.Env = maps.Clone(inv.Env)

	if dryRun {
		result.Success = true
		result.ExitCode = 0
		return result
	}

	env := maps.Clone(inv.Env)
	if env == nil {
		env = make(map[string]string)
	}
	if len(inv.Files) > 0 {
		dir, err := a.writeFiles(inv.Files, env)
		if dir != "" {
			defer os.RemoveAll(dir)
		}
		if err != nil {
			a.startFailed(result, err)
			return result
		}
		result.Env = maps.Clone(env)
	}

	a.logger.Info("starting transfer", "id", result.ID, "tool", result.Tool, "command", result.CommandLine())

	out, err := a.runner.Run(ctx, inv.Program, inv.Args, env)
	result.Duration = a.now().Sub(result.StartedAt)
	if out != nil {
		result.Stdout = string(out.Stdout)
		result.Stderr = string(out.Stderr)
		result.Truncated = out.Truncated
		result.ExitCode = out.ExitCode
	}

	switch {
	case err == nil && out != nil && out.ExitCode == 0:
		result.Success = true
	case ctx.Err() != nil:
		result.Failure = core.FailureTimeout
		result.Err = &core.ExecutionError{Kind: core.KindExecutionTimeout, Tool: result.Tool, ExitCode: result.ExitCode, Err: ctx.Err()}
	case err != nil:
		result.Failure = core.FailureStartError
		result.ExitCode = -1
		result.Err = &core.ExecutionError{Kind: core.KindExecutionStart, Tool: result.Tool, ExitCode: -1, Err: err}
	default:
		result.Failure = core.FailureExitStatus
		result.Err = &core.ExecutionError{Kind: core.KindExecutionFailure, Tool: result.Tool, ExitCode: result.ExitCode}
	}

	return result
}

// ExecuteAsync runs Execute in its own goroutine. The channel yields exactly
// one result and is then closed.
func (a *Adapter) ExecuteAsync(ctx context.Context, strategy *core.TransferStrategy, req *core.TransferRequest, dryRun bool) <-chan *core.ExecutionResult {
	ch := make(chan *core.ExecutionResult, 1)
	go func() {
		defer close(ch)
		ch <- a.Execute(ctx, strategy, req, dryRun)
	}()
	return ch
}

// writeFiles materializes config files in a private directory and points
// their env vars at them
func (a *Adapter) writeFiles(files []core.ConfigFile, env map[string]string) (string, error) {
	dir, err := os.MkdirTemp(a.tempDir, "xferplan-*")
	if err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	for _, f := range files {
		path := filepath.Join(dir, filepath.Base(f.Name))
		if err := os.WriteFile(path, f.Content, 0o600); err != nil {
			return dir, fmt.Errorf("write %s: %w", f.Name, err)
		}
		if f.EnvVar != "" {
			env[f.EnvVar] = path
		}
	}
	return dir, nil
}

func (a *Adapter) startFailed(result *core.ExecutionResult, err error) {
	result.Failure = core.FailureStartError
	result.ExitCode = -1
	result.Err = &core.ExecutionError{Kind: core.KindExecutionStart, Tool: result.Tool, ExitCode: -1, Err: err}
}

func (a *Adapter) finish(result *core.ExecutionResult) {
	attrs := []any{
		"id", result.ID,
		"tool", result.Tool,
		"dry_run", result.DryRun,
		"exit_code", result.ExitCode,
		"duration", result.Duration,
	}
	if result.Success {
		a.logger.Info("execution finished", attrs...)
	} else {
		a.logger.Warn("execution failed", append(attrs, "failure", result.Failure, "error", result.Err)...)
	}
	a.metrics.RecordExecution(result)
}
