package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/larrydiffey/xferplan/pkg/core"
)

// DefaultOutputCap bounds captured stdout and stderr, per stream
const DefaultOutputCap = 64 * 1024

// DefaultWaitDelay bounds how long output is drained after the process is killed
const DefaultWaitDelay = 5 * time.Second

// ExecRunner starts tools with os/exec
type ExecRunner struct {
	outputCap int
	waitDelay time.Duration
}

// NewExecRunner creates a runner with the default output cap
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		outputCap: DefaultOutputCap,
		waitDelay: DefaultWaitDelay,
	}
}

// WithOutputCap sets the per-stream capture limit in bytes
func (r *ExecRunner) WithOutputCap(limit int) *ExecRunner {
	if limit > 0 {
		r.outputCap = limit
	}
	return r
}

// Run executes program and waits for it. Env entries override the inherited
// environment. When ctx ends the process is killed and ctx's error returned.
func (r *ExecRunner) Run(ctx context.Context, program string, args []string, env map[string]string) (*core.ProcessOutput, error) {
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}
	cmd.WaitDelay = r.waitDelay

	if len(env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	stdout := &cappedBuffer{limit: r.outputCap}
	stderr := &cappedBuffer{limit: r.outputCap}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()

	out := &core.ProcessOutput{
		Stdout:    stdout.Bytes(),
		Stderr:    stderr.Bytes(),
		Truncated: stdout.truncated || stderr.truncated,
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		out.ExitCode = 0
		return out, nil
	case ctx.Err() != nil:
		out.ExitCode = exitCode(cmd)
		return out, fmt.Errorf("%s killed: %w", program, ctx.Err())
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	case errors.Is(err, exec.ErrWaitDelay):
		// Exited, but a grandchild kept the output pipes open
		out.ExitCode = exitCode(cmd)
		return out, nil
	default:
		out.ExitCode = -1
		return out, err
	}
}

func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

// cappedBuffer keeps the first limit bytes written and discards the rest
type cappedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	remaining := c.limit - c.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			c.truncated = true
		}
		return len(p), nil
	}
	if len(p) > remaining {
		c.buf.Write(p[:remaining])
		c.truncated = true
		return len(p), nil
	}
	return c.buf.Write(p)
}

func (c *cappedBuffer) Bytes() []byte {
	return c.buf.Bytes()
}
