package s5cmd

import (
	"fmt"
	"strconv"

	"github.com/larrydiffey/xferplan/pkg/core"
)

// AccelerateEndpoint is the S3 Transfer Acceleration endpoint
const AccelerateEndpoint = "https://s3-accelerate.amazonaws.com"

// Engine translates strategies into s5cmd invocations
type Engine struct {
	binPath string
}

// New creates a new s5cmd engine
func New() *Engine {
	return &Engine{
		binPath: "s5cmd", // Assume s5cmd is in PATH
	}
}

// WithBinaryPath sets a custom s5cmd binary path
func (e *Engine) WithBinaryPath(path string) *Engine {
	e.binPath = path
	return e
}

// Name returns the engine name
func (e *Engine) Name() string {
	return "s5cmd"
}

// Tool returns the tool this engine drives
func (e *Engine) Tool() core.TransferTool {
	return core.ToolS5cmd
}

// SupportsProtocol checks if s5cmd can read or write a protocol
func (e *Engine) SupportsProtocol(protocol core.Protocol) bool {
	return protocol == core.ProtocolS3 || protocol == core.ProtocolLocal
}

// BuildInvocation constructs the s5cmd command for a strategy.
// s5cmd has no transport compression, so EnableCompression is not translated.
func (e *Engine) BuildInvocation(strategy *core.TransferStrategy, req *core.TransferRequest, dryRun bool) (*core.Invocation, error) {
	for _, loc := range []string{req.Source, req.Destination} {
		if p := core.DetectProtocol(loc); !e.SupportsProtocol(p) {
			return nil, fmt.Errorf("s5cmd does not support %s locations: %s", p, loc)
		}
	}

	return &core.Invocation{
		Program: e.binPath,
		Args:    e.buildCommand(strategy, req, dryRun),
	}, nil
}

// buildCommand constructs the s5cmd command arguments
func (e *Engine) buildCommand(strategy *core.TransferStrategy, req *core.TransferRequest, dryRun bool) []string {
	// Global flags come before the subcommand
	args := []string{"--numworkers", strconv.Itoa(max(strategy.WorkerCount, 1))}

	if strategy.UseAcceleration {
		args = append(args, "--endpoint-url", AccelerateEndpoint)
	}

	if dryRun {
		args = append(args, "--dry-run")
	}

	args = append(args, "cp",
		"--concurrency", strconv.Itoa(partConcurrency(strategy.WorkerCount)),
		"--part-size", strconv.Itoa(max(strategy.ChunkSizeMB, 1)),
	)

	if strategy.StorageClass != "" && strategy.StorageClass != core.StorageStandard &&
		core.DetectProtocol(req.Destination) == core.ProtocolS3 {
		args = append(args, "--storage-class", string(strategy.StorageClass.S3Type()))
	}

	return append(args, req.Source, req.Destination)
}

// partConcurrency is the number of parts uploaded in parallel per object.
// Files already run numworkers-wide, so parts get a tenth of that.
func partConcurrency(workers int) int {
	return max(workers/10, 1)
}
