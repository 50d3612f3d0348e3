package core

import (
	"context"
)

//go:generate mockgen -destination mocks/mock_core.go -package mock_core github.com/larrydiffey/xferplan/pkg/core Runner,Translator,ToolProbe,ResourceOracle

// ToolProbe reports which transfer tools are installed on the host
type ToolProbe interface {
	// Available returns the set of installed tools
	Available() ToolSet
}

// ResourceOracle reports host resources; readings are taken fresh on every call
type ResourceOracle interface {
	// CPUCount returns the number of usable CPUs
	CPUCount() int

	// AvailableMemoryMB returns free memory in megabytes, 0 if unknown
	AvailableMemoryMB() uint64
}

// ConfigFile is client configuration a tool reads from disk. The adapter writes it to a
// private temp file for one invocation and exports its path through EnvVar.
type ConfigFile struct {
	EnvVar  string
	Name    string
	Content []byte
}

// Invocation is the concrete command line for one tool run
type Invocation struct {
	Program string
	Args    []string
	Env     map[string]string
	Files   []ConfigFile
}

// Argv returns program followed by its arguments
func (i *Invocation) Argv() []string {
	return append([]string{i.Program}, i.Args...)
}

// Translator maps a strategy onto the argument vector of one tool
type Translator interface {
	// Tool returns the tool this translator builds commands for
	Tool() TransferTool

	// BuildInvocation constructs the command for a strategy
	BuildInvocation(strategy *TransferStrategy, req *TransferRequest, dryRun bool) (*Invocation, error)
}

// ProcessOutput is what a finished process yields
type ProcessOutput struct {
	ExitCode  int
	Stdout    []byte
	Stderr    []byte
	Truncated bool
}

// Runner starts an external process and waits for it to finish
type Runner interface {
	// Run executes program with args and env overrides. A non-nil error means the
	// process could not be started, or was killed because ctx ended.
	Run(ctx context.Context, program string, args []string, env map[string]string) (*ProcessOutput, error)
}
