// Package probe answers two questions about the host: which transfer tools are
// installed, and how much CPU and memory the planner may size workers against.
package probe

import (
	"os/exec"
	"runtime"

	"github.com/larrydiffey/xferplan/pkg/core"
)

// LookPathFunc resolves an executable name on PATH
type LookPathFunc func(file string) (string, error)

// PathProbe checks each tool's executable with exec.LookPath
type PathProbe struct {
	lookPath LookPathFunc
	binPaths map[core.TransferTool]string
}

// NewPathProbe creates a probe that searches PATH
func NewPathProbe() *PathProbe {
	return &PathProbe{
		lookPath: exec.LookPath,
		binPaths: make(map[core.TransferTool]string),
	}
}

// WithLookPath replaces the PATH lookup, mainly for tests
func (p *PathProbe) WithLookPath(fn LookPathFunc) *PathProbe {
	p.lookPath = fn
	return p
}

// WithBinaryPath points a tool at an explicit executable instead of PATH
func (p *PathProbe) WithBinaryPath(tool core.TransferTool, path string) *PathProbe {
	p.binPaths[tool] = path
	return p
}

// Available returns the installed tools. The optimized AWS CLI variant is the
// same executable, so it is available whenever the baseline is.
func (p *PathProbe) Available() core.ToolSet {
	set := core.NewToolSet()
	for _, tool := range core.AllTools() {
		name := tool.Binary()
		if explicit, ok := p.binPaths[tool]; ok {
			name = explicit
		}
		if _, err := p.lookPath(name); err == nil {
			set[tool] = true
		}
	}
	if set.Has(core.ToolAWSCLI) || set.Has(core.ToolAWSCLIOptimized) {
		set[core.ToolAWSCLI] = true
		set[core.ToolAWSCLIOptimized] = true
	}
	return set
}

// StaticProbe reports a fixed tool set
type StaticProbe struct {
	Tools core.ToolSet
}

// Available returns the configured set
func (s StaticProbe) Available() core.ToolSet {
	return s.Tools
}

// HostResources reads CPU and memory from the running host on every call
type HostResources struct{}

// NewHostResources creates a resource oracle for the local machine
func NewHostResources() *HostResources {
	return &HostResources{}
}

// CPUCount returns the number of logical CPUs usable by this process
func (h *HostResources) CPUCount() int {
	return runtime.NumCPU()
}

// AvailableMemoryMB returns free memory in megabytes, 0 when the platform cannot tell
func (h *HostResources) AvailableMemoryMB() uint64 {
	return availableMemoryMB()
}

// StaticResources reports fixed readings
type StaticResources struct {
	CPUs     int
	MemoryMB uint64
}

// CPUCount returns the configured CPU count
func (s StaticResources) CPUCount() int {
	return s.CPUs
}

// AvailableMemoryMB returns the configured memory
func (s StaticResources) AvailableMemoryMB() uint64 {
	return s.MemoryMB
}
