package awscli

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/larrydiffey/xferplan/pkg/core"
)

// ConfigEnvVar points the AWS CLI at the per-invocation config file
const ConfigEnvVar = "AWS_CONFIG_FILE"

// Engine translates strategies into `aws s3` invocations. The CLI takes its
// transfer tuning only from the s3 block of its config file, so each invocation
// gets a private config: the caller's active profile plus the tuned s3 block.
type Engine struct {
	binPath    string
	optimized  bool
	baseConfig string
	profile    string
}

// New creates an engine for the baseline AWS CLI
func New() *Engine {
	return newEngine(false)
}

// NewOptimized creates an engine for the AWS CLI with tuned multipart settings
func NewOptimized() *Engine {
	return newEngine(true)
}

func newEngine(optimized bool) *Engine {
	e := &Engine{
		binPath:   "aws", // Assume aws is in PATH
		optimized: optimized,
		profile:   os.Getenv("AWS_PROFILE"),
	}
	if path := os.Getenv(ConfigEnvVar); path != "" {
		e.baseConfig = path
	} else if home, err := os.UserHomeDir(); err == nil {
		e.baseConfig = filepath.Join(home, ".aws", "config")
	}
	return e
}

// WithBinaryPath sets a custom aws binary path
func (e *Engine) WithBinaryPath(path string) *Engine {
	e.binPath = path
	return e
}

// WithBaseConfig sets the config file whose active profile is carried over
func (e *Engine) WithBaseConfig(path string) *Engine {
	e.baseConfig = path
	return e
}

// WithProfile sets the profile name used in the generated config
func (e *Engine) WithProfile(profile string) *Engine {
	e.profile = profile
	return e
}

// Name returns the engine name
func (e *Engine) Name() string {
	return string(e.Tool())
}

// Tool returns the tool this engine drives
func (e *Engine) Tool() core.TransferTool {
	if e.optimized {
		return core.ToolAWSCLIOptimized
	}
	return core.ToolAWSCLI
}

// SupportsProtocol checks if the AWS CLI can read or write a protocol
func (e *Engine) SupportsProtocol(protocol core.Protocol) bool {
	return protocol == core.ProtocolS3 || protocol == core.ProtocolLocal
}

// BuildInvocation constructs the aws command and its config file.
// The AWS CLI has no transport compression, so EnableCompression is not translated.
func (e *Engine) BuildInvocation(strategy *core.TransferStrategy, req *core.TransferRequest, dryRun bool) (*core.Invocation, error) {
	src, dst := core.DetectProtocol(req.Source), core.DetectProtocol(req.Destination)
	if !e.SupportsProtocol(src) || !e.SupportsProtocol(dst) {
		return nil, fmt.Errorf("aws s3 supports only s3:// and local paths: %s -> %s", req.Source, req.Destination)
	}
	if src != core.ProtocolS3 && dst != core.ProtocolS3 {
		return nil, fmt.Errorf("aws s3 needs at least one s3:// location: %s -> %s", req.Source, req.Destination)
	}

	content, err := e.renderConfig(strategy)
	if err != nil {
		return nil, err
	}

	return &core.Invocation{
		Program: e.binPath,
		Args:    e.buildCommand(strategy, req, dryRun),
		Files: []core.ConfigFile{{
			EnvVar:  ConfigEnvVar,
			Name:    "aws-config",
			Content: content,
		}},
	}, nil
}

// buildCommand constructs the aws command arguments
func (e *Engine) buildCommand(strategy *core.TransferStrategy, req *core.TransferRequest, dryRun bool) []string {
	verb := "sync"
	if req.ItemCount == 1 && namesFile(req.Source) {
		verb = "cp"
	}

	args := []string{"s3", verb, req.Source, req.Destination}

	if strategy.StorageClass != "" && strategy.StorageClass != core.StorageStandard &&
		core.DetectProtocol(req.Destination) == core.ProtocolS3 {
		args = append(args, "--storage-class", string(strategy.StorageClass.S3Type()))
	}

	args = append(args, "--only-show-errors", "--no-progress")

	if dryRun {
		args = append(args, "--dryrun")
	}

	return args
}

// namesFile reports whether a locator refers to one object rather than a
// directory or prefix. `aws s3 cp` without --recursive fails on a directory, so
// an existing local path is checked on disk; anything else must carry a file
// extension to be treated as a single object.
func namesFile(locator string) bool {
	if strings.HasSuffix(locator, "/") {
		return false
	}
	if core.DetectProtocol(locator) == core.ProtocolLocal {
		if info, err := os.Stat(locator); err == nil {
			return info.Mode().IsRegular()
		}
	}
	return path.Ext(strings.TrimPrefix(locator, "s3://")) != ""
}

// s3Settings returns the nested s3 block in the order it is written
func (e *Engine) s3Settings(strategy *core.TransferStrategy) [][2]string {
	workers := max(strategy.WorkerCount, 1)
	settings := [][2]string{
		{"max_concurrent_requests", strconv.Itoa(workers)},
	}
	if e.optimized {
		settings = append(settings,
			[2]string{"max_queue_size", strconv.Itoa(max(workers*1000, 1000))},
			[2]string{"multipart_threshold", strconv.Itoa(max(strategy.MultipartThresholdMB, 1)) + "MB"},
			[2]string{"multipart_chunksize", strconv.Itoa(max(strategy.ChunkSizeMB, 1)) + "MB"},
		)
	}
	if strategy.UseAcceleration {
		settings = append(settings, [2]string{"use_accelerate_endpoint", "true"})
	}
	return settings
}

// sectionName is the config section of the active profile
func (e *Engine) sectionName() string {
	if e.profile == "" || e.profile == "default" {
		return "default"
	}
	return "profile " + e.profile
}

// renderConfig writes the active profile's flat settings followed by the s3
// block. ini.v1 reads the base file but cannot emit indented sub-keys, so the
// output is written directly.
func (e *Engine) renderConfig(strategy *core.TransferStrategy) ([]byte, error) {
	section := e.sectionName()

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", section)

	base, err := e.baseProfile(section)
	if err != nil {
		return nil, err
	}
	for _, kv := range base {
		fmt.Fprintf(&b, "%s = %s\n", kv[0], kv[1])
	}

	b.WriteString("s3 =\n")
	for _, kv := range e.s3Settings(strategy) {
		fmt.Fprintf(&b, "    %s = %s\n", kv[0], kv[1])
	}

	return []byte(b.String()), nil
}

// baseProfile loads the flat keys of a profile section from the base config.
// A missing file yields no keys.
func (e *Engine) baseProfile(section string) ([][2]string, error) {
	if e.baseConfig == "" {
		return nil, nil
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		Loose:                      true,
		AllowPythonMultilineValues: true,
		SpaceBeforeInlineComment:   true,
	}, e.baseConfig)
	if err != nil {
		return nil, fmt.Errorf("read aws config %s: %w", e.baseConfig, err)
	}

	sec, err := cfg.GetSection(section)
	if err != nil {
		return nil, nil
	}

	var keys [][2]string
	for _, k := range sec.Keys() {
		// The s3 block is regenerated; other nested blocks are not carried over
		if k.Name() == "s3" || strings.Contains(k.Value(), "\n") || k.Value() == "" {
			continue
		}
		keys = append(keys, [2]string{k.Name(), k.Value()})
	}
	return keys, nil
}
