package rclone

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/larrydiffey/xferplan/pkg/core"
)

// ConfigEnvVar points rclone at the per-invocation config file
const ConfigEnvVar = "RCLONE_CONFIG"

// Remote names written to the generated config
const (
	sourceRemote     = "src"
	destRemote       = "dst"
	compressedRemote = "dst_gzip"
)

// Engine translates strategies into rclone invocations. Cloud locators are
// rewritten to remotes defined in a generated config file, so no user rclone
// config is required; credentials come from the environment.
type Engine struct {
	binPath string
}

// New creates a new rclone engine
func New() *Engine {
	return &Engine{
		binPath: "rclone", // Assume rclone is in PATH
	}
}

// WithBinaryPath sets a custom rclone binary path
func (e *Engine) WithBinaryPath(path string) *Engine {
	e.binPath = path
	return e
}

// Name returns the engine name
func (e *Engine) Name() string {
	return "rclone"
}

// Tool returns the tool this engine drives
func (e *Engine) Tool() core.TransferTool {
	return core.ToolRclone
}

// SupportsProtocol checks if rclone supports a protocol
func (e *Engine) SupportsProtocol(protocol core.Protocol) bool {
	switch protocol {
	case core.ProtocolLocal, core.ProtocolS3, core.ProtocolGCS, core.ProtocolAzure,
		core.ProtocolB2, core.ProtocolSwift, core.ProtocolHTTP:
		return true
	default:
		return false
	}
}

// BuildInvocation constructs the rclone command and its config file
func (e *Engine) BuildInvocation(strategy *core.TransferStrategy, req *core.TransferRequest, dryRun bool) (*core.Invocation, error) {
	cfg := ini.Empty()

	source, err := addRemote(cfg, sourceRemote, req.Source, strategy, false)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	dest, err := addRemote(cfg, destRemote, req.Destination, strategy, true)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	// Compression wraps the destination in a gzip compress remote
	if strategy.EnableCompression && dest != req.Destination {
		sec, err := cfg.NewSection(compressedRemote)
		if err != nil {
			return nil, err
		}
		sec.Key("type").SetValue("compress")
		sec.Key("remote").SetValue(dest)
		sec.Key("mode").SetValue("gzip")
		dest = compressedRemote + ":"
	}

	inv := &core.Invocation{
		Program: e.binPath,
		Args:    e.buildCommand(strategy, source, dest, dryRun),
	}

	if len(cfg.Sections()) > 1 {
		var buf bytes.Buffer
		if _, err := cfg.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("render rclone config: %w", err)
		}
		inv.Files = []core.ConfigFile{{
			EnvVar:  ConfigEnvVar,
			Name:    "rclone.conf",
			Content: buf.Bytes(),
		}}
	}

	return inv, nil
}

// buildCommand constructs the rclone command arguments
func (e *Engine) buildCommand(strategy *core.TransferStrategy, source, dest string, dryRun bool) []string {
	workers := strconv.Itoa(max(strategy.WorkerCount, 1))

	args := []string{"copy", source, dest}
	args = append(args, "--transfers", workers, "--checkers", workers)
	args = append(args, "--stats", "30s", "--stats-one-line")

	if dryRun {
		args = append(args, "--dry-run")
	}

	return args
}

// addRemote defines a remote section for a cloud locator and returns the
// rclone path that refers to it. Local paths are returned unchanged.
func addRemote(cfg *ini.File, name, locator string, strategy *core.TransferStrategy, isDest bool) (string, error) {
	protocol := core.DetectProtocol(locator)
	if protocol == core.ProtocolLocal {
		return locator, nil
	}

	host, path := splitLocator(locator)
	if host == "" {
		return "", fmt.Errorf("missing bucket in %s", locator)
	}

	sec, err := cfg.NewSection(name)
	if err != nil {
		return "", err
	}

	bucket := host
	switch protocol {
	case core.ProtocolS3:
		sec.Key("type").SetValue("s3")
		sec.Key("provider").SetValue("AWS")
		sec.Key("env_auth").SetValue("true")
		if isDest {
			if class := strategy.StorageClass; class != "" && class != core.StorageStandard {
				sec.Key("storage_class").SetValue(string(class.S3Type()))
			}
			sec.Key("upload_cutoff").SetValue(sizeMB(strategy.MultipartThresholdMB))
			sec.Key("chunk_size").SetValue(sizeMB(strategy.ChunkSizeMB))
		}
		if strategy.UseAcceleration {
			sec.Key("use_accelerate_endpoint").SetValue("true")
		}

	case core.ProtocolGCS:
		sec.Key("type").SetValue("google cloud storage")
		sec.Key("env_auth").SetValue("true")

	case core.ProtocolAzure:
		sec.Key("type").SetValue("azureblob")
		sec.Key("env_auth").SetValue("true")
		// container@account.blob.core.windows.net
		if container, account, ok := strings.Cut(host, "@"); ok {
			bucket = container
			account, _, _ = strings.Cut(account, ".")
			sec.Key("account").SetValue(account)
		}

	case core.ProtocolB2:
		sec.Key("type").SetValue("b2")

	case core.ProtocolSwift:
		sec.Key("type").SetValue("swift")
		sec.Key("env_auth").SetValue("true")

	case core.ProtocolHTTP:
		if isDest {
			return "", fmt.Errorf("rclone cannot write to %s", locator)
		}
		scheme, _, _ := strings.Cut(locator, "://")
		sec.Key("type").SetValue("http")
		sec.Key("url").SetValue(strings.ToLower(scheme) + "://" + host)
		return name + ":" + path, nil

	default:
		return "", fmt.Errorf("unsupported protocol %s", protocol)
	}

	if path == "" {
		return name + ":" + bucket, nil
	}
	return name + ":" + bucket + "/" + path, nil
}

// splitLocator splits scheme://host/path into host and path
func splitLocator(locator string) (string, string) {
	_, rest, ok := strings.Cut(locator, "://")
	if !ok {
		return "", locator
	}
	host, path, _ := strings.Cut(rest, "/")
	return host, path
}

// sizeMB formats megabytes as an rclone size suffix
func sizeMB(mb int) string {
	return strconv.Itoa(max(mb, 1)) + "M"
}
