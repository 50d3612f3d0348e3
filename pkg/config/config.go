package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/larrydiffey/xferplan/pkg/core"
)

// EnvPrefix is prepended to every environment variable read by FromEnv
const EnvPrefix = "XFERPLAN"

// Config represents the complete configuration
type Config struct {
	Transfer  TransferConfig  `json:"transfer" yaml:"transfer"`
	Execution ExecutionConfig `json:"execution" yaml:"execution"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
	Log       LogConfig       `json:"log" yaml:"log"`
	Tools     ToolsConfig     `json:"tools" yaml:"tools"`
}

// TransferConfig describes the transfer request
type TransferConfig struct {
	Source        string  `json:"source" yaml:"source"`
	Destination   string  `json:"destination" yaml:"destination"`
	SizeGB        float64 `json:"size_gb" yaml:"size_gb"`
	Items         int64   `json:"items" yaml:"items"`
	Domain        string  `json:"domain,omitempty" yaml:"domain,omitempty"`
	AccessPattern string  `json:"access_pattern,omitempty" yaml:"access_pattern,omitempty"` // frequent, infrequent, archive, deep_archive
}

// ExecutionConfig controls how a strategy is run
type ExecutionConfig struct {
	DryRun         *bool  `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Timeout        string `json:"timeout,omitempty" yaml:"timeout,omitempty"` // Go duration, empty for none
	OutputCapBytes int    `json:"output_cap_bytes,omitempty" yaml:"output_cap_bytes,omitempty"`
	Retries        *int   `json:"retries,omitempty" yaml:"retries,omitempty"`
}

// IsDryRun reports whether dry run was requested
func (e ExecutionConfig) IsDryRun() bool {
	return e.DryRun != nil && *e.DryRun
}

// RetryCount returns the configured retries, 0 when unset
func (e ExecutionConfig) RetryCount() int {
	if e.Retries == nil || *e.Retries < 0 {
		return 0
	}
	return *e.Retries
}

// OutputConfig controls output formatting
type OutputConfig struct {
	Format string `json:"format" yaml:"format"` // text, json, yaml, csv
	Stream *bool  `json:"stream,omitempty" yaml:"stream,omitempty"` // NDJSON lifecycle events on stderr
}

// IsStreaming reports whether lifecycle events were requested
func (o OutputConfig) IsStreaming() bool {
	return o.Stream != nil && *o.Stream
}

// CatalogConfig points at a reference-table overlay
type CatalogConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// MetricsConfig controls metric export
type MetricsConfig struct {
	Textfile string `json:"textfile,omitempty" yaml:"textfile,omitempty"`
}

// LogConfig controls the logger
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text, json
}

// ToolsConfig points tools at explicit executables instead of PATH
type ToolsConfig struct {
	S5cmd  string `json:"s5cmd,omitempty" yaml:"s5cmd,omitempty"`
	Rclone string `json:"rclone,omitempty" yaml:"rclone,omitempty"`
	AWS    string `json:"aws,omitempty" yaml:"aws,omitempty"` // both AWS CLI variants
}

// BinaryPaths returns the explicit executable of each configured tool
func (t ToolsConfig) BinaryPaths() map[core.TransferTool]string {
	paths := make(map[core.TransferTool]string)
	if t.S5cmd != "" {
		paths[core.ToolS5cmd] = t.S5cmd
	}
	if t.Rclone != "" {
		paths[core.ToolRclone] = t.Rclone
	}
	if t.AWS != "" {
		paths[core.ToolAWSCLI] = t.AWS
		paths[core.ToolAWSCLIOptimized] = t.AWS
	}
	return paths
}

// LoadConfig loads configuration from file, stdin, or inline string
func LoadConfig(input string) (*Config, error) {
	var data []byte
	var err error

	switch {
	case input == "-":
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	case strings.HasPrefix(input, "{") || strings.HasPrefix(input, "---"):
		// Inline JSON/YAML string
		data = []byte(input)
	default:
		data, err = os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("read file %s: %w", input, err)
		}
	}

	return ParseAuto(data)
}

// ParseAuto auto-detects format (JSON or YAML) and parses
func ParseAuto(data []byte) (*Config, error) {
	trimmed := strings.TrimSpace(string(data))

	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty config data")
	}

	var cfg Config

	// Try JSON first (starts with { or [)
	if trimmed[0] == '{' || trimmed[0] == '[' {
		if err := json.Unmarshal([]byte(trimmed), &cfg); err == nil {
			return &cfg, nil
		}
	}

	// Try YAML
	if err := yaml.Unmarshal([]byte(trimmed), &cfg); err == nil {
		return &cfg, nil
	}

	return nil, fmt.Errorf("couldn't parse as JSON or YAML")
}

// FromEnv loads configuration from XFERPLAN_* environment variables,
// e.g. XFERPLAN_SOURCE, XFERPLAN_SIZE_GB, XFERPLAN_LOG_LEVEL
func FromEnv() *Config {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Unset variables stay nil so they cannot override lower layers
	optBool := func(key string) *bool {
		if !v.IsSet(key) {
			return nil
		}
		b := v.GetBool(key)
		return &b
	}
	optInt := func(key string) *int {
		if !v.IsSet(key) {
			return nil
		}
		n := v.GetInt(key)
		return &n
	}

	return &Config{
		Transfer: TransferConfig{
			Source:        v.GetString("source"),
			Destination:   v.GetString("destination"),
			SizeGB:        v.GetFloat64("size_gb"),
			Items:         v.GetInt64("items"),
			Domain:        v.GetString("domain"),
			AccessPattern: v.GetString("access_pattern"),
		},
		Execution: ExecutionConfig{
			DryRun:         optBool("dry_run"),
			Timeout:        v.GetString("timeout"),
			OutputCapBytes: v.GetInt("output_cap_bytes"),
			Retries:        optInt("retries"),
		},
		Output: OutputConfig{
			Format: v.GetString("output"),
			Stream: optBool("stream"),
		},
		Catalog: CatalogConfig{
			Path: v.GetString("catalog"),
		},
		Metrics: MetricsConfig{
			Textfile: v.GetString("metrics_textfile"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
		Tools: ToolsConfig{
			S5cmd:  v.GetString("s5cmd_path"),
			Rclone: v.GetString("rclone_path"),
			AWS:    v.GetString("aws_path"),
		},
	}
}

// Merge combines multiple configs with priority (earlier = higher priority)
func Merge(configs ...*Config) *Config {
	result := &Config{}

	for i := len(configs) - 1; i >= 0; i-- {
		cfg := configs[i]
		if cfg == nil {
			continue
		}

		// Merge transfer
		if cfg.Transfer.Source != "" {
			result.Transfer.Source = cfg.Transfer.Source
		}
		if cfg.Transfer.Destination != "" {
			result.Transfer.Destination = cfg.Transfer.Destination
		}
		if cfg.Transfer.SizeGB != 0 {
			result.Transfer.SizeGB = cfg.Transfer.SizeGB
		}
		if cfg.Transfer.Items != 0 {
			result.Transfer.Items = cfg.Transfer.Items
		}
		if cfg.Transfer.Domain != "" {
			result.Transfer.Domain = cfg.Transfer.Domain
		}
		if cfg.Transfer.AccessPattern != "" {
			result.Transfer.AccessPattern = cfg.Transfer.AccessPattern
		}

		// Merge execution
		if cfg.Execution.DryRun != nil {
			result.Execution.DryRun = cfg.Execution.DryRun
		}
		if cfg.Execution.Timeout != "" {
			result.Execution.Timeout = cfg.Execution.Timeout
		}
		if cfg.Execution.OutputCapBytes > 0 {
			result.Execution.OutputCapBytes = cfg.Execution.OutputCapBytes
		}
		if cfg.Execution.Retries != nil {
			result.Execution.Retries = cfg.Execution.Retries
		}

		// Merge output
		if cfg.Output.Format != "" {
			result.Output.Format = cfg.Output.Format
		}
		if cfg.Output.Stream != nil {
			result.Output.Stream = cfg.Output.Stream
		}

		if cfg.Catalog.Path != "" {
			result.Catalog.Path = cfg.Catalog.Path
		}
		if cfg.Metrics.Textfile != "" {
			result.Metrics.Textfile = cfg.Metrics.Textfile
		}
		if cfg.Log.Level != "" {
			result.Log.Level = cfg.Log.Level
		}
		if cfg.Log.Format != "" {
			result.Log.Format = cfg.Log.Format
		}

		if cfg.Tools.S5cmd != "" {
			result.Tools.S5cmd = cfg.Tools.S5cmd
		}
		if cfg.Tools.Rclone != "" {
			result.Tools.Rclone = cfg.Tools.Rclone
		}
		if cfg.Tools.AWS != "" {
			result.Tools.AWS = cfg.Tools.AWS
		}
	}

	// Set defaults if not set
	if result.Output.Format == "" {
		result.Output.Format = "text"
	}
	if result.Log.Level == "" {
		result.Log.Level = "info"
	}
	if result.Log.Format == "" {
		result.Log.Format = "text"
	}

	return result
}

// Request builds the transfer request described by the config
func (c *Config) Request() *core.TransferRequest {
	return &core.TransferRequest{
		Source:        c.Transfer.Source,
		Destination:   c.Transfer.Destination,
		TotalSizeGB:   c.Transfer.SizeGB,
		ItemCount:     c.Transfer.Items,
		Domain:        c.Transfer.Domain,
		AccessPattern: core.AccessPattern(c.Transfer.AccessPattern),
	}
}

// TimeoutDuration parses the execution timeout; zero means no deadline
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Execution.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Execution.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid execution timeout %q: %w", c.Execution.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid execution timeout %q: negative", c.Execution.Timeout)
	}
	return d, nil
}
