package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// TransferTool identifies an external transfer executable
type TransferTool string

const (
	ToolS5cmd           TransferTool = "s5cmd"             // High-throughput bulk copier
	ToolRclone          TransferTool = "rclone"            // Multi-cloud sync tool
	ToolAWSCLI          TransferTool = "aws_cli"           // Baseline, assumed always installed
	ToolAWSCLIOptimized TransferTool = "aws_cli_optimized" // AWS CLI with tuned s3 client settings
)

// AllTools returns every known tool in selection priority order
func AllTools() []TransferTool {
	return []TransferTool{ToolS5cmd, ToolRclone, ToolAWSCLIOptimized, ToolAWSCLI}
}

// Binary returns the executable name looked up on PATH
func (t TransferTool) Binary() string {
	switch t {
	case ToolAWSCLI, ToolAWSCLIOptimized:
		return "aws"
	default:
		return string(t)
	}
}

// ParseTransferTool validates a tool name
func ParseTransferTool(s string) (TransferTool, error) {
	for _, t := range AllTools() {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown transfer tool: %q", s)
}

// StorageClass represents an object storage billing tier
type StorageClass string

const (
	StorageStandard           StorageClass = "STANDARD"
	StorageIntelligentTiering StorageClass = "INTELLIGENT_TIERING"
	StorageStandardIA         StorageClass = "STANDARD_IA"
	StorageOneZoneIA          StorageClass = "ONEZONE_IA"
	StorageGlacier            StorageClass = "GLACIER"
	StorageDeepArchive        StorageClass = "DEEP_ARCHIVE"
)

// AllStorageClasses returns every known storage class
func AllStorageClasses() []StorageClass {
	return []StorageClass{
		StorageStandard,
		StorageIntelligentTiering,
		StorageStandardIA,
		StorageOneZoneIA,
		StorageGlacier,
		StorageDeepArchive,
	}
}

// S3Type returns the S3 API name passed to the tools' storage-class flags
func (c StorageClass) S3Type() s3types.StorageClass {
	switch c {
	case StorageIntelligentTiering:
		return s3types.StorageClassIntelligentTiering
	case StorageStandardIA:
		return s3types.StorageClassStandardIa
	case StorageOneZoneIA:
		return s3types.StorageClassOnezoneIa
	case StorageGlacier:
		return s3types.StorageClassGlacier
	case StorageDeepArchive:
		return s3types.StorageClassDeepArchive
	default:
		return s3types.StorageClassStandard
	}
}

// ParseStorageClass validates a storage class name
func ParseStorageClass(s string) (StorageClass, error) {
	for _, c := range AllStorageClasses() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown storage class: %q", s)
}

// AccessPattern is the caller's expectation of how often data is read after transfer
type AccessPattern string

const (
	AccessFrequent    AccessPattern = "frequent"
	AccessInfrequent  AccessPattern = "infrequent"
	AccessArchive     AccessPattern = "archive"
	AccessDeepArchive AccessPattern = "deep_archive"
	AccessUnknown     AccessPattern = "unknown"
)

// ParseAccessPattern validates an access pattern; empty means unknown
func ParseAccessPattern(s string) (AccessPattern, error) {
	switch p := AccessPattern(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return AccessUnknown, nil
	case AccessFrequent, AccessInfrequent, AccessArchive, AccessDeepArchive, AccessUnknown:
		return p, nil
	default:
		return "", fmt.Errorf("unknown access pattern: %q", s)
	}
}

// ToolProfile holds static performance characteristics of a tool
type ToolProfile struct {
	MaxThroughputGbps  float64  `json:"max_throughput_gbps" yaml:"max_throughput_gbps"`
	ParallelEfficiency float64  `json:"parallel_efficiency" yaml:"parallel_efficiency"` // 0-1
	OverheadSeconds    float64  `json:"overhead_seconds" yaml:"overhead_seconds"`
	BestFor            []string `json:"best_for" yaml:"best_for"`
}

// TransferRequest describes a data-movement job
type TransferRequest struct {
	Source        string        `json:"source" yaml:"source"`
	Destination   string        `json:"destination" yaml:"destination"`
	TotalSizeGB   float64       `json:"total_size_gb" yaml:"total_size_gb"`
	ItemCount     int64         `json:"item_count" yaml:"item_count"`
	Domain        string        `json:"domain,omitempty" yaml:"domain,omitempty"`
	AccessPattern AccessPattern `json:"access_pattern,omitempty" yaml:"access_pattern,omitempty"`
}

// Validate rejects structurally invalid requests
func (r *TransferRequest) Validate() error {
	switch {
	case r == nil:
		return &PlanningError{Field: "request", Reason: "is nil"}
	case strings.TrimSpace(r.Source) == "":
		return &PlanningError{Field: "source", Reason: "is empty"}
	case strings.TrimSpace(r.Destination) == "":
		return &PlanningError{Field: "destination", Reason: "is empty"}
	case math.IsNaN(r.TotalSizeGB) || math.IsInf(r.TotalSizeGB, 0):
		return &PlanningError{Field: "total_size_gb", Reason: "is not a finite number"}
	case r.TotalSizeGB < 0:
		return &PlanningError{Field: "total_size_gb", Reason: fmt.Sprintf("is negative (%g)", r.TotalSizeGB)}
	case r.ItemCount < 0:
		return &PlanningError{Field: "item_count", Reason: fmt.Sprintf("is negative (%d)", r.ItemCount)}
	}
	if _, err := ParseAccessPattern(string(r.AccessPattern)); err != nil {
		return &PlanningError{Field: "access_pattern", Reason: err.Error()}
	}
	return nil
}

// Pattern returns the normalized access pattern of a validated request
func (r *TransferRequest) Pattern() AccessPattern {
	p, err := ParseAccessPattern(string(r.AccessPattern))
	if err != nil {
		return AccessUnknown
	}
	return p
}

// WorkloadProfile contains shape metrics derived from a request
type WorkloadProfile struct {
	AverageItemSizeMB float64 `json:"average_item_size_mb" yaml:"average_item_size_mb"`
	IsBulk            bool    `json:"is_bulk" yaml:"is_bulk"`
	IsLarge           bool    `json:"is_large" yaml:"is_large"`
	CrossCloud        bool    `json:"cross_cloud" yaml:"cross_cloud"`
}

// TransferStrategy is a complete, executable transfer plan
type TransferStrategy struct {
	Tool                    TransferTool    `json:"tool" yaml:"tool"`
	StorageClass            StorageClass    `json:"storage_class" yaml:"storage_class"`
	WorkerCount             int             `json:"worker_count" yaml:"worker_count"`
	MultipartThresholdMB    int             `json:"multipart_threshold_mb" yaml:"multipart_threshold_mb"`
	ChunkSizeMB             int             `json:"chunk_size_mb" yaml:"chunk_size_mb"`
	EnableCompression       bool            `json:"enable_compression" yaml:"enable_compression"`
	UseAcceleration         bool            `json:"use_acceleration" yaml:"use_acceleration"`
	EstimatedCostPerGBMonth float64         `json:"estimated_cost_per_gb_month" yaml:"estimated_cost_per_gb_month"`
	EstimatedDurationHours  float64         `json:"estimated_duration_hours" yaml:"estimated_duration_hours"`
	Notes                   []string        `json:"notes" yaml:"notes"`
	Workload                WorkloadProfile `json:"workload" yaml:"workload"`
	CreatedAt               time.Time       `json:"created_at" yaml:"created_at"`
}

// EstimatedDuration returns the duration estimate as a time.Duration
func (s *TransferStrategy) EstimatedDuration() time.Duration {
	return time.Duration(s.EstimatedDurationHours * float64(time.Hour))
}

// FailureKind classifies why an execution did not succeed
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureStartError FailureKind = "start_error"  // Executable could not be launched
	FailureExitStatus FailureKind = "exit_failure" // Process ran and exited non-zero
	FailureTimeout    FailureKind = "timeout"      // Deadline elapsed, process killed
)

// ExecutionResult is the outcome of running one strategy
type ExecutionResult struct {
	ID        string            `json:"id" yaml:"id"`
	Tool      TransferTool      `json:"tool" yaml:"tool"`
	Success   bool              `json:"success" yaml:"success"`
	DryRun    bool              `json:"dry_run" yaml:"dry_run"`
	Command   []string          `json:"command" yaml:"command"`
	Env       map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Stdout    string            `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr    string            `json:"stderr,omitempty" yaml:"stderr,omitempty"`
	Truncated bool              `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	ExitCode  int               `json:"exit_code" yaml:"exit_code"`
	StartedAt time.Time         `json:"started_at" yaml:"started_at"`
	Duration  time.Duration     `json:"duration" yaml:"duration"`
	Failure   FailureKind       `json:"failure,omitempty" yaml:"failure,omitempty"`
	Err       error             `json:"-" yaml:"-"`
	Strategy  *TransferStrategy `json:"strategy" yaml:"strategy"`
}

// CommandLine returns the invocation as a single shell-like string
func (r *ExecutionResult) CommandLine() string {
	return strings.Join(r.Command, " ")
}

// ToolSet is the set of tools installed on the host
type ToolSet map[TransferTool]bool

// NewToolSet builds a set from a list of tools
func NewToolSet(tools ...TransferTool) ToolSet {
	set := make(ToolSet, len(tools))
	for _, t := range tools {
		set[t] = true
	}
	return set
}

// Has reports whether a tool is available
func (s ToolSet) Has(t TransferTool) bool {
	return s[t]
}

// List returns the available tools in priority order
func (s ToolSet) List() []TransferTool {
	var out []TransferTool
	for _, t := range AllTools() {
		if s[t] {
			out = append(out, t)
		}
	}
	return out
}

// Protocol is the storage scheme named by a locator prefix
type Protocol string

const (
	ProtocolLocal Protocol = "local" // Local filesystem
	ProtocolS3    Protocol = "s3"    // Amazon S3, the primary object store
	ProtocolGCS   Protocol = "gcs"   // Google Cloud Storage
	ProtocolAzure Protocol = "azure" // Azure Blob Storage
	ProtocolB2    Protocol = "b2"    // Backblaze B2
	ProtocolSwift Protocol = "swift" // OpenStack Swift
	ProtocolHTTP  Protocol = "http"  // HTTP/HTTPS
)

// DetectProtocol inspects only the scheme prefix of a locator
func DetectProtocol(locator string) Protocol {
	l := strings.ToLower(strings.TrimSpace(locator))
	switch {
	case strings.HasPrefix(l, "s3://"):
		return ProtocolS3
	case strings.HasPrefix(l, "gs://"), strings.HasPrefix(l, "gcs://"):
		return ProtocolGCS
	case strings.HasPrefix(l, "azure://"), strings.HasPrefix(l, "az://"),
		strings.HasPrefix(l, "wasb://"), strings.HasPrefix(l, "abfs://"):
		return ProtocolAzure
	case strings.HasPrefix(l, "b2://"):
		return ProtocolB2
	case strings.HasPrefix(l, "swift://"):
		return ProtocolSwift
	case strings.HasPrefix(l, "http://"), strings.HasPrefix(l, "https://"):
		return ProtocolHTTP
	default:
		return ProtocolLocal
	}
}

// IsForeignCloud reports whether the protocol is an object store other than S3
func (p Protocol) IsForeignCloud() bool {
	switch p {
	case ProtocolGCS, ProtocolAzure, ProtocolB2, ProtocolSwift:
		return true
	default:
		return false
	}
}
