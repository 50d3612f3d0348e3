package analyzer

import (
	"fmt"
	"math"

	"github.com/larrydiffey/xferplan/pkg/catalog"
	"github.com/larrydiffey/xferplan/pkg/core"
)

// WorkloadAnalyzer derives workload shape from a request and recommends a tool
// and storage tier for it
type WorkloadAnalyzer struct {
	catalog *catalog.Catalog
}

// Analysis is the outcome of the profiling, selection and storage stages
type Analysis struct {
	Profile       core.WorkloadProfile
	Tool          core.TransferTool
	ToolNotes     []string
	StorageClass  core.StorageClass
	StorageReason string
}

// New creates a workload analyzer backed by the given reference tables
func New(cat *catalog.Catalog) *WorkloadAnalyzer {
	if cat == nil {
		cat = catalog.Default()
	}
	return &WorkloadAnalyzer{catalog: cat}
}

// Analyze runs the profiler, tool selector and storage advisor for a validated request
func (a *WorkloadAnalyzer) Analyze(req *core.TransferRequest, available core.ToolSet) (*Analysis, error) {
	profile := a.Profile(req)

	tool, notes, err := a.SelectTool(profile, available)
	if err != nil {
		return nil, err
	}

	class, reason := a.AdviseStorageClass(req.Domain, req.Pattern(), req.TotalSizeGB)

	return &Analysis{
		Profile:       profile,
		Tool:          tool,
		ToolNotes:     notes,
		StorageClass:  class,
		StorageReason: reason,
	}, nil
}

// Profile computes average item size and the bulk, large and cross-cloud flags.
// A zero item count is treated as one item.
func (a *WorkloadAnalyzer) Profile(req *core.TransferRequest) core.WorkloadProfile {
	h := a.catalog.Heuristics
	items := req.ItemCount
	if items < 1 {
		items = 1
	}

	return core.WorkloadProfile{
		AverageItemSizeMB: req.TotalSizeGB * catalog.MBPerGB / float64(items),
		IsBulk:            req.ItemCount > h.BulkItemCount,
		IsLarge:           req.TotalSizeGB > h.LargeDatasetGB,
		CrossCloud:        isCrossCloud(req.Source, req.Destination),
	}
}

// SelectTool picks exactly one tool; the first matching rule wins:
// bulk workloads go to s5cmd, cross-cloud to rclone, large datasets to the
// tuned AWS CLI, and everything else to the plain AWS CLI. The AWS CLI is the
// universal fallback, so its absence is a configuration error.
func (a *WorkloadAnalyzer) SelectTool(profile core.WorkloadProfile, available core.ToolSet) (core.TransferTool, []string, error) {
	var notes []string

	if profile.IsBulk {
		if available.Has(core.ToolS5cmd) {
			return core.ToolS5cmd, append(notes, "Selected s5cmd: optimized for bulk operations"), nil
		}
		notes = append(notes, "s5cmd not installed, bulk workload falls back to the next rule")
	}

	if profile.CrossCloud {
		if available.Has(core.ToolRclone) {
			return core.ToolRclone, append(notes, "Selected rclone: cross-cloud transfer needs multi-cloud support"), nil
		}
		notes = append(notes, "rclone not installed, cross-cloud transfer falls back to the next rule")
	}

	if !available.Has(core.ToolAWSCLI) {
		return "", notes, &core.ConfigurationError{
			Tool:   core.ToolAWSCLI,
			Reason: "aws executable not found on PATH; it is the required fallback tool",
		}
	}

	if profile.IsLarge {
		return core.ToolAWSCLIOptimized, append(notes, fmt.Sprintf(
			"Selected aws_cli_optimized: large dataset with average item size %s",
			formatMB(profile.AverageItemSizeMB),
		)), nil
	}

	if len(notes) > 0 {
		return core.ToolAWSCLI, append(notes, "Selected aws_cli as fallback tool"), nil
	}
	return core.ToolAWSCLI, append(notes, "Selected aws_cli: small transfer, baseline tool is sufficient"), nil
}

// AdviseStorageClass maps domain, access pattern and size to a storage tier.
// It is total: every input yields exactly one class and a reason.
func (a *WorkloadAnalyzer) AdviseStorageClass(domain string, pattern core.AccessPattern, sizeGB float64) (core.StorageClass, string) {
	h := a.catalog.Heuristics
	if pattern == "" {
		pattern = core.AccessUnknown
	}

	if profile, ok := a.catalog.Domain(domain); ok {
		if profile.InitialAccessIntensive && (pattern == core.AccessFrequent || pattern == core.AccessUnknown) {
			return core.StorageIntelligentTiering,
				fmt.Sprintf("Storage INTELLIGENT_TIERING: %s data is read heavily after transfer, then cools", domain)
		}
		if profile.ArchiveSimulationOutputs && sizeGB > h.SimulationArchiveMinGB {
			return core.StorageStandardIA,
				fmt.Sprintf("Storage STANDARD_IA: %s simulation outputs over %.0f GB are archived", domain, h.SimulationArchiveMinGB)
		}
	}

	switch pattern {
	case core.AccessFrequent:
		return core.StorageStandard, "Storage STANDARD: frequent access"
	case core.AccessInfrequent:
		if sizeGB > h.InfrequentIAMinGB {
			return core.StorageStandardIA, fmt.Sprintf("Storage STANDARD_IA: infrequent access, more than %.0f GB", h.InfrequentIAMinGB)
		}
		return core.StorageStandard, "Storage STANDARD: infrequent access but too small for IA minimums"
	case core.AccessArchive:
		if sizeGB > h.ArchiveGlacierMinGB {
			return core.StorageGlacier, fmt.Sprintf("Storage GLACIER: archive access, more than %.0f GB", h.ArchiveGlacierMinGB)
		}
		return core.StorageStandardIA, fmt.Sprintf("Storage STANDARD_IA: archive access, %.0f GB or less", h.ArchiveGlacierMinGB)
	case core.AccessDeepArchive:
		return core.StorageDeepArchive, "Storage DEEP_ARCHIVE: deep archive access"
	}

	return core.StorageIntelligentTiering, "Storage INTELLIGENT_TIERING: access pattern unknown"
}

// isCrossCloud reports whether either end lives in an object store other than S3
func isCrossCloud(source, destination string) bool {
	return core.DetectProtocol(source).IsForeignCloud() || core.DetectProtocol(destination).IsForeignCloud()
}

// formatMB formats a megabyte count as human-readable string
func formatMB(mb float64) string {
	if math.IsNaN(mb) || math.IsInf(mb, 0) || mb < 0 {
		return "unknown"
	}
	return formatBytes(int64(mb * 1024 * 1024))
}

// formatBytes formats byte count as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 4; n /= unit {
		div *= unit
		exp++
	}
	units := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}
