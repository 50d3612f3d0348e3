// Package planner sizes concurrency and chunking for a chosen tool and
// estimates the cost and duration of the resulting transfer.
package planner

import (
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/larrydiffey/xferplan/pkg/catalog"
	"github.com/larrydiffey/xferplan/pkg/core"
)

// Planner derives tuning parameters from workload shape and host resources
type Planner struct {
	catalog *catalog.Catalog
}

// ConcurrencyPlan holds the tuning parameters for one transfer
type ConcurrencyPlan struct {
	WorkerCount          int
	MultipartThresholdMB int
	ChunkSizeMB          int
	EnableCompression    bool
	UseAcceleration      bool
	CPUCount             int
	AvailableMemoryMB    uint64
	Notes                []string
}

// Estimate is the cost and time forecast of a transfer
type Estimate struct {
	StorageCostPerGBMonth   float64
	AccelerationSurcharge   float64
	CostPerGBMonth          float64
	DurationHours           float64
	EffectiveThroughputGbps float64
}

// New creates a planner backed by the given reference tables
func New(cat *catalog.Catalog) *Planner {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Planner{catalog: cat}
}

// PlanConcurrency sizes workers, multipart threshold and chunk size, and
// decides compression and acceleration. Resources are read once per call.
func (p *Planner) PlanConcurrency(tool core.TransferTool, resources core.ResourceOracle, profile core.WorkloadProfile, req *core.TransferRequest) ConcurrencyPlan {
	h := p.catalog.Heuristics

	cpus := resources.CPUCount()
	if cpus < 1 {
		cpus = 1
	}
	memMB := resources.AvailableMemoryMB()

	plan := ConcurrencyPlan{
		CPUCount:          cpus,
		AvailableMemoryMB: memMB,
	}

	if profile.AverageItemSizeMB > h.LargeItemMB {
		plan.MultipartThresholdMB = h.LargeMultipartThresholdMB
		plan.ChunkSizeMB = int(clamp(math.Floor(profile.AverageItemSizeMB/h.ChunkDivisor), float64(h.MinChunkMB), float64(h.MaxChunkMB)))
	} else {
		plan.MultipartThresholdMB = h.SmallMultipartThresholdMB
		plan.ChunkSizeMB = h.MinChunkMB
	}

	plan.WorkerCount = p.workerCount(tool, cpus)

	// Each worker may buffer one chunk in memory
	if memMB > 0 && h.MemoryBudgetFraction > 0 {
		budget := int(math.Floor(float64(memMB) * h.MemoryBudgetFraction / float64(plan.ChunkSizeMB)))
		if budget < 1 {
			budget = 1
		}
		if budget < plan.WorkerCount {
			plan.Notes = append(plan.Notes, fmt.Sprintf(
				"Workers reduced from %d to %d to keep %d MB chunks within %.0f%% of %d MB free memory",
				plan.WorkerCount, budget, plan.ChunkSizeMB, h.MemoryBudgetFraction*100, memMB,
			))
			plan.WorkerCount = budget
		}
	}

	plan.EnableCompression = profile.AverageItemSizeMB > h.CompressMinItemMB && !p.IsCompressed(req.Source)
	if plan.EnableCompression {
		plan.Notes = append(plan.Notes, compressionNote(tool, req))
	}

	plan.UseAcceleration = profile.IsLarge && req.TotalSizeGB > h.AccelerationMinGB
	if plan.UseAcceleration {
		plan.Notes = append(plan.Notes, fmt.Sprintf(
			"Transfer acceleration enabled: %.0f GB exceeds %.0f GB (+$%.3f/GB)",
			req.TotalSizeGB, h.AccelerationMinGB, h.AccelerationSurchargePerGB,
		))
	}

	return plan
}

// compressionNote says what the compression flag does to the destination for a tool
func compressionNote(tool core.TransferTool, req *core.TransferRequest) string {
	const reason = "Compression enabled: items are large and not already compressed"
	switch {
	case tool != core.ToolRclone:
		return reason + fmt.Sprintf("; %s has no transport compression, objects are stored as-is", tool)
	case core.DetectProtocol(req.Destination) == core.ProtocolLocal:
		return reason + "; destination is local, files are stored as-is"
	default:
		return reason + "; rclone writes through a gzip compress remote, so destination objects get a .gz suffix and are readable only through rclone's compress backend"
	}
}

// workerCount is min(cpus * multiplier, ceiling) for the tool
func (p *Planner) workerCount(tool core.TransferTool, cpus int) int {
	limits, ok := p.catalog.Concurrency[tool]
	if !ok {
		limits = p.catalog.Concurrency[core.ToolAWSCLI]
	}
	workers := cpus * limits.CPUMultiplier
	if workers > limits.Ceiling || workers < 0 {
		workers = limits.Ceiling
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// IsCompressed reports whether a locator names an already compressed or binary format
func (p *Planner) IsCompressed(locator string) bool {
	base := strings.ToLower(path.Base(strings.TrimRight(locator, "/")))
	for _, ext := range p.catalog.Compressed {
		if strings.HasSuffix(base, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// Estimate computes cost per GB-month and duration for a tool profile and storage class
func (p *Planner) Estimate(profile core.ToolProfile, class core.StorageClass, accelerate bool, sizeGB float64) Estimate {
	h := p.catalog.Heuristics

	est := Estimate{
		StorageCostPerGBMonth: p.catalog.StorageCost(class),
	}
	if accelerate {
		est.AccelerationSurcharge = h.AccelerationSurchargePerGB
	}
	est.CostPerGBMonth = est.StorageCostPerGBMonth + est.AccelerationSurcharge

	est.EffectiveThroughputGbps = profile.MaxThroughputGbps * profile.ParallelEfficiency
	est.DurationHours = profile.OverheadSeconds / 3600
	if sizeGB > 0 && est.EffectiveThroughputGbps > 0 {
		est.DurationHours += sizeGB / (est.EffectiveThroughputGbps * h.GBPerHourPerGbps)
	}

	return est
}

// clamp bounds v to [lo, hi]; NaN maps to lo
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
