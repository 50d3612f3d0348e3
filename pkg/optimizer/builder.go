package optimizer

import (
	"time"

	"github.com/larrydiffey/xferplan/pkg/analyzer"
	"github.com/larrydiffey/xferplan/pkg/core"
	"github.com/larrydiffey/xferplan/pkg/planner"
)

// Parts are the stage outputs a strategy is assembled from
type Parts struct {
	Analysis    *analyzer.Analysis
	Concurrency planner.ConcurrencyPlan
	Estimate    planner.Estimate
	CreatedAt   time.Time
}

// Build assembles a strategy. Notes keep stage order: tool selection, storage
// tier, then concurrency notes (acceleration last). The result shares no
// memory with parts.
func Build(p Parts) *core.TransferStrategy {
	a := p.Analysis
	c := p.Concurrency

	notes := make([]string, 0, len(a.ToolNotes)+1+len(c.Notes))
	notes = append(notes, a.ToolNotes...)
	if a.StorageReason != "" {
		notes = append(notes, a.StorageReason)
	}
	notes = append(notes, c.Notes...)

	return &core.TransferStrategy{
		Tool:                    a.Tool,
		StorageClass:            a.StorageClass,
		WorkerCount:             c.WorkerCount,
		MultipartThresholdMB:    c.MultipartThresholdMB,
		ChunkSizeMB:             c.ChunkSizeMB,
		EnableCompression:       c.EnableCompression,
		UseAcceleration:         c.UseAcceleration,
		EstimatedCostPerGBMonth: p.Estimate.CostPerGBMonth,
		EstimatedDurationHours:  p.Estimate.DurationHours,
		Notes:                   notes,
		Workload:                a.Profile,
		CreatedAt:               p.CreatedAt,
	}
}
