// Package optimizer composes the analysis and planning stages into an
// immutable transfer strategy.
package optimizer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/larrydiffey/xferplan/pkg/analyzer"
	"github.com/larrydiffey/xferplan/pkg/catalog"
	"github.com/larrydiffey/xferplan/pkg/core"
	"github.com/larrydiffey/xferplan/pkg/metrics"
	"github.com/larrydiffey/xferplan/pkg/planner"
)

// Optimizer coordinates the planning pipeline. The tool probe is queried once,
// at construction; after that the optimizer holds no mutable state and may be
// shared between goroutines.
type Optimizer struct {
	available core.ToolSet
	resources core.ResourceOracle
	catalog   *catalog.Catalog
	analyzer  *analyzer.WorkloadAnalyzer
	planner   *planner.Planner
	logger    *slog.Logger
	metrics   *metrics.Collector
	now       func() time.Time
}

// New creates an optimizer using the default catalog
func New(probe core.ToolProbe, resources core.ResourceOracle) *Optimizer {
	cat := catalog.Default()
	return &Optimizer{
		available: probe.Available(),
		resources: resources,
		catalog:   cat,
		analyzer:  analyzer.New(cat),
		planner:   planner.New(cat),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}
}

// WithCatalog replaces the reference tables
func (o *Optimizer) WithCatalog(cat *catalog.Catalog) *Optimizer {
	if cat == nil {
		return o
	}
	o.catalog = cat
	o.analyzer = analyzer.New(cat)
	o.planner = planner.New(cat)
	return o
}

// WithLogger sets the logger
func (o *Optimizer) WithLogger(logger *slog.Logger) *Optimizer {
	if logger != nil {
		o.logger = logger
	}
	return o
}

// WithMetrics sets the metrics collector
func (o *Optimizer) WithMetrics(m *metrics.Collector) *Optimizer {
	o.metrics = m
	return o
}

// WithClock overrides the strategy timestamp source
func (o *Optimizer) WithClock(now func() time.Time) *Optimizer {
	if now != nil {
		o.now = now
	}
	return o
}

// Available returns a copy of the tool set probed at construction
func (o *Optimizer) Available() core.ToolSet {
	return core.NewToolSet(o.available.List()...)
}

// Catalog returns the reference tables in use
func (o *Optimizer) Catalog() *catalog.Catalog {
	return o.catalog
}

// Plan builds a strategy for a request. Invalid requests are rejected with a
// PlanningError before any stage runs; a missing AWS CLI is a ConfigurationError.
func (o *Optimizer) Plan(ctx context.Context, req *core.TransferRequest) (*core.TransferStrategy, error) {
	if err := req.Validate(); err != nil {
		o.fail(err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	analysis, err := o.analyzer.Analyze(req, o.available)
	if err != nil {
		o.fail(err)
		return nil, err
	}

	concurrency := o.planner.PlanConcurrency(analysis.Tool, o.resources, analysis.Profile, req)

	profile, ok := o.catalog.Profile(analysis.Tool)
	if !ok {
		err := &core.ConfigurationError{Tool: analysis.Tool, Reason: "no performance profile in catalog"}
		o.fail(err)
		return nil, err
	}
	estimate := o.planner.Estimate(profile, analysis.StorageClass, concurrency.UseAcceleration, req.TotalSizeGB)

	strategy := Build(Parts{
		Analysis:    analysis,
		Concurrency: concurrency,
		Estimate:    estimate,
		CreatedAt:   o.now(),
	})

	o.logger.Info("strategy planned",
		"tool", strategy.Tool,
		"storage_class", strategy.StorageClass,
		"workers", strategy.WorkerCount,
		"chunk_mb", strategy.ChunkSizeMB,
		"acceleration", strategy.UseAcceleration,
		"estimated_hours", strategy.EstimatedDurationHours,
	)
	o.metrics.RecordPlan(strategy)

	return strategy, nil
}

func (o *Optimizer) fail(err error) {
	o.logger.Warn("planning failed", "kind", core.KindOf(err), "error", err)
	o.metrics.RecordPlanningError(err)
}
