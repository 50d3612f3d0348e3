package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/larrydiffey/xferplan/pkg/core"
)

const namespace = "xferplan"

// Outcome labels for executions
const (
	OutcomeSuccess = "success"
	OutcomeDryRun  = "dry_run"
)

// Collector records planning and execution metrics on a private Prometheus registry.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	plans             *prometheus.CounterVec
	planningErrors    *prometheus.CounterVec
	estimatedHours    *prometheus.HistogramVec
	workers           *prometheus.HistogramVec
	executions        *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
}

// New creates a collector with all metrics registered
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Transfer strategies built, by tool and storage class.",
		}, []string{"tool", "storage_class"}),
		planningErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "planning_errors_total",
			Help:      "Planning calls that returned no strategy, by error kind.",
		}, []string{"kind"}),
		estimatedHours: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "estimated_duration_hours",
			Help:      "Estimated transfer duration of built strategies.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 4, 8, 24, 72, 168},
		}, []string{"tool"}),
		workers: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "planned_workers",
			Help:      "Worker count of built strategies.",
			Buckets:   []float64{1, 2, 4, 8, 10, 16, 20, 32, 50},
		}, []string{"tool"}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "Strategy executions, by tool and outcome.",
		}, []string{"tool", "outcome"}),
		executionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_duration_seconds",
			Help:      "Wall-clock time of tool processes.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
		}, []string{"tool"}),
	}

	c.registry.MustRegister(
		c.plans,
		c.planningErrors,
		c.estimatedHours,
		c.workers,
		c.executions,
		c.executionDuration,
	)
	return c
}

// Registry exposes the underlying registry for scraping or export
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordPlan records a built strategy
func (c *Collector) RecordPlan(s *core.TransferStrategy) {
	if c == nil || s == nil {
		return
	}
	tool := string(s.Tool)
	c.plans.WithLabelValues(tool, string(s.StorageClass)).Inc()
	c.estimatedHours.WithLabelValues(tool).Observe(s.EstimatedDurationHours)
	c.workers.WithLabelValues(tool).Observe(float64(s.WorkerCount))
}

// RecordPlanningError records a planning call that failed
func (c *Collector) RecordPlanningError(err error) {
	if c == nil || err == nil {
		return
	}
	kind := string(core.KindOf(err))
	if kind == "" {
		kind = "unknown"
	}
	c.planningErrors.WithLabelValues(kind).Inc()
}

// RecordExecution records the outcome of one execution attempt
func (c *Collector) RecordExecution(r *core.ExecutionResult) {
	if c == nil || r == nil {
		return
	}
	tool := string(r.Tool)
	c.executions.WithLabelValues(tool, Outcome(r)).Inc()
	if !r.DryRun {
		c.executionDuration.WithLabelValues(tool).Observe(r.Duration.Seconds())
	}
}

// WriteTextfile writes all metrics in text exposition format, for node_exporter's textfile collector
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Outcome returns the outcome label of an execution result
func Outcome(r *core.ExecutionResult) string {
	switch {
	case r.DryRun:
		return OutcomeDryRun
	case r.Success:
		return OutcomeSuccess
	case r.Failure != core.FailureNone:
		return string(r.Failure)
	default:
		return string(core.FailureExitStatus)
	}
}
