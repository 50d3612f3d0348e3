package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larrydiffey/xferplan/pkg/core"
)

func TestRecordPlan(t *testing.T) {
	c := New()
	s := &core.TransferStrategy{
		Tool:                   core.ToolS5cmd,
		StorageClass:           core.StorageIntelligentTiering,
		WorkerCount:            50,
		EstimatedDurationHours: 0.6,
	}

	c.RecordPlan(s)
	c.RecordPlan(s)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.plans.WithLabelValues("s5cmd", "INTELLIGENT_TIERING")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.workers))
}

func TestRecordPlanningError(t *testing.T) {
	c := New()

	c.RecordPlanningError(&core.PlanningError{Field: "item_count", Reason: "is negative"})
	c.RecordPlanningError(&core.ConfigurationError{Tool: core.ToolAWSCLI})
	c.RecordPlanningError(errors.New("boom"))
	c.RecordPlanningError(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.planningErrors.WithLabelValues("planning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.planningErrors.WithLabelValues("configuration")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.planningErrors.WithLabelValues("unknown")))
}

func TestRecordExecution(t *testing.T) {
	c := New()

	c.RecordExecution(&core.ExecutionResult{Tool: core.ToolRclone, DryRun: true, Success: true})
	c.RecordExecution(&core.ExecutionResult{Tool: core.ToolRclone, Success: true, Duration: time.Second})
	c.RecordExecution(&core.ExecutionResult{Tool: core.ToolRclone, Failure: core.FailureTimeout, Duration: time.Minute})
	c.RecordExecution(&core.ExecutionResult{Tool: core.ToolS5cmd, Failure: core.FailureStartError})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.executions.WithLabelValues("rclone", OutcomeDryRun)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.executions.WithLabelValues("rclone", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.executions.WithLabelValues("rclone", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.executions.WithLabelValues("s5cmd", "start_error")))
}

func TestNilCollector(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordPlan(&core.TransferStrategy{})
		c.RecordPlanningError(errors.New("x"))
		c.RecordExecution(&core.ExecutionResult{})
	})
	assert.Nil(t, c.Registry())
	assert.NoError(t, c.WriteTextfile("/nonexistent/metrics.prom"))
}

func TestWriteTextfile(t *testing.T) {
	c := New()
	c.RecordPlan(&core.TransferStrategy{Tool: core.ToolAWSCLI, StorageClass: core.StorageStandard, WorkerCount: 4})

	path := filepath.Join(t.TempDir(), "xferplan.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `xferplan_plans_total{storage_class="STANDARD",tool="aws_cli"} 1`)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "exit_failure", Outcome(&core.ExecutionResult{}))
	assert.Equal(t, "exit_failure", Outcome(&core.ExecutionResult{Failure: core.FailureExitStatus}))
}
