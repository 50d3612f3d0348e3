package planner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larrydiffey/xferplan/pkg/catalog"
	"github.com/larrydiffey/xferplan/pkg/core"
	"github.com/larrydiffey/xferplan/pkg/probe"
)

func request(sizeGB float64, items int64) *core.TransferRequest {
	return &core.TransferRequest{
		Source:      "/data/run",
		Destination: "s3://bucket/run",
		TotalSizeGB: sizeGB,
		ItemCount:   items,
	}
}

func TestPlanConcurrency_WorkerCount(t *testing.T) {
	p := New(nil)

	tests := []struct {
		tool     core.TransferTool
		cpus     int
		expected int
	}{
		{core.ToolS5cmd, 1, 4},
		{core.ToolS5cmd, 8, 32},
		{core.ToolS5cmd, 13, 50},
		{core.ToolS5cmd, 64, 50},
		{core.ToolRclone, 4, 8},
		{core.ToolRclone, 16, 20},
		{core.ToolAWSCLI, 4, 4},
		{core.ToolAWSCLI, 32, 10},
		{core.ToolAWSCLIOptimized, 32, 10},
		{core.ToolAWSCLI, 0, 1},
		{core.ToolAWSCLI, -2, 1},
	}

	for _, tt := range tests {
		res := probe.StaticResources{CPUs: tt.cpus}
		plan := p.PlanConcurrency(tt.tool, res, core.WorkloadProfile{}, request(1, 1))
		assert.Equal(t, tt.expected, plan.WorkerCount, "%s with %d cpus", tt.tool, tt.cpus)
	}
}

func TestPlanConcurrency_MonotonicInCPU(t *testing.T) {
	p := New(nil)
	cat := catalog.Default()

	for _, tool := range core.AllTools() {
		prev := 0
		for cpus := 1; cpus <= 128; cpus++ {
			res := probe.StaticResources{CPUs: cpus, MemoryMB: 4096}
			plan := p.PlanConcurrency(tool, res, core.WorkloadProfile{AverageItemSizeMB: 500}, request(50, 100))
			require.GreaterOrEqual(t, plan.WorkerCount, 1)
			require.LessOrEqual(t, plan.WorkerCount, cat.Concurrency[tool].Ceiling)
			require.GreaterOrEqual(t, plan.WorkerCount, prev, "%s at %d cpus", tool, cpus)
			prev = plan.WorkerCount
		}
	}
}

func TestPlanConcurrency_MemoryCap(t *testing.T) {
	p := New(nil)

	// 640 MB free, half is 320 MB, 64 MB chunks leaves room for 5 workers
	res := probe.StaticResources{CPUs: 32, MemoryMB: 640}
	plan := p.PlanConcurrency(core.ToolS5cmd, res, core.WorkloadProfile{AverageItemSizeMB: 2048}, request(200, 100))

	assert.Equal(t, 64, plan.ChunkSizeMB)
	assert.Equal(t, 5, plan.WorkerCount)
	require.NotEmpty(t, plan.Notes)
	assert.Contains(t, plan.Notes[0], "Workers reduced from 50 to 5")

	// Never below one worker
	tiny := probe.StaticResources{CPUs: 32, MemoryMB: 10}
	plan = p.PlanConcurrency(core.ToolS5cmd, tiny, core.WorkloadProfile{AverageItemSizeMB: 2048}, request(200, 100))
	assert.Equal(t, 1, plan.WorkerCount)

	// Unknown memory leaves the CPU-derived count alone
	unknown := probe.StaticResources{CPUs: 32}
	plan = p.PlanConcurrency(core.ToolS5cmd, unknown, core.WorkloadProfile{AverageItemSizeMB: 2048}, request(200, 100))
	assert.Equal(t, 50, plan.WorkerCount)
}

func TestPlanConcurrency_Chunking(t *testing.T) {
	p := New(nil)
	res := probe.StaticResources{CPUs: 4}

	tests := []struct {
		name      string
		avgMB     float64
		threshold int
		chunk     int
	}{
		{"tiny", 0, 8, 8},
		{"boundary", 100, 8, 8},
		{"just large", 100.5, 64, 10},
		{"small chunk", 101, 64, 10},
		{"middle", 350, 64, 35},
		{"upper clamp", 5000, 64, 64},
		{"beyond int64", 1.024e21, 64, 64},
		{"infinite", math.Inf(1), 64, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := p.PlanConcurrency(core.ToolAWSCLI, res, core.WorkloadProfile{AverageItemSizeMB: tt.avgMB}, request(1, 1))
			assert.Equal(t, tt.threshold, plan.MultipartThresholdMB)
			assert.Equal(t, tt.chunk, plan.ChunkSizeMB)
			assert.Positive(t, plan.ChunkSizeMB)
			assert.Positive(t, plan.MultipartThresholdMB)
		})
	}

	// Clamp floor applies when the divided size falls under the minimum
	cat, err := catalog.Parse([]byte("heuristics:\n  chunk_divisor: 100\n"))
	require.NoError(t, err)
	plan := New(cat).PlanConcurrency(core.ToolAWSCLI, res, core.WorkloadProfile{AverageItemSizeMB: 150}, request(1, 1))
	assert.Equal(t, 8, plan.ChunkSizeMB)
}

func TestPlanConcurrency_Compression(t *testing.T) {
	p := New(nil)
	res := probe.StaticResources{CPUs: 4}

	tests := []struct {
		source   string
		avgMB    float64
		expected bool
	}{
		{"/data/run", 50, true},
		{"/data/run", 10, false},
		{"/data/reads.bam", 50, false},
		{"/data/archive.tar.gz", 50, false},
		{"/data/IMAGES.JPG", 50, false},
		{"s3://bucket/table.parquet", 50, false},
		{"s3://bucket/prefix/", 50, true},
	}

	for _, tt := range tests {
		req := request(1, 1)
		req.Source = tt.source
		plan := p.PlanConcurrency(core.ToolRclone, res, core.WorkloadProfile{AverageItemSizeMB: tt.avgMB}, req)
		assert.Equal(t, tt.expected, plan.EnableCompression, "%s at %v MB", tt.source, tt.avgMB)
	}
}

func TestPlanConcurrency_CompressionNote(t *testing.T) {
	p := New(nil)
	res := probe.StaticResources{CPUs: 4}
	shape := core.WorkloadProfile{AverageItemSizeMB: 50}

	tests := []struct {
		tool        core.TransferTool
		destination string
		expected    string
	}{
		{core.ToolRclone, "gs://bucket/run", "readable only through rclone's compress backend"},
		{core.ToolRclone, "/scratch/run", "destination is local"},
		{core.ToolS5cmd, "s3://bucket/run", "s5cmd has no transport compression"},
		{core.ToolAWSCLIOptimized, "s3://bucket/run", "aws_cli_optimized has no transport compression"},
	}

	for _, tt := range tests {
		req := request(1, 1)
		req.Destination = tt.destination
		plan := p.PlanConcurrency(tt.tool, res, shape, req)
		require.True(t, plan.EnableCompression)
		require.NotEmpty(t, plan.Notes)
		assert.Contains(t, plan.Notes[len(plan.Notes)-1], tt.expected, "%s to %s", tt.tool, tt.destination)
	}
}

func TestPlanConcurrency_Acceleration(t *testing.T) {
	p := New(nil)
	res := probe.StaticResources{CPUs: 4}

	plan := p.PlanConcurrency(core.ToolS5cmd, res, core.WorkloadProfile{IsLarge: true}, request(1000, 1))
	assert.False(t, plan.UseAcceleration)

	plan = p.PlanConcurrency(core.ToolS5cmd, res, core.WorkloadProfile{IsLarge: true}, request(1000.5, 20000))
	assert.True(t, plan.UseAcceleration)
	require.NotEmpty(t, plan.Notes)
	assert.Contains(t, plan.Notes[len(plan.Notes)-1], "Transfer acceleration enabled")

	plan = p.PlanConcurrency(core.ToolS5cmd, res, core.WorkloadProfile{IsLarge: false}, request(5000, 1))
	assert.False(t, plan.UseAcceleration)
}

func TestEstimate(t *testing.T) {
	p := New(nil)
	cat := catalog.Default()
	s5, _ := cat.Profile(core.ToolS5cmd)

	est := p.Estimate(s5, core.StorageIntelligentTiering, true, 2500)
	assert.Equal(t, cat.StorageCost(core.StorageIntelligentTiering)+cat.Heuristics.AccelerationSurchargePerGB, est.CostPerGBMonth)
	assert.Equal(t, 0.023, est.StorageCostPerGBMonth)
	assert.Equal(t, 0.04, est.AccelerationSurcharge)
	assert.InDelta(t, 2500/(10*0.95*450)+2.0/3600, est.DurationHours, 1e-12)

	est = p.Estimate(s5, core.StorageGlacier, false, 0)
	assert.Equal(t, 0.0036, est.CostPerGBMonth)
	assert.InDelta(t, 2.0/3600, est.DurationHours, 1e-12)
}

func TestEstimate_PositiveDurationForPositiveSize(t *testing.T) {
	p := New(nil)
	cat := catalog.Default()

	for _, tool := range core.AllTools() {
		profile, _ := cat.Profile(tool)
		profile.OverheadSeconds = 0
		for _, size := range []float64{1e-9, 0.5, 1, 1000, 1e6} {
			est := p.Estimate(profile, core.StorageStandard, false, size)
			assert.Positive(t, est.DurationHours, "%s at %v GB", tool, size)
		}
	}
}

func TestEstimate_CostNonNegative(t *testing.T) {
	p := New(nil)
	profile, _ := catalog.Default().Profile(core.ToolAWSCLI)

	for _, class := range core.AllStorageClasses() {
		for _, accel := range []bool{false, true} {
			est := p.Estimate(profile, class, accel, 10)
			assert.GreaterOrEqual(t, est.CostPerGBMonth, 0.0)
		}
	}
}

func TestIsCompressed(t *testing.T) {
	p := New(nil)

	assert.True(t, p.IsCompressed("/x/sample.CRAM"))
	assert.True(t, p.IsCompressed("gs://b/backup.zst/"))
	assert.False(t, p.IsCompressed("/x/notes.txt"))
	assert.False(t, p.IsCompressed(""))
}
