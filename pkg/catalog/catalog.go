// Package catalog holds the static reference data the planner reads: tool
// performance profiles, storage tier prices, per-domain access hints and the
// heuristic constants of the cost and throughput model.
//
// A Catalog is built once at start-up and never mutated afterwards; it is
// shared by pointer between planning calls.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/larrydiffey/xferplan/pkg/core"
)

// MBPerGB converts request sizes (GB) into per-item sizes (MB)
const MBPerGB = 1024.0

// GBPerHourPerGbps converts a link speed in Gbit/s into GB moved per hour
const GBPerHourPerGbps = 450.0

// DomainProfile describes how data of a research domain is typically accessed
type DomainProfile struct {
	InitialAccessIntensive   bool `json:"initial_access_intensive" yaml:"initial_access_intensive"`
	ArchiveSimulationOutputs bool `json:"archive_simulation_outputs" yaml:"archive_simulation_outputs"`
}

// ConcurrencyLimits bounds the worker count for one tool
type ConcurrencyLimits struct {
	CPUMultiplier int `json:"cpu_multiplier" yaml:"cpu_multiplier"`
	Ceiling       int `json:"ceiling" yaml:"ceiling"`
}

// Heuristics are the tunable constants of the planner
type Heuristics struct {
	BulkItemCount              int64   `json:"bulk_item_count" yaml:"bulk_item_count"`
	LargeDatasetGB             float64 `json:"large_dataset_gb" yaml:"large_dataset_gb"`
	AccelerationMinGB          float64 `json:"acceleration_min_gb" yaml:"acceleration_min_gb"`
	AccelerationSurchargePerGB float64 `json:"acceleration_surcharge_per_gb" yaml:"acceleration_surcharge_per_gb"`
	InfrequentIAMinGB          float64 `json:"infrequent_ia_min_gb" yaml:"infrequent_ia_min_gb"`
	ArchiveGlacierMinGB        float64 `json:"archive_glacier_min_gb" yaml:"archive_glacier_min_gb"`
	SimulationArchiveMinGB     float64 `json:"simulation_archive_min_gb" yaml:"simulation_archive_min_gb"`
	LargeItemMB                float64 `json:"large_item_mb" yaml:"large_item_mb"`
	CompressMinItemMB          float64 `json:"compress_min_item_mb" yaml:"compress_min_item_mb"`
	LargeMultipartThresholdMB  int     `json:"large_multipart_threshold_mb" yaml:"large_multipart_threshold_mb"`
	SmallMultipartThresholdMB  int     `json:"small_multipart_threshold_mb" yaml:"small_multipart_threshold_mb"`
	MinChunkMB                 int     `json:"min_chunk_mb" yaml:"min_chunk_mb"`
	MaxChunkMB                 int     `json:"max_chunk_mb" yaml:"max_chunk_mb"`
	ChunkDivisor               float64 `json:"chunk_divisor" yaml:"chunk_divisor"`
	MemoryBudgetFraction       float64 `json:"memory_budget_fraction" yaml:"memory_budget_fraction"`
	GBPerHourPerGbps           float64 `json:"gb_per_hour_per_gbps" yaml:"gb_per_hour_per_gbps"`
}

// Catalog is the immutable set of reference tables
type Catalog struct {
	Tools        map[core.TransferTool]core.ToolProfile  `json:"tools" yaml:"tools"`
	Concurrency  map[core.TransferTool]ConcurrencyLimits `json:"concurrency" yaml:"concurrency"`
	StorageCosts map[core.StorageClass]float64           `json:"storage_costs" yaml:"storage_costs"`
	Domains      map[string]DomainProfile                `json:"domains" yaml:"domains"`
	Compressed   []string                                `json:"compressed_extensions" yaml:"compressed_extensions"`
	Heuristics   Heuristics                              `json:"heuristics" yaml:"heuristics"`
}

// Default returns the built-in reference tables
func Default() *Catalog {
	return &Catalog{
		Tools: map[core.TransferTool]core.ToolProfile{
			core.ToolS5cmd: {
				MaxThroughputGbps:  10.0,
				ParallelEfficiency: 0.95,
				OverheadSeconds:    2,
				BestFor:            []string{"bulk", "many_small_files", "s3_to_s3"},
			},
			core.ToolRclone: {
				MaxThroughputGbps:  5.0,
				ParallelEfficiency: 0.85,
				OverheadSeconds:    5,
				BestFor:            []string{"multi_cloud", "sync", "filtering"},
			},
			core.ToolAWSCLIOptimized: {
				MaxThroughputGbps:  4.0,
				ParallelEfficiency: 0.80,
				OverheadSeconds:    3,
				BestFor:            []string{"large_files", "multipart"},
			},
			core.ToolAWSCLI: {
				MaxThroughputGbps:  2.0,
				ParallelEfficiency: 0.70,
				OverheadSeconds:    3,
				BestFor:            []string{"simple", "small_datasets"},
			},
		},
		Concurrency: map[core.TransferTool]ConcurrencyLimits{
			core.ToolS5cmd:           {CPUMultiplier: 4, Ceiling: 50},
			core.ToolRclone:          {CPUMultiplier: 2, Ceiling: 20},
			core.ToolAWSCLIOptimized: {CPUMultiplier: 1, Ceiling: 10},
			core.ToolAWSCLI:          {CPUMultiplier: 1, Ceiling: 10},
		},
		// USD per GB-month, us-east-1 list prices
		StorageCosts: map[core.StorageClass]float64{
			core.StorageStandard:           0.023,
			core.StorageIntelligentTiering: 0.023,
			core.StorageStandardIA:         0.0125,
			core.StorageOneZoneIA:          0.01,
			core.StorageGlacier:            0.0036,
			core.StorageDeepArchive:        0.00099,
		},
		Domains: map[string]DomainProfile{
			"genomics":         {InitialAccessIntensive: true},
			"astronomy":        {InitialAccessIntensive: true},
			"machine_learning": {InitialAccessIntensive: true},
			"climate":          {ArchiveSimulationOutputs: true},
			"physics":          {ArchiveSimulationOutputs: true},
			"materials":        {ArchiveSimulationOutputs: true},
		},
		Compressed: []string{
			".gz", ".tgz", ".bz2", ".xz", ".zst", ".zip", ".7z", ".rar", ".lz4",
			".jpg", ".jpeg", ".png", ".mp4", ".mkv",
			".bam", ".cram", ".bcf", ".bgz", ".2bit", ".sra",
			".parquet", ".orc",
		},
		Heuristics: Heuristics{
			BulkItemCount:              1000,
			LargeDatasetGB:             100,
			AccelerationMinGB:          1000,
			AccelerationSurchargePerGB: 0.04,
			InfrequentIAMinGB:          10,
			ArchiveGlacierMinGB:        100,
			SimulationArchiveMinGB:     500,
			LargeItemMB:                100,
			CompressMinItemMB:          10,
			LargeMultipartThresholdMB:  64,
			SmallMultipartThresholdMB:  8,
			MinChunkMB:                 8,
			MaxChunkMB:                 64,
			ChunkDivisor:               10,
			MemoryBudgetFraction:       0.5,
			GBPerHourPerGbps:           GBPerHourPerGbps,
		},
	}
}

// LoadFile overlays a YAML or JSON file onto the defaults. Maps are merged key by
// key; heuristics present in the file replace the default, zero included.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse overlays raw YAML (JSON is valid YAML) onto the defaults
func Parse(data []byte) (*Catalog, error) {
	var overlay Catalog
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := Default()
	for tool, profile := range overlay.Tools {
		c.Tools[tool] = profile
	}
	for tool, limits := range overlay.Concurrency {
		c.Concurrency[tool] = limits
	}
	for class, cost := range overlay.StorageCosts {
		c.StorageCosts[class] = cost
	}
	for domain, profile := range overlay.Domains {
		c.Domains[strings.ToLower(domain)] = profile
	}
	if len(overlay.Compressed) > 0 {
		c.Compressed = overlay.Compressed
	}

	// Heuristics decode onto the defaults: keys present in the overlay win, zero included
	heuristics := struct {
		Heuristics *Heuristics `yaml:"heuristics"`
	}{&c.Heuristics}
	if err := yaml.Unmarshal(data, &heuristics); err != nil {
		return nil, fmt.Errorf("parse catalog heuristics: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that every tool and storage class has usable entries
func (c *Catalog) Validate() error {
	for _, tool := range core.AllTools() {
		p, ok := c.Tools[tool]
		if !ok {
			return fmt.Errorf("catalog: missing profile for %s", tool)
		}
		if p.MaxThroughputGbps <= 0 {
			return fmt.Errorf("catalog: %s max_throughput_gbps must be positive", tool)
		}
		if p.ParallelEfficiency <= 0 || p.ParallelEfficiency > 1 {
			return fmt.Errorf("catalog: %s parallel_efficiency must be in (0, 1]", tool)
		}
		if p.OverheadSeconds < 0 {
			return fmt.Errorf("catalog: %s overhead_seconds must not be negative", tool)
		}
		l, ok := c.Concurrency[tool]
		if !ok || l.CPUMultiplier < 1 || l.Ceiling < 1 {
			return fmt.Errorf("catalog: %s needs cpu_multiplier and ceiling >= 1", tool)
		}
	}
	for _, class := range core.AllStorageClasses() {
		cost, ok := c.StorageCosts[class]
		if !ok {
			return fmt.Errorf("catalog: missing storage cost for %s", class)
		}
		if cost < 0 {
			return fmt.Errorf("catalog: storage cost for %s is negative", class)
		}
	}
	h := c.Heuristics
	if h.MinChunkMB < 1 || h.MaxChunkMB < h.MinChunkMB || h.SmallMultipartThresholdMB < 1 || h.LargeMultipartThresholdMB < 1 {
		return fmt.Errorf("catalog: chunk and multipart sizes must be positive with min <= max")
	}
	if h.GBPerHourPerGbps <= 0 || h.ChunkDivisor <= 0 {
		return fmt.Errorf("catalog: gb_per_hour_per_gbps and chunk_divisor must be positive")
	}
	if h.AccelerationSurchargePerGB < 0 {
		return fmt.Errorf("catalog: acceleration surcharge must not be negative")
	}
	return nil
}

// Profile returns the performance profile of a tool
func (c *Catalog) Profile(tool core.TransferTool) (core.ToolProfile, bool) {
	p, ok := c.Tools[tool]
	return p, ok
}

// StorageCost returns the monthly per-GB price of a storage class
func (c *Catalog) StorageCost(class core.StorageClass) float64 {
	return c.StorageCosts[class]
}

// Domain looks up a domain hint, case-insensitively
func (c *Catalog) Domain(name string) (DomainProfile, bool) {
	if name == "" {
		return DomainProfile{}, false
	}
	p, ok := c.Domains[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}
