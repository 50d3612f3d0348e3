package rclone

import (
	"strings"
	"testing"

	"gopkg.in/ini.v1"

	"github.com/larrydiffey/xferplan/pkg/core"
)

func strategy() *core.TransferStrategy {
	return &core.TransferStrategy{
		Tool:                 core.ToolRclone,
		StorageClass:         core.StorageGlacier,
		WorkerCount:          20,
		MultipartThresholdMB: 64,
		ChunkSizeMB:          32,
	}
}

func loadConfig(t *testing.T, inv *core.Invocation) *ini.File {
	t.Helper()
	if len(inv.Files) != 1 {
		t.Fatalf("Expected one config file, got %d", len(inv.Files))
	}
	if inv.Files[0].EnvVar != ConfigEnvVar {
		t.Errorf("Expected env var %s, got %s", ConfigEnvVar, inv.Files[0].EnvVar)
	}
	cfg, err := ini.Load(inv.Files[0].Content)
	if err != nil {
		t.Fatalf("Generated config does not parse: %v", err)
	}
	return cfg
}

func TestNew(t *testing.T) {
	e := New()
	if e.Name() != "rclone" {
		t.Errorf("Expected name 'rclone', got '%s'", e.Name())
	}
	if e.Tool() != core.ToolRclone {
		t.Errorf("Expected tool rclone, got %s", e.Tool())
	}
}

func TestSupportsProtocol(t *testing.T) {
	e := New()

	for _, p := range []core.Protocol{core.ProtocolS3, core.ProtocolGCS, core.ProtocolAzure, core.ProtocolLocal} {
		if !e.SupportsProtocol(p) {
			t.Errorf("Expected %s to be supported", p)
		}
	}
	if e.SupportsProtocol("ftp") {
		t.Error("Expected ftp to be unsupported")
	}
}

func TestBuildInvocation_CrossCloud(t *testing.T) {
	req := &core.TransferRequest{
		Source:      "gs://climate-raw/run42",
		Destination: "s3://archive/run42",
	}

	inv, err := New().BuildInvocation(strategy(), req, false)
	if err != nil {
		t.Fatalf("BuildInvocation failed: %v", err)
	}

	expected := "rclone copy src:climate-raw/run42 dst:archive/run42 --transfers 20 --checkers 20 --stats 30s --stats-one-line"
	if got := strings.Join(inv.Argv(), " "); got != expected {
		t.Errorf("Expected command:\n%s\ngot:\n%s", expected, got)
	}

	cfg := loadConfig(t, inv)

	src := cfg.Section("src")
	if src.Key("type").String() != "google cloud storage" {
		t.Errorf("Expected gcs source remote, got %q", src.Key("type").String())
	}

	dst := cfg.Section("dst")
	checks := map[string]string{
		"type":          "s3",
		"provider":      "AWS",
		"env_auth":      "true",
		"storage_class": "GLACIER",
		"upload_cutoff": "64M",
		"chunk_size":    "32M",
	}
	for key, want := range checks {
		if got := dst.Key(key).String(); got != want {
			t.Errorf("dst.%s = %q, want %q", key, got, want)
		}
	}
	if dst.HasKey("use_accelerate_endpoint") {
		t.Error("Expected no acceleration")
	}
}

func TestBuildInvocation_DryRun(t *testing.T) {
	req := &core.TransferRequest{Source: "/data", Destination: "s3://bucket/data"}

	inv, err := New().BuildInvocation(strategy(), req, true)
	if err != nil {
		t.Fatalf("BuildInvocation failed: %v", err)
	}
	if inv.Args[len(inv.Args)-1] != "--dry-run" {
		t.Errorf("Expected --dry-run flag, got %v", inv.Args)
	}
	if inv.Args[1] != "/data" {
		t.Errorf("Expected local source unchanged, got %s", inv.Args[1])
	}
}

func TestBuildInvocation_StandardAndAcceleration(t *testing.T) {
	s := strategy()
	s.StorageClass = core.StorageStandard
	s.UseAcceleration = true
	req := &core.TransferRequest{Source: "/data", Destination: "s3://bucket"}

	inv, err := New().BuildInvocation(s, req, false)
	if err != nil {
		t.Fatalf("BuildInvocation failed: %v", err)
	}

	dst := loadConfig(t, inv).Section("dst")
	if dst.HasKey("storage_class") {
		t.Error("Expected no storage_class for STANDARD")
	}
	if dst.Key("use_accelerate_endpoint").String() != "true" {
		t.Error("Expected acceleration enabled")
	}
	if inv.Args[2] != "dst:bucket" {
		t.Errorf("Expected bucket-only remote path, got %s", inv.Args[2])
	}
}

func TestBuildInvocation_Compression(t *testing.T) {
	s := strategy()
	s.EnableCompression = true
	req := &core.TransferRequest{Source: "/data/logs", Destination: "s3://bucket/logs"}

	inv, err := New().BuildInvocation(s, req, false)
	if err != nil {
		t.Fatalf("BuildInvocation failed: %v", err)
	}

	if inv.Args[2] != "dst_gzip:" {
		t.Errorf("Expected compressed destination, got %s", inv.Args[2])
	}
	sec := loadConfig(t, inv).Section("dst_gzip")
	if sec.Key("type").String() != "compress" || sec.Key("remote").String() != "dst:bucket/logs" {
		t.Errorf("Unexpected compress remote: type=%q remote=%q", sec.Key("type").String(), sec.Key("remote").String())
	}
}

func TestBuildInvocation_CompressionLocalDestination(t *testing.T) {
	s := strategy()
	s.EnableCompression = true
	req := &core.TransferRequest{Source: "s3://bucket/logs", Destination: "/scratch/logs"}

	inv, err := New().BuildInvocation(s, req, false)
	if err != nil {
		t.Fatalf("BuildInvocation failed: %v", err)
	}
	if inv.Args[2] != "/scratch/logs" {
		t.Errorf("Expected local destination unchanged, got %s", inv.Args[2])
	}
	// Only the source is an S3 remote; upload settings belong to destinations
	if loadConfig(t, inv).Section("src").HasKey("storage_class") {
		t.Error("Expected no storage_class on source remote")
	}
}

func TestBuildInvocation_LocalOnly(t *testing.T) {
	inv, err := New().BuildInvocation(strategy(), &core.TransferRequest{Source: "/a", Destination: "/b"}, false)
	if err != nil {
		t.Fatalf("BuildInvocation failed: %v", err)
	}
	if len(inv.Files) != 0 {
		t.Errorf("Expected no config file for local copy, got %d", len(inv.Files))
	}
}

func TestBuildInvocation_AzureAccount(t *testing.T) {
	req := &core.TransferRequest{
		Source:      "wasb://sims@labstore.blob.core.windows.net/out",
		Destination: "s3://bucket/out",
	}

	inv, err := New().BuildInvocation(strategy(), req, false)
	if err != nil {
		t.Fatalf("BuildInvocation failed: %v", err)
	}
	if inv.Args[1] != "src:sims/out" {
		t.Errorf("Expected container path, got %s", inv.Args[1])
	}
	src := loadConfig(t, inv).Section("src")
	if src.Key("account").String() != "labstore" {
		t.Errorf("Expected account labstore, got %q", src.Key("account").String())
	}
}

func TestBuildInvocation_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  core.TransferRequest
	}{
		{"http destination", core.TransferRequest{Source: "/a", Destination: "https://example.com/x"}},
		{"missing bucket", core.TransferRequest{Source: "s3:///x", Destination: "/b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New().BuildInvocation(strategy(), &tt.req, false); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestSplitLocator(t *testing.T) {
	tests := []struct {
		locator, host, path string
	}{
		{"s3://bucket/a/b", "bucket", "a/b"},
		{"s3://bucket", "bucket", ""},
		{"gs://bucket/", "bucket", ""},
		{"/local", "", "/local"},
	}
	for _, tt := range tests {
		host, path := splitLocator(tt.locator)
		if host != tt.host || path != tt.path {
			t.Errorf("splitLocator(%s) = (%s, %s), want (%s, %s)", tt.locator, host, path, tt.host, tt.path)
		}
	}
}
