package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/larrydiffey/xferplan/pkg/core"
)

// Format represents output format type
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Formatter handles output formatting
type Formatter struct {
	format Format
	writer io.Writer
}

// New creates a new formatter
func New(format Format, writer io.Writer) *Formatter {
	return &Formatter{
		format: format,
		writer: writer,
	}
}

// Format outputs data in the specified format
func (f *Formatter) Format(data interface{}) error {
	switch f.format {
	case FormatJSON:
		return f.formatJSON(data)
	case FormatYAML:
		return f.formatYAML(data)
	case FormatCSV:
		return f.formatCSV(data)
	case FormatText:
		return f.formatText(data)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

// Strategy renders a transfer strategy
func (f *Formatter) Strategy(s *core.TransferStrategy) error {
	switch f.format {
	case FormatText:
		return f.formatFields(strategyFields(s), s.Notes)
	case FormatCSV:
		return f.formatCSV([][]string{strategyHeader, strategyRow(s)})
	default:
		return f.Format(s)
	}
}

// ToolRow describes one transfer tool for the tools listing
type ToolRow struct {
	Tool      core.TransferTool `json:"tool" yaml:"tool"`
	Binary    string            `json:"binary" yaml:"binary"`
	Available bool              `json:"available" yaml:"available"`
	Profile   core.ToolProfile  `json:"profile" yaml:"profile"`
}

// Tools renders the tool availability table
func (f *Formatter) Tools(rows []ToolRow) error {
	switch f.format {
	case FormatText:
		for _, r := range rows {
			status := "missing"
			if r.Available {
				status = "installed"
			}
			_, err := fmt.Fprintf(f.writer, "%-18s %-7s %-9s %5.1f Gbps  eff %.2f  overhead %.0fs  %s\n",
				r.Tool, r.Binary, status, r.Profile.MaxThroughputGbps, r.Profile.ParallelEfficiency,
				r.Profile.OverheadSeconds, strings.Join(r.Profile.BestFor, ", "))
			if err != nil {
				return err
			}
		}
		return nil
	case FormatCSV:
		records := [][]string{{"tool", "binary", "available", "max_throughput_gbps", "parallel_efficiency", "overhead_seconds", "best_for"}}
		for _, r := range rows {
			records = append(records, []string{
				string(r.Tool),
				r.Binary,
				strconv.FormatBool(r.Available),
				formatFloat(r.Profile.MaxThroughputGbps),
				formatFloat(r.Profile.ParallelEfficiency),
				formatFloat(r.Profile.OverheadSeconds),
				strings.Join(r.Profile.BestFor, ";"),
			})
		}
		return f.formatCSV(records)
	default:
		return f.Format(rows)
	}
}

// resultDoc is the serialized form of an execution result
type resultDoc struct {
	ID              string                 `json:"id" yaml:"id"`
	Tool            core.TransferTool      `json:"tool" yaml:"tool"`
	Status          string                 `json:"status" yaml:"status"`
	DryRun          bool                   `json:"dry_run" yaml:"dry_run"`
	ExitCode        int                    `json:"exit_code" yaml:"exit_code"`
	Command         []string               `json:"command" yaml:"command"`
	StartedAt       time.Time              `json:"started_at" yaml:"started_at"`
	DurationSeconds float64                `json:"duration_seconds" yaml:"duration_seconds"`
	Stdout          string                 `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr          string                 `json:"stderr,omitempty" yaml:"stderr,omitempty"`
	Truncated       bool                   `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Error           string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Strategy        *core.TransferStrategy `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

// Status summarizes an execution result in one word
func Status(r *core.ExecutionResult) string {
	switch {
	case r.Success && r.DryRun:
		return "dry_run"
	case r.Success:
		return "success"
	default:
		return string(r.Failure)
	}
}

// Result renders an execution result
func (f *Formatter) Result(r *core.ExecutionResult) error {
	doc := resultDoc{
		ID:              r.ID,
		Tool:            r.Tool,
		Status:          Status(r),
		DryRun:          r.DryRun,
		ExitCode:        r.ExitCode,
		Command:         r.Command,
		StartedAt:       r.StartedAt,
		DurationSeconds: r.Duration.Seconds(),
		Stdout:          r.Stdout,
		Stderr:          r.Stderr,
		Truncated:       r.Truncated,
		Strategy:        r.Strategy,
	}
	if r.Err != nil {
		doc.Error = r.Err.Error()
	}

	switch f.format {
	case FormatText:
		fields := [][2]string{
			{"ID", doc.ID},
			{"Tool", string(doc.Tool)},
			{"Status", doc.Status},
			{"Exit code", strconv.Itoa(doc.ExitCode)},
			{"Duration", r.Duration.Round(time.Millisecond).String()},
			{"Command", r.CommandLine()},
		}
		if doc.Error != "" {
			fields = append(fields, [2]string{"Error", doc.Error})
		}
		if doc.Truncated {
			fields = append(fields, [2]string{"Output", "truncated"})
		}
		if err := f.formatFields(fields, nil); err != nil {
			return err
		}
		return f.formatStreams(doc.Stdout, doc.Stderr)
	case FormatCSV:
		return f.formatCSV([][]string{
			{"id", "tool", "status", "exit_code", "duration_seconds", "command", "error"},
			{doc.ID, string(doc.Tool), doc.Status, strconv.Itoa(doc.ExitCode), formatFloat(doc.DurationSeconds), r.CommandLine(), doc.Error},
		})
	default:
		return f.Format(doc)
	}
}

// formatJSON outputs data as JSON
func (f *Formatter) formatJSON(data interface{}) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// formatYAML outputs data as YAML
func (f *Formatter) formatYAML(data interface{}) error {
	encoder := yaml.NewEncoder(f.writer)
	defer encoder.Close()
	return encoder.Encode(data)
}

// formatCSV outputs data as CSV
func (f *Formatter) formatCSV(data interface{}) error {
	writer := csv.NewWriter(f.writer)
	defer writer.Flush()

	// Convert data to [][]string for CSV
	switch v := data.(type) {
	case [][]string:
		return writer.WriteAll(v)
	case map[string]interface{}:
		keys := sortedKeys(v)
		values := make([]string, 0, len(v))
		for _, key := range keys {
			values = append(values, fmt.Sprintf("%v", v[key]))
		}
		if err := writer.Write(keys); err != nil {
			return err
		}
		return writer.Write(values)
	default:
		return fmt.Errorf("unsupported CSV data type: %T", data)
	}
}

// formatText outputs data as human-readable text
func (f *Formatter) formatText(data interface{}) error {
	switch v := data.(type) {
	case string:
		_, err := fmt.Fprintln(f.writer, v)
		return err
	case map[string]interface{}:
		return f.formatTextMap(v)
	case []interface{}:
		return f.formatTextList(v)
	default:
		_, err := fmt.Fprintf(f.writer, "%+v\n", v)
		return err
	}
}

// formatTextMap formats a map as key-value pairs in key order
func (f *Formatter) formatTextMap(m map[string]interface{}) error {
	fields := make([][2]string, 0, len(m))
	for _, key := range sortedKeys(m) {
		fields = append(fields, [2]string{key, fmt.Sprintf("%v", m[key])})
	}
	return f.formatFields(fields, nil)
}

// formatFields writes aligned key-value pairs followed by a bulleted list
func (f *Formatter) formatFields(fields [][2]string, notes []string) error {
	maxKeyLen := 0
	for _, kv := range fields {
		maxKeyLen = max(maxKeyLen, len(kv[0]))
	}

	for _, kv := range fields {
		padding := strings.Repeat(" ", maxKeyLen-len(kv[0]))
		if _, err := fmt.Fprintf(f.writer, "%s:%s %s\n", kv[0], padding, kv[1]); err != nil {
			return err
		}
	}

	if len(notes) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(f.writer, "Notes:"); err != nil {
		return err
	}
	items := make([]interface{}, len(notes))
	for i, n := range notes {
		items[i] = n
	}
	return f.formatTextList(items)
}

// formatTextList formats a list with bullets
func (f *Formatter) formatTextList(list []interface{}) error {
	for _, item := range list {
		_, err := fmt.Fprintf(f.writer, "  • %v\n", item)
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *Formatter) formatStreams(stdout, stderr string) error {
	for _, s := range []struct{ name, text string }{{"stdout", stdout}, {"stderr", stderr}} {
		if s.text == "" {
			continue
		}
		if _, err := fmt.Fprintf(f.writer, "--- %s ---\n%s", s.name, s.text); err != nil {
			return err
		}
		if !strings.HasSuffix(s.text, "\n") {
			if _, err := fmt.Fprintln(f.writer); err != nil {
				return err
			}
		}
	}
	return nil
}

// Error formats an error message with its exit code metadata
func (f *Formatter) Error(err error) error {
	code := core.ExitCodeOf(err)
	info := core.GetExitCodeInfo(code)
	errorData := map[string]interface{}{
		"error":     err.Error(),
		"exit_code": code,
		"category":  string(info.Category),
		"retryable": info.Retryable,
	}
	if info.Suggestion != "" {
		errorData["suggestion"] = info.Suggestion
	}
	if kind := core.KindOf(err); kind != "" {
		errorData["kind"] = string(kind)
	}
	return f.Format(errorData)
}

// Success formats a success message
func (f *Formatter) Success(message string) error {
	successData := map[string]interface{}{
		"status":  "success",
		"message": message,
	}
	return f.Format(successData)
}

var strategyHeader = []string{
	"tool", "storage_class", "worker_count", "multipart_threshold_mb", "chunk_size_mb",
	"enable_compression", "use_acceleration", "estimated_cost_per_gb_month",
	"estimated_duration_hours", "notes",
}

func strategyRow(s *core.TransferStrategy) []string {
	return []string{
		string(s.Tool),
		string(s.StorageClass),
		strconv.Itoa(s.WorkerCount),
		strconv.Itoa(s.MultipartThresholdMB),
		strconv.Itoa(s.ChunkSizeMB),
		strconv.FormatBool(s.EnableCompression),
		strconv.FormatBool(s.UseAcceleration),
		formatFloat(s.EstimatedCostPerGBMonth),
		formatFloat(s.EstimatedDurationHours),
		strings.Join(s.Notes, "; "),
	}
}

func strategyFields(s *core.TransferStrategy) [][2]string {
	return [][2]string{
		{"Tool", string(s.Tool)},
		{"Storage class", string(s.StorageClass)},
		{"Workers", strconv.Itoa(s.WorkerCount)},
		{"Multipart", fmt.Sprintf("%d MB threshold, %d MB chunks", s.MultipartThresholdMB, s.ChunkSizeMB)},
		{"Compression", onOff(s.EnableCompression)},
		{"Acceleration", onOff(s.UseAcceleration)},
		{"Est. cost", fmt.Sprintf("$%.4f/GB-month", s.EstimatedCostPerGBMonth)},
		{"Est. duration", formatHours(s.EstimatedDurationHours)},
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// formatHours prints hours as a rounded Go duration, e.g. 1h23m0s
func formatHours(h float64) string {
	d := time.Duration(h * float64(time.Hour))
	if d < time.Minute {
		return d.Round(time.Second).String()
	}
	return d.Round(time.Minute).String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
