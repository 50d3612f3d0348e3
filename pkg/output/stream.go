package output

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/larrydiffey/xferplan/pkg/core"
)

// Event types written to the stream
const (
	EventPlanned  = "planned"
	EventStart    = "start"
	EventRetry    = "retry"
	EventComplete = "complete"
	EventError    = "error"
)

// Event is one lifecycle update
type Event struct {
	Timestamp       time.Time         `json:"timestamp"`
	Type            string            `json:"type"`
	Message         string            `json:"message,omitempty"`
	ID              string            `json:"id,omitempty"`
	Tool            core.TransferTool `json:"tool,omitempty"`
	StorageClass    core.StorageClass `json:"storage_class,omitempty"`
	Workers         int               `json:"workers,omitempty"`
	DryRun          bool              `json:"dry_run,omitempty"`
	Attempt         int               `json:"attempt,omitempty"`
	Command         []string          `json:"command,omitempty"`
	ExitCode        *int              `json:"exit_code,omitempty"`
	Failure         core.FailureKind  `json:"failure,omitempty"`
	EstimatedHours  float64           `json:"estimated_hours,omitempty"`
	DurationSeconds float64           `json:"duration_seconds,omitempty"`
}

// StreamWriter writes newline-delimited JSON events
type StreamWriter struct {
	writer io.Writer
	mu     sync.Mutex
	now    func() time.Time
}

// NewStreamWriter creates a new stream writer
func NewStreamWriter(writer io.Writer) *StreamWriter {
	return &StreamWriter{
		writer: writer,
		now:    time.Now,
	}
}

// Write writes an event as newline-delimited JSON. A nil StreamWriter
// discards events.
func (s *StreamWriter) Write(event *Event) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = s.writer.Write(append(data, '\n'))
	return err
}

// Planned writes a planned event for a strategy
func (s *StreamWriter) Planned(strategy *core.TransferStrategy) error {
	return s.Write(&Event{
		Type:           EventPlanned,
		Tool:           strategy.Tool,
		StorageClass:   strategy.StorageClass,
		Workers:        strategy.WorkerCount,
		EstimatedHours: strategy.EstimatedDurationHours,
	})
}

// Start writes a start event before an attempt
func (s *StreamWriter) Start(strategy *core.TransferStrategy, attempt int, dryRun bool) error {
	return s.Write(&Event{
		Type:    EventStart,
		Tool:    strategy.Tool,
		Attempt: attempt,
		DryRun:  dryRun,
	})
}

// Retry writes a retry event after a failed attempt
func (s *StreamWriter) Retry(result *core.ExecutionResult, attempt int, wait time.Duration) error {
	e := resultEvent(EventRetry, result)
	e.Attempt = attempt
	e.Message = "retrying in " + wait.Round(time.Millisecond).String()
	return s.Write(e)
}

// Complete writes a complete or error event for a finished execution
func (s *StreamWriter) Complete(result *core.ExecutionResult) error {
	if result.Success {
		return s.Write(resultEvent(EventComplete, result))
	}
	return s.Write(resultEvent(EventError, result))
}

// Error writes an error event
func (s *StreamWriter) Error(err error) error {
	return s.Write(&Event{
		Type:    EventError,
		Message: err.Error(),
	})
}

func resultEvent(kind string, r *core.ExecutionResult) *Event {
	code := r.ExitCode
	e := &Event{
		Type:            kind,
		ID:              r.ID,
		Tool:            r.Tool,
		DryRun:          r.DryRun,
		Command:         r.Command,
		ExitCode:        &code,
		Failure:         r.Failure,
		DurationSeconds: r.Duration.Seconds(),
	}
	if r.Err != nil {
		e.Message = r.Err.Error()
	}
	return e
}
