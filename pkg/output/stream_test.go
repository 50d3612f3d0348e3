package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larrydiffey/xferplan/pkg/core"
)

func readEvents(t *testing.T, buf *bytes.Buffer) []Event {
	t.Helper()
	var events []Event
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var e Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		events = append(events, e)
	}
	return events
}

func TestStreamWriter_Lifecycle(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamWriter(&buf)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	strategy := sampleStrategy()
	failed := &core.ExecutionResult{ID: "1", Tool: core.ToolS5cmd, ExitCode: 2, Failure: core.FailureExitStatus,
		Err: &core.ExecutionError{Kind: core.KindExecutionFailure, Tool: core.ToolS5cmd, ExitCode: 2}}
	done := &core.ExecutionResult{ID: "2", Tool: core.ToolS5cmd, Success: true, Duration: 3 * time.Second}

	require.NoError(t, s.Planned(strategy))
	require.NoError(t, s.Start(strategy, 1, false))
	require.NoError(t, s.Retry(failed, 1, 5*time.Second))
	require.NoError(t, s.Complete(failed))
	require.NoError(t, s.Complete(done))
	require.NoError(t, s.Error(errors.New("boom")))

	events := readEvents(t, &buf)
	require.Len(t, events, 6)

	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
		assert.True(t, e.Timestamp.Equal(fixed))
	}
	assert.Equal(t, []string{EventPlanned, EventStart, EventRetry, EventError, EventComplete, EventError}, types)

	assert.Equal(t, 50, events[0].Workers)
	assert.Equal(t, "retrying in 5s", events[2].Message)
	require.NotNil(t, events[3].ExitCode)
	assert.Equal(t, 2, *events[3].ExitCode)
	assert.Equal(t, core.FailureExitStatus, events[3].Failure)
	assert.Equal(t, 3.0, events[4].DurationSeconds)
	assert.Equal(t, "boom", events[5].Message)
}

func TestStreamWriter_ZeroExitCodeKept(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewStreamWriter(&buf).Complete(&core.ExecutionResult{Success: true}))

	assert.Contains(t, buf.String(), `"exit_code":0`)
}

func TestStreamWriter_Nil(t *testing.T) {
	var s *StreamWriter
	assert.NoError(t, s.Planned(sampleStrategy()))
	assert.NoError(t, s.Error(errors.New("ignored")))
}

func TestStreamWriter_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Start(sampleStrategy(), 1, true)
		}()
	}
	wg.Wait()

	assert.Len(t, readEvents(t, &buf), 50)
}
