package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/larrydiffey/xferplan/pkg/core"
)

func fastPolicy(attempts int) *Policy {
	return &Policy{
		MaxAttempts: attempts,
		InitialWait: time.Millisecond,
		MaxWait:     time.Millisecond,
		Multiplier:  1.0,
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	result := Do(context.Background(), fastPolicy(5), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	if !result.Success {
		t.Fatalf("Expected success, got %v", result.Error)
	}
	if result.Attempt != 3 {
		t.Errorf("Expected 3 attempts, got %d", result.Attempt)
	}
	if len(result.Attempts) != 3 {
		t.Errorf("Expected 3 attempt records, got %d", len(result.Attempts))
	}
	if result.Error != nil {
		t.Errorf("Expected no error after success, got %v", result.Error)
	}
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	result := Do(context.Background(), fastPolicy(5), func(context.Context) error {
		calls++
		return fatal
	}, func(err error) bool { return !errors.Is(err, fatal) })

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if result.Success {
		t.Error("Expected failure")
	}
	if !errors.Is(result.Error, fatal) {
		t.Errorf("Expected fatal error, got %v", result.Error)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	result := Do(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		return errors.New("always")
	}, nil)

	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	if result.Success {
		t.Error("Expected failure")
	}
	if result.Attempts[2].WaitTime != 0 {
		t.Errorf("Expected no wait after the last attempt, got %v", result.Attempts[2].WaitTime)
	}
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	Do(context.Background(), fastPolicy(0), func(context.Context) error {
		calls++
		return errors.New("x")
	}, nil)

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	policy := &Policy{MaxAttempts: 5, InitialWait: time.Hour, MaxWait: time.Hour, Multiplier: 1.0}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	result := Do(ctx, policy, func(context.Context) error {
		calls++
		return errors.New("x")
	}, nil)

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if result.Success {
		t.Error("Expected failure")
	}
	if time.Since(start) > 10*time.Second {
		t.Error("Expected cancellation to interrupt the wait")
	}
}

func TestCalculateWait(t *testing.T) {
	p := &Policy{InitialWait: time.Second, MaxWait: 5 * time.Second, Multiplier: 2}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second},
		{10, 5 * time.Second},
	}

	for _, tt := range tests {
		if got := p.calculateWait(tt.attempt); got != tt.want {
			t.Errorf("Attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestCalculateWait_Jitter(t *testing.T) {
	p := &Policy{InitialWait: time.Second, MaxWait: time.Minute, Multiplier: 1, Jitter: true}

	for i := 0; i < 100; i++ {
		got := p.calculateWait(1)
		if got < time.Second || got > 1100*time.Millisecond {
			t.Fatalf("Expected wait within 10%% jitter of 1s, got %v", got)
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name   string
		result *core.ExecutionResult
		want   bool
	}{
		{"nil", nil, false},
		{"success", &core.ExecutionResult{Success: true}, false},
		{"timeout", &core.ExecutionResult{Failure: core.FailureTimeout}, true},
		{"exit failure", &core.ExecutionResult{Failure: core.FailureExitStatus}, true},
		{"start error", &core.ExecutionResult{Failure: core.FailureStartError}, false},
		{"dry run", &core.ExecutionResult{DryRun: true, Failure: core.FailureStartError}, false},
		{"deadline", &core.ExecutionResult{Failure: core.FailureTimeout, Err: failureError(core.FailureTimeout, context.DeadlineExceeded)}, true},
		{"canceled", &core.ExecutionResult{Failure: core.FailureTimeout, Err: failureError(core.FailureTimeout, context.Canceled)}, false},
		{"exit status error", &core.ExecutionResult{Failure: core.FailureExitStatus, Err: failureError(core.FailureExitStatus, nil)}, true},
		{"start error with cause", &core.ExecutionResult{Failure: core.FailureStartError, Err: failureError(core.FailureStartError, errors.New("not found"))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.result); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

// failureError builds the error the adapter attaches to a failure kind
func failureError(kind core.FailureKind, cause error) error {
	switch kind {
	case core.FailureStartError:
		return &core.ExecutionError{Kind: core.KindExecutionStart, Tool: core.ToolRclone, ExitCode: -1, Err: cause}
	case core.FailureTimeout:
		return &core.ExecutionError{Kind: core.KindExecutionTimeout, Tool: core.ToolRclone, ExitCode: -1, Err: cause}
	default:
		return &core.ExecutionError{Kind: core.KindExecutionFailure, Tool: core.ToolRclone, ExitCode: 1}
	}
}

// scriptedExecutor returns the queued failures in order, then succeeds
type scriptedExecutor struct {
	failures  []core.FailureKind
	calls     int
	deadlines []bool
}

func (s *scriptedExecutor) Execute(ctx context.Context, strategy *core.TransferStrategy, _ *core.TransferRequest, dryRun bool) *core.ExecutionResult {
	_, hasDeadline := ctx.Deadline()
	s.deadlines = append(s.deadlines, hasDeadline)

	r := &core.ExecutionResult{Tool: strategy.Tool, DryRun: dryRun}
	if s.calls < len(s.failures) {
		r.Failure = s.failures[s.calls]
		r.Err = failureError(r.Failure, context.DeadlineExceeded)
	} else {
		r.Success = true
	}
	s.calls++
	return r
}

func TestExecute_RetriesExitFailures(t *testing.T) {
	exec := &scriptedExecutor{failures: []core.FailureKind{core.FailureExitStatus, core.FailureTimeout}}
	strategy := &core.TransferStrategy{Tool: core.ToolRclone}

	last, res := Execute(context.Background(), exec, fastPolicy(3), time.Minute, strategy, &core.TransferRequest{}, false)

	if !last.Success {
		t.Fatalf("Expected final success, got %s", last.Failure)
	}
	if res.Attempt != 3 {
		t.Errorf("Expected 3 attempts, got %d", res.Attempt)
	}
	for i, d := range exec.deadlines {
		if !d {
			t.Errorf("Attempt %d: expected a per-attempt deadline", i+1)
		}
	}
}

func TestExecute_StartErrorNotRetried(t *testing.T) {
	exec := &scriptedExecutor{failures: []core.FailureKind{core.FailureStartError, core.FailureStartError}}
	strategy := &core.TransferStrategy{Tool: core.ToolS5cmd}

	last, res := Execute(context.Background(), exec, fastPolicy(3), 0, strategy, &core.TransferRequest{}, false)

	if exec.calls != 1 {
		t.Errorf("Expected 1 call, got %d", exec.calls)
	}
	if last.Failure != core.FailureStartError {
		t.Errorf("Expected start_error, got %s", last.Failure)
	}
	if res.Success {
		t.Error("Expected failure")
	}
	if core.KindOf(res.Error) != core.KindExecutionStart {
		t.Errorf("Expected wrapped execution error, got %v", res.Error)
	}
	if exec.deadlines[0] {
		t.Error("Expected no per-attempt deadline when timeout is zero")
	}
}

func TestExecute_OnRetry(t *testing.T) {
	exec := &scriptedExecutor{failures: []core.FailureKind{core.FailureTimeout}}
	policy := fastPolicy(2)

	var notified []*core.ExecutionResult
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		if attempt != 1 {
			t.Errorf("Expected retry after attempt 1, got %d", attempt)
		}
		notified = append(notified, FailedResult(err))
	}

	last, _ := Execute(context.Background(), exec, policy, 0, &core.TransferStrategy{Tool: core.ToolAWSCLI}, &core.TransferRequest{}, false)

	if !last.Success {
		t.Fatalf("Expected success on second attempt, got %s", last.Failure)
	}
	if len(notified) != 1 || notified[0] == nil || notified[0].Failure != core.FailureTimeout {
		t.Errorf("Expected one retry notification for the timeout, got %v", notified)
	}
}

func TestFailedResult_ForeignError(t *testing.T) {
	if FailedResult(errors.New("other")) != nil {
		t.Error("Expected nil for a foreign error")
	}
}
