// Package retry re-runs failed executions on the caller's side. The
// execution adapter never retries by itself.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/larrydiffey/xferplan/pkg/core"
)

// Policy defines retry behavior
type Policy struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
	Jitter      bool

	// OnRetry, when set, is called before waiting for the next attempt
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultPolicy returns a default retry policy
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts: 3,
		InitialWait: 5 * time.Second,
		MaxWait:     2 * time.Minute,
		Multiplier:  2.0,
		Jitter:      true,
	}
}

// ExponentialPolicy returns an exponential backoff policy
func ExponentialPolicy(maxAttempts int) *Policy {
	p := DefaultPolicy()
	p.MaxAttempts = maxAttempts
	return p
}

// Result contains information about a retried operation
type Result struct {
	Attempt       int
	Success       bool
	Error         error
	TotalDuration time.Duration
	Attempts      []AttemptInfo
}

// AttemptInfo contains information about a single attempt
type AttemptInfo struct {
	Attempt  int
	Error    error
	Duration time.Duration
	WaitTime time.Duration
}

// Do calls fn until it succeeds, isRetryable rejects its error, attempts run
// out, or ctx ends. A nil isRetryable retries every error.
func Do(ctx context.Context, policy *Policy, fn func(context.Context) error, isRetryable func(error) bool) *Result {
	if policy == nil {
		policy = DefaultPolicy()
	}
	attempts := max(policy.MaxAttempts, 1)

	startTime := time.Now()
	result := &Result{
		Attempts: make([]AttemptInfo, 0, attempts),
	}
	defer func() {
		result.TotalDuration = time.Since(startTime)
	}()

	for attempt := 1; attempt <= attempts; attempt++ {
		result.Attempt = attempt
		attemptStart := time.Now()

		err := fn(ctx)

		info := AttemptInfo{
			Attempt:  attempt,
			Error:    err,
			Duration: time.Since(attemptStart),
		}

		if err == nil {
			result.Success = true
			result.Error = nil
			result.Attempts = append(result.Attempts, info)
			return result
		}

		result.Error = err

		if (isRetryable != nil && !isRetryable(err)) || attempt >= attempts || ctx.Err() != nil {
			result.Attempts = append(result.Attempts, info)
			return result
		}

		waitTime := policy.calculateWait(attempt)
		info.WaitTime = waitTime
		result.Attempts = append(result.Attempts, info)
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err, waitTime)
		}

		timer := time.NewTimer(waitTime)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result
		case <-timer.C:
		}
	}

	return result
}

// Executor runs a strategy once
type Executor interface {
	Execute(ctx context.Context, strategy *core.TransferStrategy, req *core.TransferRequest, dryRun bool) *core.ExecutionResult
}

// Retryable reports whether a failed result is worth running again.
// Deadlines and non-zero exits qualify; start errors, cancellation and dry
// runs do not.
func Retryable(r *core.ExecutionResult) bool {
	if r == nil || r.Success || r.DryRun {
		return false
	}
	if r.Err != nil {
		return core.IsRetryable(core.ExitCodeOf(r.Err))
	}
	return r.Failure == core.FailureTimeout || r.Failure == core.FailureExitStatus
}

// Execute runs a strategy through exec under policy and returns the last
// result together with the attempt history. The deadline of ctx covers all
// attempts; each attempt gets attemptTimeout of its own when positive.
func Execute(ctx context.Context, exec Executor, policy *Policy, attemptTimeout time.Duration,
	strategy *core.TransferStrategy, req *core.TransferRequest, dryRun bool) (*core.ExecutionResult, *Result) {
	var last *core.ExecutionResult

	res := Do(ctx, policy, func(ctx context.Context) error {
		if attemptTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, attemptTimeout)
			defer cancel()
		}
		last = exec.Execute(ctx, strategy, req, dryRun)
		if last.Success {
			return nil
		}
		return &attemptError{result: last}
	}, func(err error) bool {
		return Retryable(FailedResult(err))
	})

	return last, res
}

// attemptError carries a failed result through Do
type attemptError struct {
	result *core.ExecutionResult
}

func (e *attemptError) Error() string {
	if e.result.Err != nil {
		return e.result.Err.Error()
	}
	return fmt.Sprintf("%s failed: %s", e.result.Tool, e.result.Failure)
}

func (e *attemptError) Unwrap() error {
	return e.result.Err
}

// FailedResult returns the execution result behind an error passed to
// OnRetry by Execute, or nil
func FailedResult(err error) *core.ExecutionResult {
	var ae *attemptError
	if errors.As(err, &ae) {
		return ae.result
	}
	return nil
}

// calculateWait calculates the wait time for a given attempt
func (p *Policy) calculateWait(attempt int) time.Duration {
	wait := float64(p.InitialWait) * math.Pow(p.Multiplier, float64(attempt-1))

	if p.MaxWait > 0 && wait > float64(p.MaxWait) {
		wait = float64(p.MaxWait)
	}

	if p.Jitter {
		wait += rand.Float64() * wait * 0.1 // 10% jitter
	}

	return time.Duration(wait)
}

// String returns a string representation of the result
func (r *Result) String() string {
	if r.Success {
		return fmt.Sprintf("Success after %d attempt(s) in %v", r.Attempt, r.TotalDuration)
	}
	return fmt.Sprintf("Failed after %d attempt(s) in %v: %v", r.Attempt, r.TotalDuration, r.Error)
}
