package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies engine errors
type ErrorKind string

const (
	KindPlanning         ErrorKind = "planning"
	KindConfiguration    ErrorKind = "configuration"
	KindExecutionStart   ErrorKind = "execution_start"
	KindExecutionFailure ErrorKind = "execution_failure"
	KindExecutionTimeout ErrorKind = "execution_timeout"
)

// PlanningError is returned for structurally invalid requests, before any stage runs
type PlanningError struct {
	Field  string
	Reason string
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("invalid transfer request: %s %s", e.Field, e.Reason)
}

func (e *PlanningError) Kind() ErrorKind {
	return KindPlanning
}

func (e *PlanningError) ExitCode() int {
	return ExitInvalidRequest
}

// ConfigurationError is returned when the mandatory fallback tool is missing
type ConfigurationError struct {
	Tool   TransferTool
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Tool, e.Reason)
}

func (e *ConfigurationError) Kind() ErrorKind {
	return KindConfiguration
}

func (e *ConfigurationError) ExitCode() int {
	return ExitToolNotFound
}

// ExecutionError describes why a strategy did not run to a successful exit
type ExecutionError struct {
	Kind     ErrorKind
	Tool     TransferTool
	ExitCode int
	Err      error
}

func (e *ExecutionError) Error() string {
	switch e.Kind {
	case KindExecutionStart:
		return fmt.Sprintf("start %s: %v", e.Tool, e.Err)
	case KindExecutionTimeout:
		if e.Canceled() {
			return fmt.Sprintf("%s canceled: %v", e.Tool, e.Err)
		}
		return fmt.Sprintf("%s timed out: %v", e.Tool, e.Err)
	default:
		return fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	}
}

// Canceled reports whether the run was stopped by cancellation rather than a deadline
func (e *ExecutionError) Canceled() bool {
	return e.Kind == KindExecutionTimeout && errors.Is(e.Err, context.Canceled)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Code maps the execution error onto the exit-code registry
func (e *ExecutionError) Code() int {
	switch e.Kind {
	case KindExecutionStart:
		return ExitToolStartFailed
	case KindExecutionTimeout:
		if e.Canceled() {
			return ExitUserCanceled
		}
		return ExitTimeout
	default:
		return ExitTransferFailed
	}
}

// KindOf returns the kind of an engine error, or "" for foreign errors
func KindOf(err error) ErrorKind {
	var planning *PlanningError
	var configuration *ConfigurationError
	var execution *ExecutionError
	switch {
	case errors.As(err, &planning):
		return KindPlanning
	case errors.As(err, &configuration):
		return KindConfiguration
	case errors.As(err, &execution):
		return execution.Kind
	default:
		return ""
	}
}

// ExitCodeOf maps any error to a process exit code
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var planning *PlanningError
	var configuration *ConfigurationError
	var execution *ExecutionError
	switch {
	case errors.As(err, &planning):
		return planning.ExitCode()
	case errors.As(err, &configuration):
		return configuration.ExitCode()
	case errors.As(err, &execution):
		return execution.Code()
	default:
		return ExitGeneralError
	}
}
