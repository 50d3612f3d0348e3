package core

// Exit codes for semantic error handling
// These codes let scripts tell planning problems from tool failures
const (
	// ExitSuccess indicates successful completion
	ExitSuccess = 0

	// ExitGeneralError indicates a general error
	ExitGeneralError = 1

	// ExitConfigError indicates configuration error (invalid config, missing fields)
	ExitConfigError = 10

	// ExitInvalidRequest indicates a structurally invalid transfer request
	ExitInvalidRequest = 11

	// ExitTransferFailed indicates the transfer tool ran and exited non-zero
	ExitTransferFailed = 30

	// ExitToolNotFound indicates the mandatory fallback tool is not installed
	ExitToolNotFound = 40

	// ExitToolStartFailed indicates the chosen tool could not be launched
	ExitToolStartFailed = 41

	// ExitUserCanceled indicates user canceled the operation
	ExitUserCanceled = 50

	// ExitTimeout indicates the execution deadline elapsed
	ExitTimeout = 51
)

// ErrorCategory classifies errors for caller decision-making
type ErrorCategory string

const (
	// CategoryRetryable errors can be retried
	CategoryRetryable ErrorCategory = "retryable"

	// CategoryFatal errors cannot be retried without fixing the issue
	CategoryFatal ErrorCategory = "fatal"

	// CategoryConfiguration errors require config changes
	CategoryConfiguration ErrorCategory = "configuration"

	// CategoryUser errors caused by user input or cancellation
	CategoryUser ErrorCategory = "user"
)

// ExitCodeInfo provides metadata about exit codes
type ExitCodeInfo struct {
	Code        int
	Category    ErrorCategory
	Description string
	Retryable   bool
	Suggestion  string
}

// ExitCodeRegistry maps exit codes to their metadata
var ExitCodeRegistry = map[int]ExitCodeInfo{
	ExitSuccess: {
		Code:        ExitSuccess,
		Category:    CategoryUser,
		Description: "Operation completed successfully",
	},
	ExitConfigError: {
		Code:        ExitConfigError,
		Category:    CategoryConfiguration,
		Description: "Configuration error",
		Suggestion:  "Check configuration file syntax and required fields",
	},
	ExitInvalidRequest: {
		Code:        ExitInvalidRequest,
		Category:    CategoryUser,
		Description: "Invalid transfer request",
		Suggestion:  "Size and item count must be non-negative; source and destination are required",
	},
	ExitTransferFailed: {
		Code:        ExitTransferFailed,
		Category:    CategoryRetryable,
		Description: "Transfer tool exited with an error",
		Retryable:   true,
		Suggestion:  "Inspect captured stderr and retry, possibly with a different tool",
	},
	ExitToolNotFound: {
		Code:        ExitToolNotFound,
		Category:    CategoryConfiguration,
		Description: "Fallback transfer tool not installed",
		Suggestion:  "Install the AWS CLI (aws) and make sure it is on PATH",
	},
	ExitToolStartFailed: {
		Code:        ExitToolStartFailed,
		Category:    CategoryConfiguration,
		Description: "Transfer tool could not be started",
		Suggestion:  "Check that the tool is installed and executable",
	},
	ExitUserCanceled: {
		Code:        ExitUserCanceled,
		Category:    CategoryUser,
		Description: "Operation canceled by user",
	},
	ExitTimeout: {
		Code:        ExitTimeout,
		Category:    CategoryRetryable,
		Description: "Transfer timed out",
		Retryable:   true,
		Suggestion:  "Increase --timeout; partial progress is not resumed by the engine",
	},
}

// GetExitCodeInfo retrieves metadata for an exit code
func GetExitCodeInfo(code int) ExitCodeInfo {
	if info, exists := ExitCodeRegistry[code]; exists {
		return info
	}
	return ExitCodeInfo{
		Code:        code,
		Category:    CategoryFatal,
		Description: "Unknown error",
		Retryable:   false,
		Suggestion:  "Check logs for details",
	}
}

// IsRetryable checks if an exit code represents a retryable error
func IsRetryable(code int) bool {
	return GetExitCodeInfo(code).Retryable
}
