package orchestrator

import (
	"context"
	"time"
)

// ErrorClass labels a failed invocation so the retry loop can decide whether
// repeating the request can plausibly change the outcome.
type ErrorClass string

const (
	ErrorAuth           ErrorClass = "auth_error"
	ErrorInvalidRequest ErrorClass = "invalid_request_error"
	ErrorNotFound       ErrorClass = "not_found_error"
	ErrorRateLimit      ErrorClass = "rate_limit_error"
	ErrorTimeout        ErrorClass = "timeout_error"
	ErrorUnknown        ErrorClass = "unknown_error"
)

// Retryable reports whether a subsequent attempt is worth the budget.
// Auth, request-shape and not-found failures are configuration problems that
// retries cannot fix.
func (c ErrorClass) Retryable() bool {
	switch c {
	case ErrorAuth, ErrorInvalidRequest, ErrorNotFound:
		return false
	default:
		return true
	}
}

// InvocationRequest carries one attempt against one backend. Built fresh per
// attempt, never mutated.
type InvocationRequest struct {
	Model   string
	Prompt  string
	Timeout time.Duration
}

// Outcome is the result of a single invocation attempt. A zero ErrorClass
// marks success; failures carry the class and message instead of output.
type Outcome struct {
	Model        string     `json:"model"`
	Output       string     `json:"output,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	ErrorClass   ErrorClass `json:"errorClass,omitempty"`
	DurationMs   int64      `json:"durationMs"`
	TimestampUTC string     `json:"timestampUTC,omitempty"`
}

func (o Outcome) Succeeded() bool { return o.ErrorClass == "" }

// Success builds a successful outcome stamped with the completion time.
func Success(model, output string, elapsed time.Duration, at time.Time) Outcome {
	return Outcome{
		Model:        model,
		Output:       output,
		DurationMs:   elapsed.Milliseconds(),
		TimestampUTC: at.UTC().Format(time.RFC3339),
	}
}

// Failure builds a classified failed outcome.
func Failure(model string, class ErrorClass, message string, elapsed time.Duration) Outcome {
	return Outcome{
		Model:        model,
		ErrorMessage: message,
		ErrorClass:   class,
		DurationMs:   elapsed.Milliseconds(),
	}
}

// RetryResult is the final, post-retry-loop result for one model within one
// run. Immutable once produced.
type RetryResult struct {
	Model           string  `json:"model"`
	Succeeded       bool    `json:"succeeded"`
	FinalOutcome    Outcome `json:"finalOutcome"`
	AttemptsMade    int     `json:"attemptsMade"`
	TotalDurationMs int64   `json:"totalDurationMs"`
}

// FailureDetail summarizes one failed model with enough detail for both human
// debugging and programmatic routing.
type FailureDetail struct {
	Model        string     `json:"model"`
	ErrorClass   ErrorClass `json:"errorClass"`
	ErrorMessage string     `json:"errorMessage"`
	AttemptsMade int        `json:"attemptsMade"`
}

// Summary is the reduced result of one orchestration run. OverallSuccess is
// the partial-success predicate: true iff at least one backend produced
// output.
type Summary struct {
	RunID               string          `json:"runId"`
	OverallSuccess      bool            `json:"overallSuccess"`
	TotalModels         int             `json:"totalModels"`
	SuccessCount        int             `json:"successCount"`
	FailureCount        int             `json:"failureCount"`
	Results             []RetryResult   `json:"results"`
	Failures            []FailureDetail `json:"failures"`
	WallClockDurationMs int64           `json:"wallClockDurationMs"`
	TimestampUTC        string          `json:"timestampUTC"`
}

// Invoker is the contract a backend adapter must satisfy. Invoke never
// panics and never returns a Go error: every failure, including timeout, is
// captured as a classified Failure outcome.
type Invoker interface {
	ID() string
	Invoke(ctx context.Context, req InvocationRequest) Outcome
}

// Resolver maps a model identifier to its invoker. Built once at startup.
type Resolver interface {
	Resolve(model string) (Invoker, bool)
}

// Options bound a run. Zero fields fall back to the defaults below.
type Options struct {
	Timeout     time.Duration
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 2
	DefaultBaseBackoff = 1 * time.Second
	DefaultMaxBackoff  = 8 * time.Second
)

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = DefaultBaseBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = DefaultMaxBackoff
	}
	return o
}
