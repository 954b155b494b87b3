package orchestrator

import (
	"context"
	"time"

	"chorus/internal/logger"
)

// backoffFor computes the sleep before attempt index i (1-based for the first
// retry): base doubled per retry, capped.
func backoffFor(attempt int, base, max time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := base << (attempt - 1)
	if d <= 0 || d > max {
		return max
	}
	return d
}

// runWithRetry drives one model's attempt loop. Attempt indices run
// 0..MaxRetries inclusive; a non-retryable failure aborts the loop without
// consuming the remaining budget, and on exhaustion the last failure is
// retained as the final outcome. Total duration includes backoff sleeps.
func (o *Orchestrator) runWithRetry(ctx context.Context, inv Invoker, model, prompt string, opts Options) RetryResult {
	start := time.Now()
	var last Outcome
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := backoffFor(attempt, opts.BaseBackoff, opts.MaxBackoff)
			logger.Debugf("retry model=%s attempt=%d backoff=%s", model, attempt, wait)
			o.sleep(wait)
		}
		last = o.attempt(ctx, inv, model, prompt, opts.Timeout)
		logger.Debugf("attempt model=%s index=%d class=%s elapsed=%dms",
			model, attempt, outcomeClass(last), last.DurationMs)
		if last.Succeeded() {
			return RetryResult{
				Model:           model,
				Succeeded:       true,
				FinalOutcome:    last,
				AttemptsMade:    attempt + 1,
				TotalDurationMs: time.Since(start).Milliseconds(),
			}
		}
		if !last.ErrorClass.Retryable() {
			logger.Debugf("short-circuit model=%s class=%s", model, last.ErrorClass)
			return RetryResult{
				Model:           model,
				FinalOutcome:    last,
				AttemptsMade:    attempt + 1,
				TotalDurationMs: time.Since(start).Milliseconds(),
			}
		}
	}
	return RetryResult{
		Model:           model,
		FinalOutcome:    last,
		AttemptsMade:    opts.MaxRetries + 1,
		TotalDurationMs: time.Since(start).Milliseconds(),
	}
}

// attempt executes one bounded invocation. The timeout guard wraps the
// invoker so a backend that ignores its context still cannot run past the
// deadline unobserved; an expired context is reported as timeout_error.
func (o *Orchestrator) attempt(ctx context.Context, inv Invoker, model, prompt string, timeout time.Duration) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("invoker panic model=%s: %v", model, r)
			out = Failure(model, ErrorUnknown, panicMessage(r), time.Since(start))
		}
	}()
	attemptCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	out = inv.Invoke(attemptCtx, InvocationRequest{Model: model, Prompt: prompt, Timeout: timeout})
	if out.Model == "" {
		out.Model = model
	}
	if !out.Succeeded() && attemptCtx.Err() == context.DeadlineExceeded && out.ErrorClass == ErrorUnknown {
		out.ErrorClass = ErrorTimeout
	}
	return out
}

func outcomeClass(o Outcome) string {
	if o.Succeeded() {
		return "success"
	}
	return string(o.ErrorClass)
}
