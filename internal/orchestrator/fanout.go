package orchestrator

import (
	"context"
	"fmt"
	"time"

	"chorus/internal/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Orchestrator fans one prompt out to every requested backend concurrently
// and reduces the settled results to a Summary. A sibling failure never
// cancels other models' retry loops.
type Orchestrator struct {
	resolver Resolver
	opts     Options
	sleep    func(time.Duration)
	now      func() time.Time
}

// Request describes one orchestration run. A zero Timeout falls back to the
// orchestrator's configured option. MaxRetries below zero means "use the
// configured default"; zero means exactly one attempt, no retry.
type Request struct {
	Prompt     string
	Models     []string
	Timeout    time.Duration
	MaxRetries int
}

func New(resolver Resolver, opts Options) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		opts:     opts.withDefaults(),
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// Run executes one orchestration. Repeated model names in the request are
// run independently and appear as independent entries in the summary; the
// caller owns any deduplication. Run always waits for every model task to
// settle and never returns an error: the only failure signal is
// OverallSuccess=false.
func (o *Orchestrator) Run(ctx context.Context, req Request) Summary {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := o.runOptions(req)
	runID := uuid.NewString()
	start := o.now()
	logger.Infof("orchestrate run=%s models=%d timeout=%s max_retries=%d",
		runID, len(req.Models), opts.Timeout, opts.MaxRetries)

	results := make([]RetryResult, len(req.Models))
	var eg errgroup.Group
	for i, model := range req.Models {
		i, model := i, model
		eg.Go(func() error {
			results[i] = o.runModel(ctx, model, req.Prompt, opts)
			return nil
		})
	}
	// Tasks never return errors, so Wait is purely a barrier.
	_ = eg.Wait()

	summary := Reduce(results)
	summary.RunID = runID
	summary.WallClockDurationMs = time.Since(start).Milliseconds()
	summary.TimestampUTC = o.now().UTC().Format(time.RFC3339)
	logger.Infof("orchestrate done run=%s ok=%t success=%d failure=%d elapsed=%dms",
		runID, summary.OverallSuccess, summary.SuccessCount, summary.FailureCount, summary.WallClockDurationMs)
	return summary
}

// runModel wraps one model's retry loop so that nothing escapes: a missing
// registry entry becomes a non-retryable not_found failure and a defect in
// the loop itself is converted into an unknown_error result.
func (o *Orchestrator) runModel(ctx context.Context, model, prompt string, opts Options) (res RetryResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("model task panic model=%s: %v", model, r)
			res = RetryResult{
				Model:        model,
				FinalOutcome: Failure(model, ErrorUnknown, panicMessage(r), 0),
				AttemptsMade: 1,
			}
		}
	}()
	inv, ok := o.resolver.Resolve(model)
	if !ok {
		logger.Warnf("no invoker registered for model %q", model)
		return RetryResult{
			Model:        model,
			FinalOutcome: Failure(model, ErrorNotFound, fmt.Sprintf("no invoker registered for model %q", model), 0),
			AttemptsMade: 1,
		}
	}
	return o.runWithRetry(ctx, inv, model, prompt, opts)
}

func (o *Orchestrator) runOptions(req Request) Options {
	opts := o.opts
	if req.Timeout > 0 {
		opts.Timeout = req.Timeout
	}
	if req.MaxRetries >= 0 {
		opts.MaxRetries = req.MaxRetries
	}
	return opts
}

func panicMessage(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", r)
}
