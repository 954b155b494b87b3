package orchestrator

// Reduce partitions settled per-model results into the summary. Pure and
// side-effect free; the coordinator stamps run ID, wall clock and timestamp
// on the returned value.
//
// Invariants: SuccessCount+FailureCount == TotalModels, every input result
// appears exactly once across Results and Failures, and OverallSuccess holds
// iff at least one backend produced output (partial success).
func Reduce(results []RetryResult) Summary {
	summary := Summary{
		TotalModels: len(results),
		Results:     make([]RetryResult, 0, len(results)),
		Failures:    make([]FailureDetail, 0),
	}
	for _, res := range results {
		if res.Succeeded {
			summary.Results = append(summary.Results, res)
			continue
		}
		summary.Failures = append(summary.Failures, FailureDetail{
			Model:        res.Model,
			ErrorClass:   res.FinalOutcome.ErrorClass,
			ErrorMessage: res.FinalOutcome.ErrorMessage,
			AttemptsMade: res.AttemptsMade,
		})
	}
	summary.SuccessCount = len(summary.Results)
	summary.FailureCount = len(summary.Failures)
	summary.OverallSuccess = summary.SuccessCount > 0
	return summary
}
