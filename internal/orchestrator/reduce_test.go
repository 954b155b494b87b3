package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successResult(model string, attempts int) RetryResult {
	return RetryResult{
		Model:        model,
		Succeeded:    true,
		FinalOutcome: Success(model, "out", time.Millisecond, time.Now()),
		AttemptsMade: attempts,
	}
}

func failureResult(model string, class ErrorClass, attempts int) RetryResult {
	return RetryResult{
		Model:        model,
		FinalOutcome: Failure(model, class, "failed", time.Millisecond),
		AttemptsMade: attempts,
	}
}

func TestReducePartitionsAndCounts(t *testing.T) {
	summary := Reduce([]RetryResult{
		successResult("a", 1),
		failureResult("b", ErrorAuth, 1),
		successResult("c", 3),
		failureResult("d", ErrorTimeout, 3),
	})

	assert.Equal(t, 4, summary.TotalModels)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 2, summary.FailureCount)
	assert.Equal(t, summary.TotalModels, summary.SuccessCount+summary.FailureCount)
	assert.True(t, summary.OverallSuccess)

	require.Len(t, summary.Failures, 2)
	assert.Equal(t, "b", summary.Failures[0].Model)
	assert.Equal(t, ErrorAuth, summary.Failures[0].ErrorClass)
	assert.Equal(t, "failed", summary.Failures[0].ErrorMessage)
	assert.Equal(t, 1, summary.Failures[0].AttemptsMade)
}

func TestReducePartialSuccessPredicate(t *testing.T) {
	cases := []struct {
		name    string
		results []RetryResult
		want    bool
	}{
		{"all succeed", []RetryResult{successResult("a", 1), successResult("b", 1)}, true},
		{"one of three succeeds", []RetryResult{failureResult("a", ErrorTimeout, 2), successResult("modelB", 1), failureResult("c", ErrorRateLimit, 2)}, true},
		{"all fail", []RetryResult{failureResult("a", ErrorAuth, 1), failureResult("b", ErrorUnknown, 3)}, false},
		{"no results", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			summary := Reduce(tc.results)
			assert.Equal(t, tc.want, summary.OverallSuccess)
			assert.Equal(t, summary.SuccessCount > 0, summary.OverallSuccess)
		})
	}
}

func TestReduceKeepsDuplicateModelsSeparate(t *testing.T) {
	summary := Reduce([]RetryResult{
		successResult("twin", 1),
		failureResult("twin", ErrorRateLimit, 3),
	})
	assert.Equal(t, 2, summary.TotalModels)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailureCount)
}

func TestReduceIsIdempotent(t *testing.T) {
	in := []RetryResult{successResult("a", 1), failureResult("b", ErrorTimeout, 2)}
	first := Reduce(in)
	second := Reduce(in)
	assert.Equal(t, first, second)
}
