package stats

import (
	"sync/atomic"
	"time"

	"chorus/internal/orchestrator"
)

// Tracker accumulates orchestration counters across runs. All fields are
// atomics so every model task and HTTP handler may record concurrently.
type Tracker struct {
	runs           atomic.Int64
	runsSucceeded  atomic.Int64
	modelSuccesses atomic.Int64
	modelFailures  atomic.Int64
	lastRunUnixMs  atomic.Int64
}

func NewTracker() *Tracker { return &Tracker{} }

// RecordRun folds one finished summary into the counters.
func (t *Tracker) RecordRun(summary orchestrator.Summary) {
	t.runs.Add(1)
	if summary.OverallSuccess {
		t.runsSucceeded.Add(1)
	}
	t.modelSuccesses.Add(int64(summary.SuccessCount))
	t.modelFailures.Add(int64(summary.FailureCount))
	t.lastRunUnixMs.Store(time.Now().UnixMilli())
}

// Snapshot is a point-in-time copy of the counters, shaped for JSON.
type Snapshot struct {
	Runs           int64   `json:"runs"`
	RunsSucceeded  int64   `json:"runsSucceeded"`
	ModelSuccesses int64   `json:"modelSuccesses"`
	ModelFailures  int64   `json:"modelFailures"`
	SuccessRate    float64 `json:"successRate"`
	LastRunUTC     string  `json:"lastRunUTC,omitempty"`
}

func (t *Tracker) Snapshot() Snapshot {
	snap := Snapshot{
		Runs:           t.runs.Load(),
		RunsSucceeded:  t.runsSucceeded.Load(),
		ModelSuccesses: t.modelSuccesses.Load(),
		ModelFailures:  t.modelFailures.Load(),
	}
	if snap.Runs > 0 {
		snap.SuccessRate = float64(snap.RunsSucceeded) / float64(snap.Runs)
	}
	if ms := t.lastRunUnixMs.Load(); ms > 0 {
		snap.LastRunUTC = time.UnixMilli(ms).UTC().Format(time.RFC3339)
	}
	return snap
}
