package reporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chorus/internal/logger"
	"chorus/internal/orchestrator"
	"chorus/internal/pkg/jsonutil"
)

// Reporter consumes finished summaries: it logs a human-readable block and,
// when a directory is configured, persists each summary as pretty JSON. It
// only ever reads the summary and never fails the run; write errors are
// logged and swallowed.
type Reporter struct {
	dir string
}

// New returns a reporter writing to dir; empty dir disables persistence.
func New(dir string) *Reporter {
	return &Reporter{dir: strings.TrimSpace(dir)}
}

func (r *Reporter) Report(summary orchestrator.Summary) {
	logger.InfoBlock(renderSummary(summary))
	if r.dir == "" {
		return
	}
	path, err := r.persist(summary)
	if err != nil {
		logger.Errorf("persisting summary failed run=%s: %v", summary.RunID, err)
		return
	}
	logger.Infof("summary written: %s", path)
}

func (r *Reporter) persist(summary orchestrator.Summary) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", err
	}
	buf, err := jsonutil.MarshalPretty(summary)
	if err != nil {
		return "", err
	}
	path := filepath.Join(r.dir, fmt.Sprintf("run-%s.json", summary.RunID))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func renderSummary(s orchestrator.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %s (%d/%d models succeeded, %dms)\n",
		s.RunID, verdict(s.OverallSuccess), s.SuccessCount, s.TotalModels, s.WallClockDurationMs)
	for _, res := range s.Results {
		fmt.Fprintf(&b, "  ok   %-20s attempts=%d duration=%dms\n",
			res.Model, res.AttemptsMade, res.TotalDurationMs)
	}
	for _, f := range s.Failures {
		fmt.Fprintf(&b, "  fail %-20s attempts=%d class=%s: %s\n",
			f.Model, f.AttemptsMade, f.ErrorClass, f.ErrorMessage)
	}
	return b.String()
}

func verdict(ok bool) string {
	if ok {
		return "SUCCESS"
	}
	return "FAILURE"
}
