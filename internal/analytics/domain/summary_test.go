package analytics

import (
	"testing"
	"time"

	telemetry "genset-cloud/internal/telemetry/domain"
)

func TestSummarize(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	records := []telemetry.Snapshot{
		runningAt(base, 1000),
		runningAt(base.Add(5*time.Second), 3000),
		runningAt(base.Add(10*time.Second), 2000),
	}

	summaries := Summarize(records)
	byName := make(map[string]ParameterSummary, len(summaries))
	for _, s := range summaries {
		byName[s.Parameter] = s
	}

	rpm := byName["rpm"]
	if rpm.Min != 1000 || rpm.Max != 3000 || rpm.Avg != 2000 || rpm.Latest != 2000 || rpm.Count != 3 {
		t.Fatalf("unexpected rpm summary %+v", rpm)
	}
	if len(summaries) != len(telemetry.ParameterNames()) {
		t.Fatalf("expected a summary per parameter, got %d", len(summaries))
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summaries := Summarize(nil)
	for _, s := range summaries {
		if s.Count != 0 || s.Avg != 0 {
			t.Fatalf("expected zero summary, got %+v", s)
		}
	}
}
