package extract

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestLLMStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.RecordCall(time.Duration(ms)*time.Millisecond, nil)
	}
	stats.RecordCall(0, errors.New("boom"))

	snap := stats.Snapshot()
	if snap.Count != 6 || snap.Failures != 1 {
		t.Fatalf("expected count=6 failures=1, got %d/%d", snap.Count, snap.Failures)
	}
	if snap.MinMs != 0 || snap.MaxMs != 500 {
		t.Fatalf("expected min=0 max=500, got %d/%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 250 {
		t.Fatalf("expected avg=250, got %f", snap.AvgMs)
	}
	if math.Abs(snap.P50Ms-250) > 1e-9 {
		t.Fatalf("expected p50=250, got %f", snap.P50Ms)
	}
	if math.Abs(snap.P95Ms-475) > 1e-6 {
		t.Fatalf("expected p95=475, got %f", snap.P95Ms)
	}
}

func TestLLMStatsPrunesExpiredSamples(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	stats := NewLLMStats(time.Minute)
	stats.now = func() time.Time { return now }

	stats.RecordCall(100*time.Millisecond, nil)
	now = now.Add(2 * time.Minute)
	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.RecordCall(200*time.Millisecond, nil)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestLLMStatsNilReceiverIgnoresCalls(t *testing.T) {
	var stats *LLMStats
	stats.RecordCall(time.Second, nil)
}
