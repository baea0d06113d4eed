package observability

import (
	"testing"
	"time"

	"github.com/victoralfred/gospawn/executor"
)

func record(m *Metrics, program string, status executor.RunStatus, d time.Duration) {
	cmd := executor.NewCommand(program).MustBuild()
	m.RecordExecution(cmd, &executor.Result{Status: status, Duration: d}, nil)
}

func TestMetricsRecordExecution(t *testing.T) {
	m := NewMetrics()

	record(m, "/bin/echo", executor.StatusSuccess, 10*time.Millisecond)
	record(m, "/bin/echo", executor.StatusError, 30*time.Millisecond)
	record(m, "/bin/sleep", executor.StatusTimeout, 20*time.Millisecond)

	snap := m.Snapshot()
	if snap.TotalSpawns != 3 {
		t.Errorf("TotalSpawns = %d, want 3", snap.TotalSpawns)
	}
	if snap.SuccessfulRuns != 1 {
		t.Errorf("SuccessfulRuns = %d, want 1", snap.SuccessfulRuns)
	}
	if snap.FailedRuns != 2 {
		t.Errorf("FailedRuns = %d, want 2", snap.FailedRuns)
	}
	if snap.TimeoutRuns != 1 {
		t.Errorf("TimeoutRuns = %d, want 1", snap.TimeoutRuns)
	}
	if snap.MinDuration != 10*time.Millisecond {
		t.Errorf("MinDuration = %v", snap.MinDuration)
	}
	if snap.MaxDuration != 30*time.Millisecond {
		t.Errorf("MaxDuration = %v", snap.MaxDuration)
	}
	if snap.AvgDuration != 20*time.Millisecond {
		t.Errorf("AvgDuration = %v", snap.AvgDuration)
	}
}

func TestMetricsProgramStats(t *testing.T) {
	m := NewMetrics()
	record(m, "/bin/echo", executor.StatusSuccess, 10*time.Millisecond)
	record(m, "/bin/echo", executor.StatusSignaled, 10*time.Millisecond)

	snap := m.Snapshot()
	stats, ok := snap.ProgramStats["/bin/echo"]
	if !ok {
		t.Fatal("missing program stats")
	}
	if stats.TotalSpawns != 2 || stats.SuccessfulRuns != 1 || stats.FailedRuns != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.LastStatus != "signaled" {
		t.Errorf("LastStatus = %q", stats.LastStatus)
	}

	// Snapshot returns copies; mutating them must not touch the source.
	stats.TotalSpawns = 99
	if m.Snapshot().ProgramStats["/bin/echo"].TotalSpawns != 2 {
		t.Error("snapshot shares stats with the collector")
	}
}

func TestMetricsRates(t *testing.T) {
	m := NewMetrics()
	record(m, "/bin/a", executor.StatusSuccess, time.Millisecond)
	record(m, "/bin/a", executor.StatusSuccess, time.Millisecond)
	record(m, "/bin/a", executor.StatusError, time.Millisecond)
	record(m, "/bin/a", executor.StatusLaunchFailed, time.Millisecond)

	snap := m.Snapshot()
	if got := snap.SuccessRate(); got != 50 {
		t.Errorf("SuccessRate = %v, want 50", got)
	}
	if got := snap.ErrorRate(); got != 50 {
		t.Errorf("ErrorRate = %v, want 50", got)
	}
	if snap.LaunchFailures != 1 {
		t.Errorf("LaunchFailures = %d", snap.LaunchFailures)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	record(m, "/bin/a", executor.StatusSuccess, time.Millisecond)
	m.Reset()

	snap := m.Snapshot()
	if snap.TotalSpawns != 0 || len(snap.ProgramStats) != 0 {
		t.Errorf("snapshot after Reset = %+v", snap)
	}
	if snap.SuccessRate() != 0 {
		t.Errorf("SuccessRate after Reset = %v", snap.SuccessRate())
	}
}
