package observability

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/victoralfred/gospawn/executor"
)

// Metrics provides in-process spawn statistics.
type Metrics struct {
	programStats    map[string]*ProgramStats
	totalDuration   int64
	minDuration     int64
	timeoutRuns     int64
	rateLimited     int64
	launchFailures  int64
	signaledRuns    int64
	failedRuns      int64
	durationCount   int64
	totalSpawns     int64
	maxDuration     int64
	successfulRuns  int64
	mu              sync.RWMutex
}

// ProgramStats contains per-program statistics.
type ProgramStats struct {
	LastSpawnAt    time.Time
	Program        string
	LastStatus     string
	TotalSpawns    int64
	SuccessfulRuns int64
	FailedRuns     int64
	TotalDuration  int64
	AvgDuration    int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		programStats: make(map[string]*ProgramStats),
		minDuration:  -1,
	}
}

// RecordExecution records an execution result.
func (m *Metrics) RecordExecution(cmd *executor.Command, result *executor.Result, err error) {
	atomic.AddInt64(&m.totalSpawns, 1)

	switch result.Status {
	case executor.StatusSuccess:
		atomic.AddInt64(&m.successfulRuns, 1)
	case executor.StatusTimeout:
		atomic.AddInt64(&m.timeoutRuns, 1)
		atomic.AddInt64(&m.failedRuns, 1)
	case executor.StatusRateLimited:
		atomic.AddInt64(&m.rateLimited, 1)
		atomic.AddInt64(&m.failedRuns, 1)
	case executor.StatusLaunchFailed:
		atomic.AddInt64(&m.launchFailures, 1)
		atomic.AddInt64(&m.failedRuns, 1)
	case executor.StatusSignaled:
		atomic.AddInt64(&m.signaledRuns, 1)
		atomic.AddInt64(&m.failedRuns, 1)
	default:
		if err != nil || result.Exit.Code != 0 {
			atomic.AddInt64(&m.failedRuns, 1)
		} else {
			atomic.AddInt64(&m.successfulRuns, 1)
		}
	}

	duration := result.Duration.Nanoseconds()
	atomic.AddInt64(&m.totalDuration, duration)
	atomic.AddInt64(&m.durationCount, 1)

	for {
		old := atomic.LoadInt64(&m.minDuration)
		if old >= 0 && duration >= old {
			break
		}
		if atomic.CompareAndSwapInt64(&m.minDuration, old, duration) {
			break
		}
	}

	for {
		old := atomic.LoadInt64(&m.maxDuration)
		if duration <= old {
			break
		}
		if atomic.CompareAndSwapInt64(&m.maxDuration, old, duration) {
			break
		}
	}

	m.updateProgramStats(cmd.Program, result)
}

func (m *Metrics) updateProgramStats(program string, result *executor.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.programStats[program]
	if !ok {
		stats = &ProgramStats{Program: program}
		m.programStats[program] = stats
	}

	stats.TotalSpawns++
	stats.TotalDuration += result.Duration.Nanoseconds()
	stats.AvgDuration = stats.TotalDuration / stats.TotalSpawns
	stats.LastSpawnAt = time.Now()
	stats.LastStatus = result.Status.String()

	if result.Status == executor.StatusSuccess {
		stats.SuccessfulRuns++
	} else {
		stats.FailedRuns++
	}
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalSpawns:    atomic.LoadInt64(&m.totalSpawns),
		SuccessfulRuns: atomic.LoadInt64(&m.successfulRuns),
		FailedRuns:     atomic.LoadInt64(&m.failedRuns),
		TimeoutRuns:    atomic.LoadInt64(&m.timeoutRuns),
		RateLimited:    atomic.LoadInt64(&m.rateLimited),
		LaunchFailures: atomic.LoadInt64(&m.launchFailures),
		SignaledRuns:   atomic.LoadInt64(&m.signaledRuns),
		AvgDuration:    m.avgDuration(),
		MinDuration:    time.Duration(atomic.LoadInt64(&m.minDuration)),
		MaxDuration:    time.Duration(atomic.LoadInt64(&m.maxDuration)),
		ProgramStats:   m.getProgramStats(),
	}
}

// MetricsSnapshot is a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	ProgramStats   map[string]*ProgramStats
	RateLimited    int64
	FailedRuns     int64
	TimeoutRuns    int64
	LaunchFailures int64
	SignaledRuns   int64
	TotalSpawns    int64
	AvgDuration    time.Duration
	MinDuration    time.Duration
	MaxDuration    time.Duration
	SuccessfulRuns int64
}

// SuccessRate returns the success rate as a percentage.
func (s MetricsSnapshot) SuccessRate() float64 {
	if s.TotalSpawns == 0 {
		return 0
	}
	return float64(s.SuccessfulRuns) / float64(s.TotalSpawns) * 100
}

// ErrorRate returns the error rate as a percentage.
func (s MetricsSnapshot) ErrorRate() float64 {
	if s.TotalSpawns == 0 {
		return 0
	}
	return float64(s.FailedRuns) / float64(s.TotalSpawns) * 100
}

func (m *Metrics) avgDuration() time.Duration {
	count := atomic.LoadInt64(&m.durationCount)
	if count == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.totalDuration) / count)
}

func (m *Metrics) getProgramStats() map[string]*ProgramStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*ProgramStats, len(m.programStats))
	for k, v := range m.programStats {
		copied := *v
		result[k] = &copied
	}
	return result
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.totalSpawns, 0)
	atomic.StoreInt64(&m.successfulRuns, 0)
	atomic.StoreInt64(&m.failedRuns, 0)
	atomic.StoreInt64(&m.timeoutRuns, 0)
	atomic.StoreInt64(&m.rateLimited, 0)
	atomic.StoreInt64(&m.launchFailures, 0)
	atomic.StoreInt64(&m.signaledRuns, 0)
	atomic.StoreInt64(&m.totalDuration, 0)
	atomic.StoreInt64(&m.durationCount, 0)
	atomic.StoreInt64(&m.minDuration, -1)
	atomic.StoreInt64(&m.maxDuration, 0)

	m.mu.Lock()
	m.programStats = make(map[string]*ProgramStats)
	m.mu.Unlock()
}
