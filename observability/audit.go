package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/victoralfred/gowritter/safepath"

	"github.com/victoralfred/gospawn/executor"
)

// AuditLogger provides immutable audit logging.
type AuditLogger interface {
	// Log logs an audit event.
	Log(ctx context.Context, event *AuditEvent) error

	// Query queries audit events.
	Query(ctx context.Context, filter *AuditFilter) ([]*AuditEvent, error)

	// Close closes the audit logger.
	Close() error
}

// AuditEvent represents an audit log entry.
type AuditEvent struct {
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	ID         string            `json:"id"`
	WorkingDir string            `json:"working_dir,omitempty"`
	Status     string            `json:"status,omitempty"`
	Program    string            `json:"program"`
	Error      string            `json:"error,omitempty"`
	Output     string            `json:"output,omitempty"`
	Type       AuditEventType    `json:"type"`
	Args       []string          `json:"args"`
	Pid        int               `json:"pid,omitempty"`
	Duration   time.Duration     `json:"duration,omitempty"`
	ExitCode   int               `json:"exit_code"`
	Signal     int               `json:"signal,omitempty"`
}

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	// AuditEventSpawn records a subprocess launch.
	AuditEventSpawn AuditEventType = "spawn"

	// AuditEventExit records a subprocess reaching its final status.
	AuditEventExit AuditEventType = "exit"

	// AuditEventRateLimited is a rate limiting event.
	AuditEventRateLimited AuditEventType = "rate_limited"

	// AuditEventError is an error event.
	AuditEventError AuditEventType = "error"
)

// AuditFilter filters audit events.
type AuditFilter struct {
	// StartTime is the start of the time range.
	StartTime time.Time

	// EndTime is the end of the time range.
	EndTime time.Time

	// Program filters by program.
	Program string

	// Type filters by event type.
	Type AuditEventType

	// Status filters by status.
	Status string

	// Limit is the maximum number of events to return.
	Limit int
}

func (f *AuditFilter) matches(event *AuditEvent) bool {
	if f == nil {
		return true
	}
	if !f.StartTime.IsZero() && event.Timestamp.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && event.Timestamp.After(f.EndTime) {
		return false
	}
	if f.Program != "" && event.Program != f.Program {
		return false
	}
	if f.Type != "" && event.Type != f.Type {
		return false
	}
	if f.Status != "" && event.Status != f.Status {
		return false
	}
	return true
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	LogLevel      AuditLogLevel `yaml:"log_level"`
	BasePath      string        `yaml:"base_path"`
	FilePath      string        `yaml:"file_path"`
	MaxOutputSize int           `yaml:"max_output_size"`
	Enabled       bool          `yaml:"enabled"`
	IncludeOutput bool          `yaml:"include_output"`
}

// AuditLogLevel determines what events to log.
type AuditLogLevel string

const (
	// AuditLogAll logs all events.
	AuditLogAll AuditLogLevel = "all"

	// AuditLogFailures logs only failures.
	AuditLogFailures AuditLogLevel = "failures"
)

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:       true,
		LogLevel:      AuditLogAll,
		IncludeOutput: false,
		MaxOutputSize: 1024,
		BasePath:      "/var/log",
		FilePath:      "gospawn/audit.log",
	}
}

// fileAuditLogger implements AuditLogger using gowritter.
type fileAuditLogger struct {
	safePath *safepath.SafePath
	config   AuditConfig
	mu       sync.Mutex
}

// NewFileAuditLogger creates a new file-based audit logger.
func NewFileAuditLogger(config AuditConfig) (AuditLogger, error) {
	sp, err := safepath.New(config.BasePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	return &fileAuditLogger{
		config:   config,
		safePath: sp,
	}, nil
}

// Log implements AuditLogger.Log.
func (l *fileAuditLogger) Log(ctx context.Context, event *AuditEvent) error {
	if !l.config.Enabled {
		return nil
	}
	if !l.shouldLog(event) {
		return nil
	}

	if !l.config.IncludeOutput {
		event.Output = ""
	} else if len(event.Output) > l.config.MaxOutputSize {
		event.Output = event.Output[:l.config.MaxOutputSize] + "...(truncated)"
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.safePath.AppendFile(l.config.FilePath, data, 0o644); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}

	return nil
}

// Query implements AuditLogger.Query.
func (l *fileAuditLogger) Query(ctx context.Context, filter *AuditFilter) ([]*AuditEvent, error) {
	l.mu.Lock()
	data, err := l.safePath.ReadFile(l.config.FilePath)
	l.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	var events []*AuditEvent
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var event AuditEvent
		if err := json.Unmarshal(line, &event); err != nil {
			// A torn final line from a crashed writer is not worth
			// failing the whole query over.
			continue
		}
		if !filter.matches(&event) {
			continue
		}
		events = append(events, &event)
		if filter != nil && filter.Limit > 0 && len(events) >= filter.Limit {
			break
		}
	}

	return events, nil
}

// Close implements AuditLogger.Close.
func (l *fileAuditLogger) Close() error {
	return nil
}

func (l *fileAuditLogger) shouldLog(event *AuditEvent) bool {
	switch l.config.LogLevel {
	case AuditLogAll:
		return true
	case AuditLogFailures:
		return event.Status != "" && event.Status != "success"
	default:
		return true
	}
}

// ExecutionAuditor adapts an AuditLogger to the executor's Auditor
// interface, turning spawn and exit callbacks into audit events.
type ExecutionAuditor struct {
	logger AuditLogger
}

// NewExecutionAuditor creates an auditor writing to logger.
func NewExecutionAuditor(logger AuditLogger) *ExecutionAuditor {
	return &ExecutionAuditor{logger: logger}
}

// RecordSpawn implements executor.Auditor.
func (a *ExecutionAuditor) RecordSpawn(ctx context.Context, spawnID string, cmd *executor.Command, pid int) {
	a.logger.Log(ctx, &AuditEvent{
		ID:         spawnID,
		Timestamp:  time.Now(),
		Type:       AuditEventSpawn,
		Program:    cmd.Program,
		Args:       cmd.Args,
		WorkingDir: cmd.WorkingDir,
		Pid:        pid,
		Metadata:   cmd.Metadata,
	})
}

// RecordExit implements executor.Auditor.
func (a *ExecutionAuditor) RecordExit(ctx context.Context, spawnID string, result *executor.Result) {
	event := &AuditEvent{
		ID:        spawnID,
		Timestamp: time.Now(),
		Type:      AuditEventExit,
		Program:   result.Program,
		Pid:       result.Pid,
		Status:    result.Status.String(),
		ExitCode:  result.Exit.Code,
		Signal:    int(result.Exit.Signal),
		Duration:  result.Duration,
		Output:    result.StdoutString(),
	}
	switch result.Status {
	case executor.StatusRateLimited:
		event.Type = AuditEventRateLimited
	case executor.StatusLaunchFailed:
		event.Type = AuditEventError
	}
	a.logger.Log(ctx, event)
}

// NoopAuditLogger returns a no-op audit logger.
func NoopAuditLogger() AuditLogger {
	return &noopAuditLogger{}
}

type noopAuditLogger struct{}

func (l *noopAuditLogger) Log(ctx context.Context, event *AuditEvent) error { return nil }
func (l *noopAuditLogger) Query(ctx context.Context, filter *AuditFilter) ([]*AuditEvent, error) {
	return nil, nil
}
func (l *noopAuditLogger) Close() error { return nil }
