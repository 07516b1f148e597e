// Package audit implements the append-only JSON-lines audit log that
// records the outcome of every tool call the dispatcher handles.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType identifies the kind of audit event.
type EventType string

const (
	CommandExecuted   EventType = "command_executed"
	CommandBlocked    EventType = "command_blocked"
	RateLimitExceeded EventType = "rate_limit_exceeded"
	ServerStarted     EventType = "server_started"
	ServerStopped     EventType = "server_stopped"
)

// Outcome is the disposition of the underlying operation.
type Outcome string

const (
	Success Outcome = "success"
	Failed  Outcome = "failed"
	Blocked Outcome = "blocked"
)

// ShutdownReason explains why the server stopped.
type ShutdownReason string

const (
	ClientDisconnected ShutdownReason = "client_disconnected"
	SigInt             ShutdownReason = "sig_int"
	SigTerm            ShutdownReason = "sig_term"
)

// Event is an immutable audit record. Optional fields are omitted from the
// serialised form when zero-valued, matching spec.md's schema exactly.
type Event struct {
	Timestamp      string          `json:"timestamp"`
	EventType      EventType       `json:"event_type"`
	Subcommand     string          `json:"subcommand,omitempty"`
	Args           []string        `json:"args,omitempty"`
	Cwd            string          `json:"cwd,omitempty"`
	Outcome        Outcome         `json:"outcome"`
	Reason         string          `json:"reason,omitempty"`
	DurationMs     *int64          `json:"duration_ms,omitempty"`
	ExitCode       *int            `json:"exit_code,omitempty"`
	ShutdownReason ShutdownReason  `json:"shutdown_reason,omitempty"`
}

func newEvent(eventType EventType, outcome Outcome) Event {
	return Event{Timestamp: formatTimestamp(time.Now()), EventType: eventType, Outcome: outcome}
}

// CommandExecutedEvent records a command that ran to completion (exit code
// may still be nonzero: that is Outcome Failed, not an audit failure).
func CommandExecutedEvent(subcommand string, args []string, cwd string, duration time.Duration, exitCode int) Event {
	e := newEvent(CommandExecuted, Success)
	if exitCode != 0 {
		e.Outcome = Failed
	}
	e.Subcommand = subcommand
	e.Args = args
	e.Cwd = cwd
	ms := duration.Milliseconds()
	e.DurationMs = &ms
	e.ExitCode = &exitCode
	return e
}

// CommandExecutionFailedEvent records an executor-layer failure (timeout,
// spawn failure, bad working directory) that never produced a CommandOutput
// at all. Per spec.md §7 this is audited as outcome=failed, exit_code=-1.
func CommandExecutionFailedEvent(subcommand string, args []string, cwd string, duration time.Duration) Event {
	e := newEvent(CommandExecuted, Failed)
	e.Subcommand = subcommand
	e.Args = args
	e.Cwd = cwd
	ms := duration.Milliseconds()
	e.DurationMs = &ms
	exitCode := -1
	e.ExitCode = &exitCode
	return e
}

// CommandBlockedEvent records a command rejected by validation or a guard.
func CommandBlockedEvent(subcommand string, args []string, cwd, reason string) Event {
	e := newEvent(CommandBlocked, Blocked)
	e.Subcommand = subcommand
	e.Args = args
	e.Cwd = cwd
	e.Reason = reason
	return e
}

// RateLimitExceededEvent records a call refused by the rate limiter.
func RateLimitExceededEvent(subcommand string, args []string, cwd string) Event {
	e := newEvent(RateLimitExceeded, Blocked)
	e.Subcommand = subcommand
	e.Args = args
	e.Cwd = cwd
	e.Reason = "Rate limit exceeded"
	return e
}

// ServerStartedEvent records process start.
func ServerStartedEvent() Event {
	return newEvent(ServerStarted, Success)
}

// ServerStoppedEvent records clean shutdown, tagged with the reason.
func ServerStoppedEvent(reason ShutdownReason) Event {
	e := newEvent(ServerStopped, Success)
	e.ShutdownReason = reason
	return e
}

// Logger appends Events as JSON lines to a file, one critical section per
// write. The zero value is not usable; construct with New or Disabled.
type Logger struct {
	mu      sync.Mutex
	file    *os.File
	enabled bool
}

// New opens (creating if necessary) the audit log at path, creating parent
// directories as needed, for append-only writing.
func New(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create audit log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &Logger{file: f, enabled: true}, nil
}

// Disabled returns a Logger that discards every event. Used when no audit
// log path is configured.
func Disabled() *Logger {
	return &Logger{enabled: false}
}

// Enabled reports whether this Logger actually writes events.
func (l *Logger) Enabled() bool { return l.enabled }

// Log appends event as one JSON line, flushing immediately.
func (l *Logger) Log(event Event) error {
	if !l.enabled {
		return nil
	}
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return l.file.Sync()
}

// LogSilent logs event, discarding any error: callers on the hot path
// prefer losing a log line to failing a user-visible tool call.
func (l *Logger) LogSilent(event Event) {
	_ = l.Log(event)
}

// Close releases the underlying file handle, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
