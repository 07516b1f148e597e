package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTimestampFormat(t *testing.T) {
	ts := formatTimestamp(time.Date(2024, 1, 15, 12, 30, 45, 123_000_000, time.UTC))
	want := "2024-01-15T12:30:45.123Z"
	if ts != want {
		t.Fatalf("got %q, want %q", ts, want)
	}
	if len(ts) != 24 {
		t.Fatalf("expected length 24, got %d (%q)", len(ts), ts)
	}
}

func TestLeapYearDetection(t *testing.T) {
	cases := map[int]bool{2000: true, 1900: false, 2024: true, 2023: false}
	for year, want := range cases {
		if got := isLeapYear(year); got != want {
			t.Fatalf("isLeapYear(%d) = %v, want %v", year, got, want)
		}
	}
}

func TestDaysToYMDKnownDate(t *testing.T) {
	// 2024-03-01 is day 19783 since epoch (2024 is a leap year, so Feb has 29 days).
	year, month, day := daysToYMD(19783)
	if year != 2024 || month != 3 || day != 1 {
		t.Fatalf("got %04d-%02d-%02d, want 2024-03-01", year, month, day)
	}
}

func TestCommandExecutedEventOutcome(t *testing.T) {
	e := CommandExecutedEvent("clone", []string{"https://x/y.git"}, "", time.Second, 0)
	if e.Outcome != Success {
		t.Fatalf("expected success outcome, got %s", e.Outcome)
	}
	e = CommandExecutedEvent("push", nil, "", time.Second, 1)
	if e.Outcome != Failed {
		t.Fatalf("expected failed outcome, got %s", e.Outcome)
	}
	if *e.ExitCode != 1 {
		t.Fatalf("expected exit code 1, got %d", *e.ExitCode)
	}
}

func TestCommandExecutionFailedEventUsesExitCodeMinusOne(t *testing.T) {
	e := CommandExecutionFailedEvent("clone", nil, "", time.Second)
	if e.Outcome != Failed {
		t.Fatalf("expected failed outcome, got %s", e.Outcome)
	}
	if *e.ExitCode != -1 {
		t.Fatalf("expected exit code -1, got %d", *e.ExitCode)
	}
}

func TestEventSerialisationOmitsAbsentFields(t *testing.T) {
	e := ServerStartedEvent()
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, absent := range []string{"subcommand", "args", "cwd", "reason", "duration_ms", "exit_code", "shutdown_reason"} {
		if _, ok := m[absent]; ok {
			t.Fatalf("expected %q to be absent, got %v", absent, m[absent])
		}
	}
}

func TestShutdownReasonSerialisation(t *testing.T) {
	e := ServerStoppedEvent(SigInt)
	data, _ := json.Marshal(e)
	if !strings.Contains(string(data), `"shutdown_reason":"sig_int"`) {
		t.Fatalf("expected shutdown_reason sig_int in %s", data)
	}
}

func TestLoggerWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "audit.jsonl")

	logger, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer logger.Close()

	if err := logger.Log(ServerStartedEvent()); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := logger.Log(CommandBlockedEvent("push", []string{"--force"}, "", "force push blocked")); err != nil {
		t.Fatalf("Log: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"event_type":"server_started"`) {
		t.Fatalf("missing server_started event in %s", data)
	}
	if !strings.Contains(string(data), `"event_type":"command_blocked"`) {
		t.Fatalf("missing command_blocked event in %s", data)
	}
}

func TestDisabledLoggerIsNoOp(t *testing.T) {
	logger := Disabled()
	if logger.Enabled() {
		t.Fatal("expected disabled logger")
	}
	if err := logger.Log(ServerStartedEvent()); err != nil {
		t.Fatalf("expected no error from disabled logger, got %v", err)
	}
}
