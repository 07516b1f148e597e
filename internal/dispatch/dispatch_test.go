package dispatch

import (
	"context"
	"strings"
	"testing"

	"github.com/MatejGomboc/git-proxy-mcp/internal/audit"
	"github.com/MatejGomboc/git-proxy-mcp/internal/executor"
	"github.com/MatejGomboc/git-proxy-mcp/internal/guard"
	"github.com/MatejGomboc/git-proxy-mcp/internal/ratelimit"
	"github.com/MatejGomboc/git-proxy-mcp/internal/sanitize"
)

func newTestDispatcher() *Dispatcher {
	return New(
		ratelimit.Unlimited(),
		guard.DefaultBranchGuard(),
		guard.BlockForcePush(),
		guard.NewBlocklistRepoFilter(nil),
		executor.New(sanitize.New()),
		audit.Disabled(),
	)
}

func TestDispatchDeniedFlag(t *testing.T) {
	d := newTestDispatcher()
	result := d.Dispatch(context.Background(), Request{
		Command: "clone",
		Args:    []string{"--upload-pack=/bin/sh", "https://x/y.git"},
	})
	if !result.IsError {
		t.Fatal("expected IsError true")
	}
	want := "Invalid command: dangerous flag '--upload-pack=/bin/sh' is not allowed"
	if result.Text != want {
		t.Fatalf("got %q, want %q", result.Text, want)
	}
}

func TestDispatchForcePushToProtectedBranch(t *testing.T) {
	d := newTestDispatcher()
	result := d.Dispatch(context.Background(), Request{
		Command: "push",
		Args:    []string{"--force", "origin", "main"},
	})
	if !result.IsError {
		t.Fatal("expected IsError true")
	}
	if !strings.Contains(strings.ToLower(result.Text), "force push") {
		t.Fatalf("expected text to mention force push, got %q", result.Text)
	}
}

func TestDispatchRepoNotInAllowlist(t *testing.T) {
	d := New(
		ratelimit.Unlimited(),
		guard.DefaultBranchGuard(),
		guard.BlockForcePush(),
		guard.NewAllowlistRepoFilter([]string{"github.com/myorg/*"}, nil),
		executor.New(sanitize.New()),
		audit.Disabled(),
	)
	result := d.Dispatch(context.Background(), Request{
		Command: "clone",
		Args:    []string{"https://github.com/other/repo.git"},
	})
	if !result.IsError {
		t.Fatal("expected IsError true")
	}
	if !strings.Contains(result.Text, "not allowed by policy") {
		t.Fatalf("expected policy rejection text, got %q", result.Text)
	}
}

func TestDispatchRateLimitExhaustion(t *testing.T) {
	d := New(
		ratelimit.New(2, 0),
		guard.DefaultBranchGuard(),
		guard.BlockForcePush(),
		guard.NewBlocklistRepoFilter(nil),
		executor.New(sanitize.New()),
		audit.Disabled(),
	)

	// "status" is not in the allowed set, so each call is rejected by the
	// validator without ever spawning a subprocess — but the rate limiter
	// charges a token before validation runs (spec.md §4.7), so the burst
	// is still consumed by the first two calls.
	_ = d.Dispatch(context.Background(), Request{Command: "status"})
	_ = d.Dispatch(context.Background(), Request{Command: "status"})

	result := d.Dispatch(context.Background(), Request{Command: "status"})
	if !result.IsError {
		t.Fatal("expected IsError true on third call")
	}
	if !strings.Contains(strings.ToLower(result.Text), "rate limit") {
		t.Fatalf("expected rate limit message, got %q", result.Text)
	}
}

func TestFormatOutputEmptyProducesSuccessLine(t *testing.T) {
	out := &executor.Output{ExitCode: 0, Success: true}
	text := formatOutput(out, "fetch")
	if text != "Command 'git fetch' completed successfully." {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestFormatOutputIncludesStderrHeaderAndWarnings(t *testing.T) {
	out := &executor.Output{
		Stdout:   "ok",
		Stderr:   "warning: something",
		Warnings: []string{"Git LFS objects detected."},
	}
	text := formatOutput(out, "clone")
	if !strings.Contains(text, "--- stderr ---") {
		t.Fatalf("expected stderr header, got %q", text)
	}
	if !strings.Contains(text, "⚠️ Git LFS objects detected.") {
		t.Fatalf("expected warning line, got %q", text)
	}
}
