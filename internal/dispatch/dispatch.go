// Package dispatch composes the validator, guards, rate limiter, executor,
// and audit log into the single pipeline that answers a `git` tool call:
// rate-check → validate → guards → execute → audit → respond.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/MatejGomboc/git-proxy-mcp/internal/audit"
	"github.com/MatejGomboc/git-proxy-mcp/internal/executor"
	"github.com/MatejGomboc/git-proxy-mcp/internal/gitcmd"
	"github.com/MatejGomboc/git-proxy-mcp/internal/guard"
	"github.com/MatejGomboc/git-proxy-mcp/internal/ratelimit"
	"github.com/MatejGomboc/git-proxy-mcp/internal/telemetry"
)

// Request is the decoded `git` tool call.
type Request struct {
	Command string
	Args    []string
	Cwd     string
}

// Result is the outcome handed back to the MCP tool layer: Text is the
// formatted response body; IsError marks whether the call should be
// reported as an MCP tool error.
type Result struct {
	Text    string
	IsError bool
}

// Dispatcher is the single, shared pipeline every `git` tool call goes
// through. All fields are read-mostly or internally synchronised, so one
// Dispatcher is safe to reuse across calls.
type Dispatcher struct {
	RateLimiter *ratelimit.Limiter
	Guards      []guard.Guard
	Executor    *executor.Executor
	Audit       *audit.Logger

	// now is overridable in tests; defaults to time.Now.
	now func() time.Time
}

// New constructs a Dispatcher with the fixed guard order: BranchGuard,
// PushGuard, RepoFilter. Ordering is load-bearing (see spec.md §4.7) and is
// not configurable by callers.
func New(limiter *ratelimit.Limiter, branch *guard.BranchGuard, push *guard.PushGuard, repo *guard.RepoFilter, exec *executor.Executor, auditLog *audit.Logger) *Dispatcher {
	return &Dispatcher{
		RateLimiter: limiter,
		Guards:      []guard.Guard{branch, push, repo},
		Executor:    exec,
		Audit:       auditLog,
		now:         time.Now,
	}
}

// Dispatch runs the full pipeline for one tool call.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Result {
	start := d.now()

	ctx, endSpan := telemetry.StartToolSpan(ctx, req.Command)
	var span struct {
		outcome  string
		exitCode int
	}
	span.exitCode = -1
	defer func() { endSpan(span.outcome, span.exitCode) }()

	if !d.RateLimiter.TryAcquire() {
		d.Audit.LogSilent(audit.RateLimitExceededEvent(req.Command, req.Args, req.Cwd))
		span.outcome = "rate_limited"
		return Result{
			Text:    "Rate limit exceeded. Please wait before sending more Git commands.",
			IsError: true,
		}
	}

	spec, err := gitcmd.Build(req.Command, req.Args, req.Cwd)
	if err != nil {
		d.Audit.LogSilent(audit.CommandBlockedEvent(req.Command, req.Args, req.Cwd, err.Error()))
		span.outcome = "blocked"
		return Result{Text: fmt.Sprintf("Invalid command: %s", err.Error()), IsError: true}
	}

	for _, g := range d.Guards {
		verdict := g.Check(spec)
		if verdict.Blocked {
			d.Audit.LogSilent(audit.CommandBlockedEvent(req.Command, req.Args, req.Cwd, verdict.Reason))
			span.outcome = "blocked"
			return Result{Text: verdict.Reason, IsError: true}
		}
	}

	out, err := d.Executor.Execute(ctx, spec)
	if err != nil {
		duration := d.now().Sub(start)
		d.Audit.LogSilent(audit.CommandExecutionFailedEvent(req.Command, req.Args, req.Cwd, duration))
		span.outcome = "failed"
		return Result{Text: fmt.Sprintf("Execution failed: %s", err.Error()), IsError: true}
	}

	duration := d.now().Sub(start)
	d.Audit.LogSilent(audit.CommandExecutedEvent(req.Command, req.Args, req.Cwd, duration, out.ExitCode))
	span.exitCode = out.ExitCode

	text := formatOutput(out, req.Command)
	if out.Success {
		span.outcome = "success"
		return Result{Text: text, IsError: false}
	}
	span.outcome = "failed"
	return Result{Text: fmt.Sprintf("Command failed with exit code %d:\n%s", out.ExitCode, text), IsError: true}
}

// formatOutput renders a CommandOutput into the MCP content text: stdout,
// then (if present) a stderr section, then any warnings, falling back to a
// synthesised success line if everything is empty.
func formatOutput(out *executor.Output, command string) string {
	var text string

	if out.Stdout != "" {
		text += out.Stdout
	}

	if out.Stderr != "" {
		if text != "" {
			text += "\n\n--- stderr ---\n"
		}
		text += out.Stderr
	}

	for _, warning := range out.Warnings {
		text += "\n\n⚠️ " + warning
	}

	if text == "" {
		text = fmt.Sprintf("Command 'git %s' completed successfully.", command)
	}

	return text
}
