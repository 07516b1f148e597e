// Package executor spawns the validated git subprocess and returns its
// sanitised, bounded output.
package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MatejGomboc/git-proxy-mcp/internal/gitcmd"
	"github.com/MatejGomboc/git-proxy-mcp/internal/sanitize"
)

// DefaultTimeout is the default deadline for a single git invocation.
const DefaultTimeout = 300 * time.Second

// DefaultMaxOutputBytes is the default combined stdout+stderr byte cap.
const DefaultMaxOutputBytes = 10 * 1024 * 1024

// lfsIndicators are substrings whose presence in sanitised output means the
// remote operation touched Git LFS, which this proxy does not fetch.
var lfsIndicators = []string{
	"git-lfs",
	"lfs.fetchinclude",
	"lfs.fetchexclude",
	"filter=lfs",
	"Downloading LFS",
	"LFS object",
	".gitattributes: filter=lfs",
}

// Output is the result of running a validated CommandSpec.
type Output struct {
	Stdout          string
	Stderr          string
	ExitCode        int
	Success         bool
	StdoutTruncated bool
	StderrTruncated bool
	Warnings        []string
}

// ErrorKind distinguishes the reason an Executor failed to produce an Output.
type ErrorKind int

const (
	// WorkingDirectoryError means cwd does not exist, is not a directory,
	// or cannot be enumerated.
	WorkingDirectoryError ErrorKind = iota
	// ProcessError means the child process failed to spawn.
	ProcessError
	// Timeout means the child did not exit within the configured deadline.
	Timeout
)

// Error is returned by Execute when no Output could be produced.
type Error struct {
	Kind    ErrorKind
	Message string
	Seconds float64
}

func (e *Error) Error() string {
	switch e.Kind {
	case WorkingDirectoryError:
		return fmt.Sprintf("working directory error: %s", e.Message)
	case Timeout:
		return fmt.Sprintf("command timed out after %g seconds", e.Seconds)
	default:
		return fmt.Sprintf("process error: %s", e.Message)
	}
}

// Executor runs validated git commands as subprocesses.
type Executor struct {
	sanitiser      *sanitize.Sanitiser
	timeout        time.Duration
	maxOutputBytes int
}

// New constructs an Executor with the default timeout and output cap.
func New(sanitiser *sanitize.Sanitiser) *Executor {
	return &Executor{
		sanitiser:      sanitiser,
		timeout:        DefaultTimeout,
		maxOutputBytes: DefaultMaxOutputBytes,
	}
}

// WithLimits constructs an Executor with a custom timeout and output cap.
func WithLimits(sanitiser *sanitize.Sanitiser, timeout time.Duration, maxOutputBytes int) *Executor {
	return &Executor{sanitiser: sanitiser, timeout: timeout, maxOutputBytes: maxOutputBytes}
}

// Execute runs spec as `git <subcommand> <args...>`, honouring ctx
// cancellation in addition to the executor's own timeout: if ctx is
// cancelled, the child is killed immediately rather than left to run to
// completion or to the timeout.
func (e *Executor) Execute(ctx context.Context, spec *gitcmd.CommandSpec) (*Output, error) {
	if dir := spec.Cwd(); dir != "" {
		if err := validateWorkingDir(dir); err != nil {
			return nil, err
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "git", spec.BuildArgs()...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Stdin = nil
	if dir := spec.Cwd(); dir != "" {
		cmd.Dir = dir
	}

	stdout, stderr, runErr := runCaptured(cmd)

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, &Error{Kind: Timeout, Seconds: e.timeout.Seconds()}
	}

	exitCode := 0
	if runErr != nil {
		exitErr, ok := runErr.(*exec.ExitError)
		if !ok {
			return nil, &Error{Kind: ProcessError, Message: runErr.Error()}
		}
		exitCode = exitErr.ExitCode()
	}

	sanitisedStdout := e.sanitiser.Sanitise(stdout)
	sanitisedStderr := e.sanitiser.Sanitise(stderr)

	finalStdout, stdoutTruncated := truncate(sanitisedStdout, e.maxOutputBytes)
	remaining := e.maxOutputBytes - len(finalStdout)
	if remaining < 0 {
		remaining = 0
	}
	finalStderr, stderrTruncated := truncate(sanitisedStderr, remaining)

	out := &Output{
		Stdout:          finalStdout,
		Stderr:          finalStderr,
		ExitCode:        exitCode,
		Success:         exitCode == 0,
		StdoutTruncated: stdoutTruncated,
		StderrTruncated: stderrTruncated,
	}

	if containsLFSIndicator(out.Stdout) || containsLFSIndicator(out.Stderr) {
		out.Warnings = append(out.Warnings, "Git LFS objects detected. LFS support is not "+
			"implemented by this proxy. Large files may not be downloaded correctly.")
	}

	return out, nil
}

func runCaptured(cmd *exec.Cmd) (stdout, stderr string, err error) {
	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

func validateWorkingDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return &Error{Kind: WorkingDirectoryError, Message: fmt.Sprintf("directory does not exist: %s", dir)}
	}
	if !info.IsDir() {
		return &Error{Kind: WorkingDirectoryError, Message: fmt.Sprintf("path is not a directory: %s", dir)}
	}
	if _, err := os.ReadDir(dir); err != nil {
		return &Error{Kind: WorkingDirectoryError, Message: fmt.Sprintf("cannot access directory: %s", dir)}
	}
	return nil
}

// truncate returns s cut to at most maxBytes, on a UTF-8 character
// boundary, plus whether truncation happened.
func truncate(s string, maxBytes int) (string, bool) {
	if maxBytes < 0 {
		maxBytes = 0
	}
	if len(s) <= maxBytes {
		return s, false
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}

func containsLFSIndicator(s string) bool {
	for _, indicator := range lfsIndicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}
