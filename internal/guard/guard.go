// Package guard implements the composite security policy applied to a
// validated Git command before it is executed: branch protection, the
// force-push block, and the repository allow/block filter.
package guard

import (
	"strings"

	"github.com/MatejGomboc/git-proxy-mcp/internal/gitcmd"
)

// Verdict is the result of a single guard's check.
type Verdict struct {
	Blocked bool
	Reason  string
}

// Allowed is the zero Verdict.
var Allowed = Verdict{}

// Blocked constructs a blocking verdict with the given reason.
func Blocked(reason string) Verdict {
	return Verdict{Blocked: true, Reason: reason}
}

// Guard is a pure predicate over a validated command.
type Guard interface {
	Check(spec *gitcmd.CommandSpec) Verdict
}

// hasForceIntent reports whether args carry force-push intent: -f, --force,
// --force-with-lease, or --force-with-lease=<expect>. Both BranchGuard and
// PushGuard use this single definition so they never disagree about what
// counts as "force" (the glossary's "Force intent" includes the = form
// unconditionally).
func hasForceIntent(args []string) bool {
	for _, a := range args {
		if a == "-f" || a == "--force" || a == "--force-with-lease" ||
			strings.HasPrefix(a, "--force-with-lease=") {
			return true
		}
	}
	return false
}

// firstNonFlag returns the first argument in args (starting at skip) that
// does not begin with '-'.
func firstNonFlag(args []string, skip int) (string, bool) {
	for i := skip; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "-") {
			return args[i], true
		}
	}
	return "", false
}

// pushTargetBranch infers the branch a push is targeting, for guard
// purposes: if any positional argument contains ':', the right-hand side
// (stripped of a leading '+') is the target; otherwise the second non-flag
// positional (the first being the remote name).
func pushTargetBranch(args []string) (string, bool) {
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		if idx := strings.Index(a, ":"); idx >= 0 {
			rhs := a[idx+1:]
			rhs = strings.TrimPrefix(rhs, "+")
			if rhs == "" {
				return "", false
			}
			return rhs, true
		}
	}

	seen := 0
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		seen++
		if seen == 2 {
			return a, true
		}
	}
	return "", false
}
