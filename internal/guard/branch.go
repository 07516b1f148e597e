package guard

import (
	"fmt"
	"strings"

	"github.com/MatejGomboc/git-proxy-mcp/internal/gitcmd"
)

// BranchGuard blocks force pushes and branch deletions that target a
// protected branch.
type BranchGuard struct {
	protected map[string]bool
	wildcards []string // patterns ending in '*', stored without the '*'
}

// NewBranchGuard constructs a BranchGuard protecting exactly the given
// patterns. A pattern ending in '*' matches any branch with that prefix.
func NewBranchGuard(patterns []string) *BranchGuard {
	g := &BranchGuard{protected: map[string]bool{}}
	for _, p := range patterns {
		if strings.HasSuffix(p, "*") {
			g.wildcards = append(g.wildcards, strings.TrimSuffix(p, "*"))
		} else {
			g.protected[p] = true
		}
	}
	return g
}

// DefaultBranchGuard protects main, master, and develop.
func DefaultBranchGuard() *BranchGuard {
	return NewBranchGuard([]string{"main", "master", "develop"})
}

// IsProtected reports whether branch matches a protected pattern.
func (g *BranchGuard) IsProtected(branch string) bool {
	if g.protected[branch] {
		return true
	}
	for _, prefix := range g.wildcards {
		if strings.HasPrefix(branch, prefix) {
			return true
		}
	}
	return false
}

// Check implements Guard.
func (g *BranchGuard) Check(spec *gitcmd.CommandSpec) Verdict {
	switch spec.Subcommand() {
	case "push":
		if !hasForceIntent(spec.Args()) {
			return Allowed
		}
		branch, ok := pushTargetBranch(spec.Args())
		if !ok {
			return Allowed
		}
		if g.IsProtected(branch) {
			return Blocked(fmt.Sprintf("force push to protected branch %q is not allowed", branch))
		}
	case "branch":
		if !hasDeleteIntent(spec.Args()) {
			return Allowed
		}
		target, ok := firstNonFlag(spec.Args(), 0)
		if !ok {
			return Allowed
		}
		if g.IsProtected(target) {
			return Blocked(fmt.Sprintf("deleting protected branch %q is not allowed", target))
		}
	}
	return Allowed
}

func hasDeleteIntent(args []string) bool {
	for _, a := range args {
		if a == "-d" || a == "-D" || a == "--delete" || strings.HasPrefix(a, "--delete=") {
			return true
		}
	}
	return false
}
