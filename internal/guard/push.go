package guard

import "github.com/MatejGomboc/git-proxy-mcp/internal/gitcmd"

// PushGuard blocks force pushes unless force push is globally allowed, or
// explicitly allowed for the target branch.
type PushGuard struct {
	allowForcePush bool
	allowedBranch  map[string]bool
}

// NewPushGuard constructs a PushGuard with the given global policy and
// per-branch allowlist.
func NewPushGuard(allowForcePush bool, allowedBranches []string) *PushGuard {
	m := map[string]bool{}
	for _, b := range allowedBranches {
		m[b] = true
	}
	return &PushGuard{allowForcePush: allowForcePush, allowedBranch: m}
}

// BlockForcePush constructs a PushGuard that blocks all force pushes.
func BlockForcePush() *PushGuard {
	return NewPushGuard(false, nil)
}

// AllowForcePush constructs a PushGuard that allows all force pushes.
func AllowForcePush() *PushGuard {
	return NewPushGuard(true, nil)
}

// Check implements Guard.
func (g *PushGuard) Check(spec *gitcmd.CommandSpec) Verdict {
	if spec.Subcommand() != "push" {
		return Allowed
	}
	if !hasForceIntent(spec.Args()) {
		return Allowed
	}
	if g.allowForcePush {
		return Allowed
	}
	if branch, ok := pushTargetBranch(spec.Args()); ok && g.allowedBranch[branch] {
		return Allowed
	}
	return Blocked("Force push is not allowed (this includes --force-with-lease). " +
		"Contact your administrator to enable force push.")
}
