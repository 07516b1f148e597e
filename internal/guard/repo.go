package guard

import (
	"fmt"
	"strings"

	"github.com/MatejGomboc/git-proxy-mcp/internal/gitcmd"
)

// RepoFilter allows or blocks network operations based on the repository
// URL, in either allowlist-enforced or blocklist-only mode.
type RepoFilter struct {
	allowlist     map[string]bool
	blocklist     map[string]bool
	allowlistMode bool
}

// NewBlocklistRepoFilter constructs a RepoFilter in blocklist-only mode.
func NewBlocklistRepoFilter(blocklist []string) *RepoFilter {
	return &RepoFilter{blocklist: toSet(blocklist), allowlistMode: false}
}

// NewAllowlistRepoFilter constructs a RepoFilter in allowlist-enforced mode.
// The blocklist, if any, still always applies.
func NewAllowlistRepoFilter(allowlist, blocklist []string) *RepoFilter {
	return &RepoFilter{
		allowlist:     toSet(allowlist),
		blocklist:     toSet(blocklist),
		allowlistMode: true,
	}
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, i := range items {
		m[i] = true
	}
	return m
}

// IsAllowed reports whether repoURL passes the filter.
func (f *RepoFilter) IsAllowed(repoURL string) bool {
	for pattern := range f.blocklist {
		if matchesPattern(repoURL, pattern) {
			return false
		}
	}
	if !f.allowlistMode {
		return true
	}
	for pattern := range f.allowlist {
		if matchesPattern(repoURL, pattern) {
			return true
		}
	}
	return false
}

// Check implements Guard.
func (f *RepoFilter) Check(spec *gitcmd.CommandSpec) Verdict {
	switch spec.Subcommand() {
	case "clone", "push", "pull", "fetch", "ls-remote":
	default:
		return Allowed
	}

	repoURL := spec.RemoteRef()
	if repoURL == "" {
		return Allowed
	}
	// Bare remote names (e.g. "origin") carry no host/path information and
	// are exempt: they resolve through the local repository's own remote
	// configuration, which this proxy has no visibility into.
	if !strings.Contains(repoURL, "/") && !strings.Contains(repoURL, ".") {
		return Allowed
	}

	if !f.IsAllowed(repoURL) {
		return Blocked(fmt.Sprintf("Repository '%s' is not allowed by policy", repoURL))
	}
	return Allowed
}

// normaliseURL lowercases, strips the scheme, converts SSH shorthand or
// userinfo to a uniform host/path form, and strips a trailing .git or /.
func normaliseURL(raw string) string {
	s := strings.ToLower(raw)

	if idx := strings.Index(s, "://"); idx >= 0 {
		s = s[idx+3:]
	}

	if strings.HasPrefix(s, "git@") {
		s = strings.TrimPrefix(s, "git@")
		if idx := strings.Index(s, ":"); idx >= 0 {
			s = s[:idx] + "/" + s[idx+1:]
		}
	} else if at := strings.Index(s, "@"); at >= 0 {
		if slash := strings.Index(s, "/"); slash < 0 || at < slash {
			s = s[at+1:]
		}
	}

	if strings.HasSuffix(s, ".git") {
		s = s[:len(s)-len(".git")]
	}
	s = strings.TrimSuffix(s, "/")
	return s
}

// matchesPattern reports whether candidate matches pattern, both after
// normalisation. pattern may contain a single '*' wildcard.
func matchesPattern(candidate, pattern string) bool {
	c := normaliseURL(candidate)
	p := normaliseURL(pattern)

	if c == p {
		return true
	}

	if idx := strings.Index(p, "*"); idx >= 0 {
		prefix, suffix := p[:idx], p[idx+1:]
		return strings.HasPrefix(c, prefix) && strings.HasSuffix(c, suffix) && len(c) >= len(prefix)+len(suffix)
	}

	if strings.HasPrefix(c, p) {
		rest := c[len(p):]
		return rest == "" || strings.HasPrefix(rest, "/")
	}
	return false
}
