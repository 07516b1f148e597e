// Package gitcmd parses and validates the Git commands this proxy is
// willing to spawn.
package gitcmd

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Allowed is the exact set of subcommands this proxy will execute. Earlier
// revisions of this tool allowed a much wider, local-operation-inclusive
// set; the proxy now only needs network operations, since local operations
// carry no credentials and the agent can run them directly.
var Allowed = []string{"clone", "fetch", "ls-remote", "pull", "push"}

// deniedFlags enables arbitrary command execution, hook bypass, debug
// disclosure, or path redirection, and is never allowed on any subcommand.
var deniedFlags = []string{
	"--exec",
	"-c", // git -c can set arbitrary config, including hooks
	"--upload-pack",
	"--receive-pack",
	"--no-verify",
	"--verbose",
	"-v",
	"--debug",
	"--git-dir",
	"--work-tree",
}

// Error is returned by Build when a command fails validation.
type Error struct {
	Kind ErrorKind
	// Name, Flag, Path are populated depending on Kind.
	Name string
	Flag string
	Path string
}

// ErrorKind distinguishes the reason a command failed validation.
type ErrorKind int

const (
	// EmptyCommand means no subcommand was supplied.
	EmptyCommand ErrorKind = iota
	// CommandNotAllowed means the subcommand is not in Allowed.
	CommandNotAllowed
	// DeniedFlag means an argument matched a denied flag form.
	DeniedFlag
	// InvalidCwd means cwd was supplied but was not absolute.
	InvalidCwd
)

func (e *Error) Error() string {
	switch e.Kind {
	case EmptyCommand:
		return "git command cannot be empty"
	case CommandNotAllowed:
		return fmt.Sprintf("git command '%s' is not allowed", e.Name)
	case DeniedFlag:
		return fmt.Sprintf("dangerous flag '%s' is not allowed", e.Flag)
	case InvalidCwd:
		return fmt.Sprintf("invalid working directory: %s", e.Path)
	default:
		return "invalid git command"
	}
}

// CommandSpec is a parsed and validated Git command, ready for execution.
type CommandSpec struct {
	subcommand string
	args       []string
	cwd        string // empty if not set
}

// Build parses and validates a subcommand/args/cwd triple. cwd may be empty
// to mean "unset".
func Build(subcommand string, args []string, cwd string) (*CommandSpec, error) {
	if subcommand == "" {
		return nil, &Error{Kind: EmptyCommand}
	}

	allowed := false
	for _, a := range Allowed {
		if a == subcommand {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, &Error{Kind: CommandNotAllowed, Name: subcommand}
	}

	for _, arg := range args {
		for _, denied := range deniedFlags {
			if arg == denied || strings.HasPrefix(arg, denied+"=") {
				return nil, &Error{Kind: DeniedFlag, Flag: arg}
			}
		}
	}

	if cwd != "" && !filepath.IsAbs(cwd) {
		return nil, &Error{Kind: InvalidCwd, Path: cwd}
	}

	argsCopy := append([]string(nil), args...)
	return &CommandSpec{subcommand: subcommand, args: argsCopy, cwd: cwd}, nil
}

// Subcommand returns the validated Git subcommand.
func (c *CommandSpec) Subcommand() string { return c.subcommand }

// Args returns the validated argument list.
func (c *CommandSpec) Args() []string { return c.args }

// Cwd returns the working directory, or "" if unset.
func (c *CommandSpec) Cwd() string { return c.cwd }

// RequiresNetwork reports whether this subcommand talks to a remote. Every
// member of Allowed does, so this is always true for a successfully built
// CommandSpec; kept as a named predicate because callers (RepoFilter,
// audit log) reason about it explicitly.
func (c *CommandSpec) RequiresNetwork() bool {
	switch c.subcommand {
	case "clone", "fetch", "ls-remote", "pull", "push":
		return true
	default:
		return false
	}
}

// RemoteRef returns the first token that names a remote or repository URL,
// per subcommand, or "" if none can be inferred.
func (c *CommandSpec) RemoteRef() string {
	switch c.subcommand {
	case "clone", "push", "pull", "fetch", "ls-remote":
		for _, a := range c.args {
			if !strings.HasPrefix(a, "-") {
				return a
			}
		}
	}
	return ""
}

// BuildArgs returns the full argv for exec: the subcommand followed by its
// arguments.
func (c *CommandSpec) BuildArgs() []string {
	out := make([]string, 0, len(c.args)+1)
	out = append(out, c.subcommand)
	out = append(out, c.args...)
	return out
}
