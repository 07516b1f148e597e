// Package config loads the TOML policy file that configures the guards,
// rate limiter, executor limits, and audit log for a git-proxy-mcp server.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration file schema.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Security  SecurityConfig  `toml:"security"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Executor  ExecutorConfig  `toml:"executor"`
	Audit     AuditConfig     `toml:"audit"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ServerConfig carries a protocol version string that the server reports in
// the instructions text of its `initialize` result. It does not change the
// protocol version the MCP SDK negotiates.
type ServerConfig struct {
	ProtocolVersion string `toml:"protocol_version"`
}

// SecurityConfig configures BranchGuard, PushGuard, and RepoFilter.
type SecurityConfig struct {
	ProtectedBranches        []string `toml:"protected_branches"`
	AllowForcePush           bool     `toml:"allow_force_push"`
	ForcePushAllowedBranches []string `toml:"force_push_allowed_branches"`
	RepoAllowlist            []string `toml:"repo_allowlist"`
	RepoBlocklist            []string `toml:"repo_blocklist"`
}

// RateLimitConfig configures the token bucket.
type RateLimitConfig struct {
	MaxBurst     uint64  `toml:"max_burst"`
	RefillPerSec float64 `toml:"refill_per_sec"`
}

// ExecutorConfig configures the subprocess timeout and output cap.
type ExecutorConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	MaxOutputBytes int `toml:"max_output_bytes"`
}

// AuditConfig configures the audit log sink.
type AuditConfig struct {
	LogPath string `toml:"log_path"`
}

// LoggingConfig configures the base slog level.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Default returns the locked-down configuration used when no file is found:
// the standard protected branches, force push blocked globally, RepoFilter
// in blocklist-only mode with an empty blocklist, and audit logging
// disabled.
func Default() Config {
	return Config{
		Server:   ServerConfig{ProtocolVersion: "2025-06-18"},
		Security: SecurityConfig{ProtectedBranches: []string{"main", "master", "develop"}},
		RateLimit: RateLimitConfig{
			MaxBurst:     20,
			RefillPerSec: 5.0,
		},
		Executor: ExecutorConfig{TimeoutSeconds: 300, MaxOutputBytes: 10 * 1024 * 1024},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// DefaultPath returns "~/.git-proxy-mcp/config.toml", or "" if the user's
// home directory cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".git-proxy-mcp", "config.toml")
}

// Load resolves the configuration file following the documented search
// order (explicit path, then $GIT_PROXY_MCP_CONFIG, then the default
// location) and falls back to Default() if none of those exist.
func Load(explicitPath string, logger *slog.Logger) (Config, error) {
	path := explicitPath
	if path == "" {
		path = os.Getenv("GIT_PROXY_MCP_CONFIG")
	}
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	warnOnInsecurePermissions(path, logger)

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// warnOnInsecurePermissions logs (not fails) when the config file is
// readable by the group or by everyone. The file carries only policy, not
// credentials, so this is advisory rather than fatal.
func warnOnInsecurePermissions(path string, logger *slog.Logger) {
	if runtime.GOOS == "windows" {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	mode := info.Mode().Perm()
	worldReadable := mode&0o004 != 0
	groupReadable := mode&0o040 != 0

	switch {
	case worldReadable:
		logger.Warn("configuration file is world-readable",
			"path", path, "mode", fmt.Sprintf("%o", mode),
			"hint", fmt.Sprintf("consider running: chmod 600 %s", path))
	case groupReadable:
		logger.Warn("configuration file is group-readable",
			"path", path, "mode", fmt.Sprintf("%o", mode),
			"hint", fmt.Sprintf("consider running: chmod 600 %s", path))
	}
}
