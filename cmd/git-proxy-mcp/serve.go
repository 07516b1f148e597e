package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/MatejGomboc/git-proxy-mcp/internal/audit"
	"github.com/MatejGomboc/git-proxy-mcp/internal/config"
	"github.com/MatejGomboc/git-proxy-mcp/internal/dispatch"
	"github.com/MatejGomboc/git-proxy-mcp/internal/executor"
	"github.com/MatejGomboc/git-proxy-mcp/internal/gitcmd"
	"github.com/MatejGomboc/git-proxy-mcp/internal/guard"
	"github.com/MatejGomboc/git-proxy-mcp/internal/mcpserver"
	"github.com/MatejGomboc/git-proxy-mcp/internal/ratelimit"
	"github.com/MatejGomboc/git-proxy-mcp/internal/sanitize"
)

// runServe loads configuration, assembles the policy/execution pipeline,
// and runs the MCP server until the client disconnects or a shutdown
// signal arrives.
func runServe(configPath string, verbose int, quiet bool) error {
	// Logging needs to exist before configuration is loaded so that a
	// malformed config file is itself reported through it; but the final
	// level depends on the config file's [logging] section, so the logger
	// is rebuilt once the config is in hand.
	bootLogger := newLogger(levelFor(verbose, quiet, "info"))

	cfg, err := config.Load(configPath, bootLogger)
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := newLogger(levelFor(verbose, quiet, cfg.Logging.Level))
	logger.Info("starting git-proxy-mcp")

	var auditLog *audit.Logger
	if cfg.Audit.LogPath == "" {
		logger.Info("audit logging disabled")
		auditLog = audit.Disabled()
	} else {
		auditLog, err = audit.New(cfg.Audit.LogPath)
		if err != nil {
			logger.Error("failed to open audit log", "path", cfg.Audit.LogPath, "error", err)
			return fmt.Errorf("open audit log %s: %w", cfg.Audit.LogPath, err)
		}
		defer auditLog.Close()
		logger.Info("audit logging enabled", "path", cfg.Audit.LogPath)
	}

	branchGuard := guard.NewBranchGuard(cfg.Security.ProtectedBranches)
	pushGuard := guard.NewPushGuard(cfg.Security.AllowForcePush, cfg.Security.ForcePushAllowedBranches)
	var repoFilter *guard.RepoFilter
	if len(cfg.Security.RepoAllowlist) > 0 {
		repoFilter = guard.NewAllowlistRepoFilter(cfg.Security.RepoAllowlist, cfg.Security.RepoBlocklist)
	} else {
		repoFilter = guard.NewBlocklistRepoFilter(cfg.Security.RepoBlocklist)
	}

	limiter := ratelimit.New(cfg.RateLimit.MaxBurst, cfg.RateLimit.RefillPerSec)

	exec := executor.WithLimits(
		sanitize.New(),
		time.Duration(cfg.Executor.TimeoutSeconds)*time.Second,
		cfg.Executor.MaxOutputBytes,
	)

	logger.Info("configuration loaded",
		"protected_branches", cfg.Security.ProtectedBranches,
		"allow_force_push", cfg.Security.AllowForcePush,
		"max_burst", cfg.RateLimit.MaxBurst,
		"refill_per_sec", cfg.RateLimit.RefillPerSec,
		"allowed_subcommands", gitcmd.Allowed,
	)

	dispatcher := dispatch.New(limiter, branchGuard, pushGuard, repoFilter, exec, auditLog)
	server := mcpserver.New(dispatcher, logger, cfg.Server.ProtocolVersion)

	return mcpserver.Run(context.Background(), server, auditLog, logger)
}

// levelTrace stands in for a trace level, which slog lacks: newLogger logs
// at DEBUG and additionally records source locations.
const levelTrace = slog.LevelDebug - 1

func newLogger(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if level <= levelTrace {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// levelFor ports the verbosity mapping from the original implementation's
// main.rs get_log_level: --quiet forces ERROR; otherwise -v/-vv/-vvv map
// to INFO/DEBUG/a DEBUG+source "trace-equivalent", and an unset -v falls
// back to the config file's own level.
func levelFor(verbose int, quiet bool, configLevel string) slog.Level {
	if quiet {
		return slog.LevelError
	}
	switch verbose {
	case 0:
		return levelFromString(configLevel)
	case 1:
		return slog.LevelInfo
	case 2:
		return slog.LevelDebug
	default:
		return levelTrace
	}
}

func levelFromString(s string) slog.Level {
	switch s {
	case "trace":
		return levelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	case "warn":
		return slog.LevelWarn
	default:
		return slog.LevelWarn
	}
}
