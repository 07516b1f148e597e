// Package mcpserver wires the dispatcher to the official MCP Go SDK: a
// single `git` tool, stdio transport, and graceful-shutdown audit events.
// It owns no policy of its own — every decision about whether a command
// runs belongs to internal/dispatch.
package mcpserver

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MatejGomboc/git-proxy-mcp/internal/audit"
	"github.com/MatejGomboc/git-proxy-mcp/internal/dispatch"
)

// ToolName is the single tool this server exposes.
const ToolName = "git"

// toolDescription clarifies the scope the agent is operating under: only
// remote operations, and credentials are entirely the host's concern.
const toolDescription = `Run a restricted set of remote Git operations (clone, fetch, ls-remote, pull, push) ` +
	`against repositories you are already authenticated to on this machine. ` +
	`Authentication uses your existing Git credential helpers and SSH agent; ` +
	`this tool never sees, stores, or requests credentials. Local-only Git ` +
	`operations (status, diff, commit, branch, ...) are not proxied here — run ` +
	`those directly.`

// gitToolInput is the typed argument struct decoded from `tools/call`.
type gitToolInput struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
	Cwd     string   `json:"cwd,omitempty"`
}

func inputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"command": {
				Type:        "string",
				Description: "The git subcommand to run.",
				Enum:        []any{"clone", "fetch", "ls-remote", "pull", "push"},
			},
			"args": {
				Type:        "array",
				Description: "Additional arguments to pass to git, after the subcommand.",
				Items:       &jsonschema.Schema{Type: "string"},
			},
			"cwd": {
				Type:        "string",
				Description: "Absolute path to run the command in. Defaults to the server's working directory.",
			},
		},
		Required: []string{"command"},
	}
}

// New constructs the MCP server, with the single `git` tool registered
// against dispatcher, logging through logger.
func New(dispatcher *dispatch.Dispatcher, logger *slog.Logger, protocolVersion string) *mcp.Server {
	impl := &mcp.Implementation{
		Name:    "git-proxy-mcp",
		Title:   "Git Proxy",
		Version: "0.1.0",
	}

	opts := &mcp.ServerOptions{
		Logger: logger,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	if protocolVersion != "" {
		opts.Instructions = "Protocol version advertised: " + protocolVersion
	}

	server := mcp.NewServer(impl, opts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolName,
		Description: toolDescription,
		InputSchema: inputSchema(),
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in gitToolInput) (*mcp.CallToolResult, any, error) {
		result := dispatcher.Dispatch(ctx, dispatch.Request{Command: in.Command, Args: in.Args, Cwd: in.Cwd})
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result.Text}},
			IsError: result.IsError,
		}, nil, nil
	})

	return server
}

// Run starts server on stdio and blocks until the transport returns (EOF on
// stdin, a client disconnect) or a SIGINT/SIGTERM arrives. It emits exactly
// one server_stopped audit event, tagged with the reason, before returning.
func Run(ctx context.Context, server *mcp.Server, auditLog *audit.Logger, logger *slog.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	reasonCh := make(chan audit.ShutdownReason, 1)
	go func() {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGTERM {
				reasonCh <- audit.SigTerm
			} else {
				reasonCh <- audit.SigInt
			}
			cancel()
		case <-runCtx.Done():
		}
	}()

	auditLog.LogSilent(audit.ServerStartedEvent())
	logger.Info("mcp server ready on stdio")

	err := server.Run(runCtx, &mcp.StdioTransport{})

	reason := audit.ClientDisconnected
	select {
	case r := <-reasonCh:
		reason = r
	default:
	}

	auditLog.LogSilent(audit.ServerStoppedEvent(reason))
	logger.Info("mcp server stopped", "reason", reason)

	return err
}
