// Command git-proxy-mcp runs the credential-safe Git command proxy as an
// MCP server over stdio, plus small administrative subcommands for
// inspecting the audit log and rate-limiter behaviour it produced.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var verbose int
	var quiet bool

	root := &cobra.Command{
		Use:   "git-proxy-mcp",
		Short: "Secure Git proxy MCP server for AI assistants",
		Long: `git-proxy-mcp lets an AI assistant run a restricted set of remote Git
operations (clone, fetch, ls-remote, pull, push) against repositories you
have already authenticated to on this machine, without the assistant ever
obtaining, observing, or forging your Git credentials.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, verbose, quiet)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file")
	root.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase logging verbosity (-v info, -vv debug, -vvv trace-equivalent)")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")

	root.AddCommand(newServeCommand(&configPath, &verbose, &quiet))
	root.AddCommand(newAuditCommand())
	root.AddCommand(newRateLimitStatsCommand())

	return root
}

func newServeCommand(configPath *string, verbose *int, quiet *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio (the default when no subcommand is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath, *verbose, *quiet)
		},
	}
}
