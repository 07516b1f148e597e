package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MatejGomboc/git-proxy-mcp/internal/cliutil"
)

// newRateLimitStatsCommand replays an audit log and reports observed
// rate_limit_exceeded counts against admitted calls (command_executed plus
// command_blocked events, both of which passed the limiter). The rate limiter itself
// is in-process-only state (nothing to inspect after the process exits),
// so this is a block-rate summary derived from what actually happened.
func newRateLimitStatsCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "ratelimit-stats",
		Short: "Summarise rate-limiter admissions and rejections from an audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRateLimitStats(path)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "audit log path (required)")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func runRateLimitStats(path string) error {
	lines, err := readAuditLines(path)
	if err != nil {
		return err
	}

	var allowed, blocked uint64
	for _, e := range lines {
		switch e.EventType {
		case "command_executed", "command_blocked":
			allowed++
		case "rate_limit_exceeded":
			blocked++
		}
	}

	total := allowed + blocked
	blockRate := 0.0
	if total > 0 {
		blockRate = float64(blocked) / float64(total)
	}

	headers := []string{"METRIC", "VALUE"}
	rows := [][]string{
		{"admitted", fmt.Sprintf("%d", allowed)},
		{"rate_limited", fmt.Sprintf("%d", blocked)},
		{"total", fmt.Sprintf("%d", total)},
		{"block_rate", fmt.Sprintf("%.2f%%", blockRate*100)},
	}
	for _, line := range cliutil.RenderTable(headers, rows, 2) {
		fmt.Println(line)
	}
	return nil
}
