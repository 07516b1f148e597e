package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MatejGomboc/git-proxy-mcp/internal/cliutil"
)

// auditLine is the subset of an audit.Event this command cares about
// rendering; decoded loosely so older/newer log lines don't break parsing.
type auditLine struct {
	Timestamp  string `json:"timestamp"`
	EventType  string `json:"event_type"`
	Subcommand string `json:"subcommand"`
	Outcome    string `json:"outcome"`
	DurationMs *int64 `json:"duration_ms"`
	ExitCode   *int   `json:"exit_code"`
	Reason     string `json:"reason"`
}

func newAuditCommand() *cobra.Command {
	var path string
	var count int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit log",
	}

	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print the last N audit events as a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuditTail(path, count)
		},
	}
	tail.Flags().StringVar(&path, "path", "", "audit log path (required)")
	tail.Flags().IntVarP(&count, "lines", "n", 20, "number of trailing events to show")
	_ = tail.MarkFlagRequired("path")

	cmd.AddCommand(tail)
	return cmd
}

func runAuditTail(path string, count int) error {
	lines, err := readAuditLines(path)
	if err != nil {
		return err
	}
	if count > 0 && len(lines) > count {
		lines = lines[len(lines)-count:]
	}

	tty := cliutil.IsTTY()
	headers := []string{"TIMESTAMP", "EVENT", "SUBCOMMAND", "OUTCOME", "DURATION_MS", "EXIT", "REASON"}
	rows := make([][]string, 0, len(lines))
	for _, e := range lines {
		duration := ""
		if e.DurationMs != nil {
			duration = fmt.Sprintf("%d", *e.DurationMs)
		}
		exit := ""
		if e.ExitCode != nil {
			exit = fmt.Sprintf("%d", *e.ExitCode)
		}
		outcome := cliutil.Colorize(tty, cliutil.ColorForOutcome(e.Outcome), e.Outcome)
		rows = append(rows, []string{e.Timestamp, e.EventType, e.Subcommand, outcome, duration, exit, e.Reason})
	}

	for _, line := range cliutil.RenderTable(headers, rows, 2) {
		fmt.Println(line)
	}
	return nil
}

func readAuditLines(path string) ([]auditLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log %s: %w", path, err)
	}
	defer f.Close()

	var lines []auditLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var e auditLine
		if err := json.Unmarshal(text, &e); err != nil {
			continue // tolerate stray non-JSON lines rather than aborting the whole tail
		}
		lines = append(lines, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log %s: %w", path, err)
	}
	return lines, nil
}
