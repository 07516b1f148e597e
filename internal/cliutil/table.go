// Package cliutil renders the aligned tables used by the administrative
// `audit tail` and `ratelimit-stats` subcommands.
package cliutil

import (
	"os"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

var ansiStripRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// displayWidth is runewidth.StringWidth with ANSI colour escapes stripped
// first, so a Colorize'd cell measures the same as its plain text.
func displayWidth(s string) int {
	return runewidth.StringWidth(ansiStripRe.ReplaceAllString(s, ""))
}

// IsTTY reports whether stdout is attached to a terminal. Row colouring
// for blocked/failed outcomes is only applied when this is true, since
// ANSI escapes piped into a file or another process would just be noise.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// RenderTable renders headers and rows as a gutter-separated, column-
// aligned text table, one string per line, using display-width-aware
// padding so tables containing wide or zero-width runes still line up.
func RenderTable(headers []string, rows [][]string, gutter int) []string {
	if len(headers) == 0 {
		return nil
	}
	if gutter < 1 {
		gutter = 1
	}

	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := range headers {
			cell := cellAt(row, i)
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	sep := strings.Repeat(" ", gutter)
	out := make([]string, 0, len(rows)+1)
	out = append(out, renderRow(headers, widths, sep))
	for _, row := range rows {
		out = append(out, renderRow(row, widths, sep))
	}
	return out
}

func renderRow(row []string, widths []int, sep string) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		cells[i] = padRight(cellAt(row, i), width)
	}
	return strings.Join(cells, sep)
}

// padRight pads s to width using its ANSI-stripped display width, so a
// colourised cell and a plain one of the same text line up identically.
func padRight(s string, width int) string {
	visible := displayWidth(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// Colorize wraps text in the given ANSI colour when tty is true, otherwise
// returns text unchanged.
func Colorize(tty bool, color, text string) string {
	if !tty {
		return text
	}
	return color + text + colorReset
}

// ColorForOutcome returns the colour this library uses to highlight an
// audit outcome: red for blocked, yellow for failed, no colour for success.
func ColorForOutcome(outcome string) string {
	switch outcome {
	case "blocked":
		return colorRed
	case "failed":
		return colorYellow
	default:
		return ""
	}
}
