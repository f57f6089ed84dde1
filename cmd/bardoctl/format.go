package main

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// stdoutIsTerminal decides whether human-facing subcommands (diagnostics,
// monitor) may emit ANSI highlighting; piped/redirected output stays plain.
func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

const (
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// highlight wraps s in bold when stdout is a terminal, otherwise returns it
// unchanged.
func highlight(s string) string {
	if !stdoutIsTerminal() {
		return s
	}
	return ansiBold + s + ansiReset
}

// humanCount renders large evaluation/generation counters with thousands
// separators, e.g. "12,345".
func humanCount(n int) string {
	return humanize.Comma(int64(n))
}
