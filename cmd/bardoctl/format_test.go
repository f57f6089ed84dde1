package main

import "testing"

func TestHumanCount(t *testing.T) {
	cases := map[int]string{
		0:      "0",
		950:    "950",
		12345:  "12,345",
		200000: "200,000",
	}
	for in, want := range cases {
		if got := humanCount(in); got != want {
			t.Fatalf("humanCount(%d)=%q want=%q", in, got, want)
		}
	}
}

func TestHighlightNoopWhenNotATerminal(t *testing.T) {
	// go test's stdout is never a terminal, so highlight must pass through
	// unchanged rather than emitting ANSI codes into captured test output.
	if got := highlight("best"); got != "best" {
		t.Fatalf("highlight(%q)=%q, want unchanged (stdout is not a terminal under go test)", "best", got)
	}
}
