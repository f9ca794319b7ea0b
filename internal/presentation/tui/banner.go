package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/muesli/termenv"
)

// PrintBanner outputs the furrow ASCII banner.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Earthy gradient, top soil to clay.
	lines := []struct {
		text  string
		color string
	}{
		{"   __                              ", "#a3e635"},
		{"  / _|_   _ _ __ _ __ _____      __", "#84cc16"},
		{" | |_| | | | '__| '__/ _ \\ \\ /\\ / /", "#ca8a04"},
		{" |  _| |_| | |  | | | (_) \\ V  V / ", "#b45309"},
		{" |_|  \\__,_|_|  |_|  \\___/ \\_/\\_/  ", "#92400e"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String(" "+version).Faint())
	fmt.Fprintln(w)
}

// Outcome renders an outcome with a colour matching its severity.
func Outcome(w io.Writer, o domain.Outcome) string {
	out := termenv.NewOutput(w)
	s := out.String(string(o)).Bold()
	switch o {
	case domain.OutcomeExhausted, domain.OutcomeStepLimit:
		return s.Foreground(out.Color("#22c55e")).String()
	case domain.OutcomeExploded, domain.OutcomeTimedOut:
		return s.Foreground(out.Color("#f59e0b")).String()
	case domain.OutcomeCancelled:
		return s.Foreground(out.Color("#ef4444")).String()
	}
	return s.String()
}
