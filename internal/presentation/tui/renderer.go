package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/furrow/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// ReportMarkdown formats a session report as a markdown document.
func ReportMarkdown(r *domain.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session `%s`\n\n", r.SessionID)
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Strategy | %s |\n", r.Strategy)
	fmt.Fprintf(&b, "| Seed | %d |\n", r.Seed)
	fmt.Fprintf(&b, "| Outcome | **%s** |\n", r.Outcome)
	fmt.Fprintf(&b, "| Epochs | %d |\n", r.Steps)
	fmt.Fprintf(&b, "| Covered blocks | %d |\n", r.Covered)
	if r.Restarts > 0 {
		fmt.Fprintf(&b, "| Restarts | %d |\n", r.Restarts)
	}
	if !r.StartedAt.IsZero() {
		fmt.Fprintf(&b, "| Elapsed | %s |\n", r.Elapsed().Round(1e6))
	}

	if len(r.Pools) > 0 {
		b.WriteString("\n## Pools\n\n| Pool | States |\n|---|---:|\n")
		names := make([]string, 0, len(r.Pools))
		for name := range r.Pools {
			names = append(names, string(name))
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(&b, "| %s | %d |\n", name, r.Pools[domain.PoolName(name)])
		}
	}

	if r.Partial() {
		b.WriteString("\n> The guard drained the pools; exploration is partial.\n")
	}
	return b.String()
}
