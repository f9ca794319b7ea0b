package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/furrow/internal/presentation/tui"
	"github.com/aretw0/furrow/pkg/domain"
	"golang.org/x/term"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// PrintReport writes the report as JSON or as markdown. Markdown is rendered
// with glamour on a terminal and printed raw otherwise.
func PrintReport(w io.Writer, r *domain.Report, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	md := tui.ReportMarkdown(r)
	if !isTerminal(w) {
		_, err := io.WriteString(w, md)
		return err
	}
	render, err := tui.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := render(md)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
