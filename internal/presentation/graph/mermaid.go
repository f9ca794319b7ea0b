package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/furrow/pkg/cfg"
)

// Overlay carries exploration data to paint on top of the static graph.
type Overlay struct {
	Covered []uint64
	Current []uint64 // Addresses of the states about to be stepped
}

// GenerateMermaid renders a control-flow graph as a Mermaid flowchart.
// Shapes follow the block kind:
// - Entry: ((Circle))
// - Call: [[Subroutine]]
// - Return: ([Stadium])
// - Unconstrained: {{Hexagon}}
// - Default: [Rectangle]
// Call edges are dotted and loop back edges are labelled.
func GenerateMermaid(g *cfg.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, b := range g.Blocks() {
		id := nodeID(b.Addr)

		opener, closer := "[", "]"
		switch {
		case b.Addr == g.Entry():
			opener, closer = "((", "))"
		case b.Call != 0:
			opener, closer = "[[", "]]"
		case b.Return:
			opener, closer = "([", "])"
		case b.Unconstrained:
			opener, closer = "{{", "}}"
		}

		label := fmt.Sprintf("%#x", b.Addr)
		if b.Name != "" {
			label = fmt.Sprintf("%s <br/> %#x", escape(b.Name), b.Addr)
		}
		if g.IsLoopEntry(b.Addr) {
			label += " <br/> loop"
		}
		if b.Fault != "" {
			label += " <br/> fault: " + escape(b.Fault)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)

		if b.Call != 0 {
			fmt.Fprintf(&sb, "    %s -. call .-> %s\n", id, nodeID(b.Call))
		}
		for _, to := range b.Succ {
			arrow := "-->"
			if g.IsBackEdge(b.Addr, to) {
				arrow = "-- back -->"
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", id, arrow, nodeID(to))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef covered fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[uint64]bool)
		for _, addr := range overlay.Covered {
			if _, ok := g.Block(addr); !ok || seen[addr] {
				continue
			}
			seen[addr] = true
			fmt.Fprintf(&sb, "    class %s covered;\n", nodeID(addr))
		}
		seen = make(map[uint64]bool)
		for _, addr := range overlay.Current {
			if _, ok := g.Block(addr); !ok || seen[addr] {
				continue
			}
			seen[addr] = true
			fmt.Fprintf(&sb, "    class %s current;\n", nodeID(addr))
		}
	}

	return sb.String()
}

func nodeID(addr uint64) string {
	return fmt.Sprintf("b%x", addr)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
