package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/foreman/pkg/domain"
)

// Overlay highlights the path a run took through the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFromRecord builds an overlay from a recorded run path.
// The last visited node becomes the current node.
func OverlayFromRecord(rec *domain.RunRecord) *Overlay {
	if rec == nil || len(rec.Path) == 0 {
		return nil
	}
	return &Overlay{
		VisitedNodes: rec.Path,
		CurrentNode:  rec.Path[len(rec.Path)-1],
	}
}

// GenerateMermaid produces a Mermaid flowchart for the team topology.
// Shapes follow the node kind:
//   - supervisor: {{hexagon}}
//   - worker: [[subroutine]]
//   - terminal: ((circle))
//
// Edges into FAILED are dotted.
func GenerateMermaid(nodes []domain.Node, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch node.Kind {
		case domain.NodeKindSupervisor:
			opener, closer = "{{", "}}"
		case domain.NodeKindWorker:
			opener, closer = "[[", "]]"
		case domain.NodeKindTerminal:
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, node.ID, closer)

		for _, to := range node.Transitions {
			arrow := "-->"
			if to == string(domain.StateFailed) {
				arrow = "-.->"
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(to))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || seen[safeID] {
				continue
			}
			seen[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

var mermaidReplacer = strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")

// sanitizeMermaidID also guards against "end", which Mermaid reserves.
func sanitizeMermaidID(id string) string {
	s := mermaidReplacer.Replace(id)
	if strings.EqualFold(s, "end") {
		s = "node_" + s
	}
	return s
}
