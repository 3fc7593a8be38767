package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/shelfscan/pkg/domain"
)

// Overlay contains dynamic state data to visualize on the diagram.
type Overlay struct {
	Visited []domain.Status
	Current domain.Status
}

// GenerateMermaid produces a Mermaid flowchart of the scan state machine.
// It applies semantic styling:
// - Idle: ((Circle))
// - Error: {{Hexagon}}
// - Default: [Rectangle]
// Every non-idle status carries a dotted "stop" edge back to Idle.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, status := range domain.Statuses() {
		opener, closer := "[", "]"
		switch status {
		case domain.StatusIdle:
			opener, closer = "((", "))"
		case domain.StatusError:
			opener, closer = "{{", "}}"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", status, opener, status.Label(), closer))

		for _, next := range domain.Successors(status) {
			if next == status {
				continue
			}
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", status, next))
		}
		if status != domain.StatusIdle && !contains(domain.Successors(status), domain.StatusIdle) {
			sb.WriteString(fmt.Sprintf("    %s -. stop .-> %s\n", status, domain.StatusIdle))
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[domain.Status]bool)
		for _, status := range overlay.Visited {
			if !seen[status] && status != "" {
				seen[status] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", status))
			}
		}

		if overlay.Current != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", overlay.Current))
		}
	}

	return sb.String()
}

func contains(list []domain.Status, s domain.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
