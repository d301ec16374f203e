package graph

import (
	"fmt"
	"path"
	"strings"

	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/schema"
)

// GraphOverlay contains runtime data to highlight on the graph.
type GraphOverlay struct {
	VisitedDialogs []string
	CurrentDialog  string
}

// GenerateMermaid produces a Mermaid flowchart of a compiled schema.
// Shapes:
// - Start dialog: ((Circle))
// - Error dialog: {{Hexagon}}
// - Dialog with a reply keyboard: [/Parallelogram/]
// - Command: >Flag]
// - Default: [Rectangle]
// Edges come from the static buttons, commands and fallbacks whose actions
// declare a navigation target. Buttons computed at render time cannot be
// followed and are marked on the dialog label instead.
func GenerateMermaid(c *schema.Compiled, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, d := range c.Dialogs() {
		safeID := sanitizeMermaidID(d.ID)

		opener, closer := "[", "]"
		switch {
		case d.ID == c.StartDialogID():
			opener, closer = "((", "))"
		case d.ID == c.ErrorDialogID():
			opener, closer = "{{", "}}"
		case d.ReplyButtons.IsSet():
			opener, closer = "[/", "/]"
		}

		label := d.ID
		if isDynamic(d) {
			label += " <br/> ⚙️ dynamic"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		if rows, ok := d.InlineButtons.StaticValue(); ok {
			for _, row := range rows {
				for _, b := range row {
					writeEdges(&sb, c, d.ID, buttonLabel(b.Text), b.Action)
				}
			}
		}
		if rows, ok := d.ReplyButtons.StaticValue(); ok {
			for _, row := range rows {
				for _, b := range row {
					writeEdges(&sb, c, d.ID, "⌨ "+buttonLabel(b.Text), b.Action)
				}
			}
		}
	}

	for _, cmd := range c.Commands() {
		safeID := "cmd_" + sanitizeMermaidID(cmd.Name)
		fmt.Fprintf(&sb, "    %s>\"/%s\"]\n", safeID, cmd.Name)
		for _, to := range targets(c, cmd.Action) {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", safeID, sanitizeMermaidID(to))
		}
	}

	for _, fb := range []struct {
		id      string
		actions domain.Actions
	}{
		{"fallback", c.Fallback()},
		{"reply_fallback", c.ReplyFallback()},
	} {
		tos := targets(c, fb.actions)
		if len(tos) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "    %s([\"%s\"])\n", fb.id, fb.id)
		for _, to := range tos {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", fb.id, sanitizeMermaidID(to))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the highlight readable on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedDialogs {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentDialog != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentDialog))
		}
	}

	return sb.String()
}

func writeEdges(sb *strings.Builder, c *schema.Compiled, from, label string, as domain.Actions) {
	safeFrom := sanitizeMermaidID(from)
	for _, to := range targets(c, as) {
		// Crossing folders of a markdown repository is drawn as a jump.
		arrow := fmt.Sprintf("-- \"%s\" -->", label)
		if path.Dir(from) != path.Dir(to) {
			arrow = fmt.Sprintf("-. \"%s\" .->", label)
		}
		fmt.Fprintf(sb, "    %s %s %s\n", safeFrom, arrow, sanitizeMermaidID(to))
	}
}

// targets resolves declared navigation targets, including the start dialog.
func targets(c *schema.Compiled, as domain.Actions) []string {
	out := as.Targets()
	for _, a := range as {
		if domain.ActionName(a) == "start" {
			out = append(out, c.StartDialogID())
		}
	}
	return out
}

func buttonLabel(t domain.TextSource) string {
	s, ok := t.StaticValue()
	if !ok {
		return "…"
	}
	return strings.ReplaceAll(s, "\"", "'")
}

func isDynamic(d *domain.Dialog) bool {
	return (d.InlineButtons.IsSet() && !d.InlineButtons.IsStatic()) ||
		(d.ReplyButtons.IsSet() && !d.ReplyButtons.IsStatic())
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
