package ui

import (
	"fmt"
	"strings"

	"github.com/DrSkyle/assetline/pkg/asset"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) viewDetails() string {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return "No Asset Selected"
	}
	node := m.items[m.cursor]

	header := detailsHeaderStyle.Render(fmt.Sprintf("ASSET : %s", node.Key.Redacted()))

	// Descriptor block.
	var props []string
	if p := node.Properties; p != nil {
		if p.Name != nil {
			name := *p.Name
			if p.URL != nil {
				name = makeHyperlink(name, *p.URL)
			}
			props = append(props, fmt.Sprintf("%-14s : %s", "Name", name))
		}
		if p.Description != nil {
			props = append(props, fmt.Sprintf("%-14s : %s", "Description", *p.Description))
		}
		if p.Owners != nil {
			props = append(props, fmt.Sprintf("%-14s : %s", "Owners", strings.Join(*p.Owners, ", ")))
		}
		if p.URL != nil {
			props = append(props, fmt.Sprintf("%-14s : %s", "URL", *p.URL))
		}
	}
	if len(props) == 0 {
		props = append(props, dimStyle.Render("No descriptor recorded."))
	}

	// Activity block.
	activity := fmt.Sprintf("EVENTS:        %d", node.Events)
	unit := fmt.Sprintf("LAST UNIT:     %s", node.LastUnit)
	last := "LAST EVENT:    never materialized here"
	if node.Events > 0 {
		last = fmt.Sprintf("LAST EVENT:    %s", node.LastEvent.UTC().Format("2006-01-02 15:04:05"))
	}
	intelBlock := lipgloss.JoinVertical(lipgloss.Left,
		special.Render(activity),
		subtle.Render(unit),
		subtle.Render(last),
	)

	// Lineage edges.
	up := renderEdges("UPSTREAM", m.graph.Upstream(node.Key))
	down := renderEdges("DOWNSTREAM", m.graph.Downstream(node.Key))

	cycleWarn := ""
	for _, k := range m.cycle {
		if k == node.Key {
			cycleWarn = iconWarn.Render() + warning.Render(" This asset sits on a dependency cycle.")
			break
		}
	}

	actions := strings.Join([]string{
		"[I]gnore Asset",
		"[B]ack to List",
	}, "  ")

	parts := []string{
		header,
		"",
		intelBlock,
		"",
		dimStyle.Render(strings.Join(props, "\n")),
		"",
		up,
		down,
	}
	if cycleWarn != "" {
		parts = append(parts, "", cycleWarn)
	}
	parts = append(parts,
		"",
		strings.Repeat("─", 50),
		highlight.Render("ACTIONS:"),
		actions,
	)

	return detailsBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func renderEdges(label string, keys []asset.Key) string {
	s := strings.Builder{}
	s.WriteString(highlight.Render(label+":") + "\n")
	if len(keys) == 0 {
		s.WriteString(dimStyle.Render("  (none)"))
		return s.String()
	}
	for i, k := range keys {
		prefix := "  ├─ "
		if i == len(keys)-1 {
			prefix = "  └─ "
		}
		s.WriteString(dimStyle.Render(prefix) + k.Redacted())
		if i < len(keys)-1 {
			s.WriteString("\n")
		}
	}
	return s.String()
}
