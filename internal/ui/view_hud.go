package ui

import (
	"fmt"

	"github.com/DrSkyle/assetline/pkg/version"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) viewHUD() string {
	segTitle := highlight.Render(fmt.Sprintf("ASSETLINE %s", version.Current))

	segAssets := hudLabelStyle.Render("ASSETS:") + hudValueStyle.Render(fmt.Sprintf("%d", len(m.items)))
	segEvents := hudLabelStyle.Render("EVENTS:") + hudValueStyle.Render(fmt.Sprintf("%d", m.events))

	// A cycle in the lineage means some producer consumed its own
	// output, directly or through a chain. Worth shouting about.
	segHealth := hudLabelStyle.Render("GRAPH:") + special.Render("ACYCLIC")
	if len(m.cycle) > 0 {
		segHealth = hudLabelStyle.Render("GRAPH:") + danger.Render(fmt.Sprintf("CYCLE (%d nodes)", len(m.cycle)))
	}

	left := lipgloss.JoinHorizontal(lipgloss.Center, segTitle, "  ", dimStyle.Render(m.source))
	right := lipgloss.JoinHorizontal(lipgloss.Center, segAssets, "  |  ", segEvents, "  |  ", segHealth)

	width := m.width - 4
	if width < 0 {
		width = 0
	}
	spacer := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacer < 1 {
		spacer = 1
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top,
		left,
		lipgloss.NewStyle().Width(spacer).Render(""),
		right,
	)

	return hudStyle.Width(m.width - 2).Render(content)
}
