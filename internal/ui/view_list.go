package ui

import (
	"fmt"
	"strings"
)

func (m Model) viewList() string {
	s := strings.Builder{}

	if len(m.items) == 0 {
		return "\n\n   " + iconSafe.Render() + subtle.Render("  Journal empty. No lineage recorded yet.")
	}

	inCycle := map[string]bool{}
	for _, k := range m.cycle {
		inCycle[string(k)] = true
	}

	// Pagination / Windowing
	start, end := m.calculateWindow(len(m.items))

	headerTxt := fmt.Sprintf("   %-44s | %6s | %-18s | %s", "ASSET KEY", "EVENTS", "LAST WORK UNIT", "LAST EVENT")
	s.WriteString(dimStyle.Render(headerTxt) + "\n")
	s.WriteString(dimStyle.Render("   "+strings.Repeat("─", 92)) + "\n")

	for i := start; i < end; i++ {
		node := m.items[i]
		isSelected := (i == m.cursor)

		cursor := "  "
		if isSelected {
			cursor = "> "
		}

		dispKey := node.Key.Redacted()
		if len(dispKey) > 44 {
			dispKey = dispKey[:41] + "..."
		}

		// Dependency-only keys were never materialized here; they are
		// external inputs.
		unit := node.LastUnit
		last := "-"
		if node.Events == 0 {
			unit = "(external)"
		} else {
			last = node.LastEvent.UTC().Format("2006-01-02 15:04")
		}

		line := fmt.Sprintf("%s%-44s | %6d | %-18s | %s", cursor, dispKey, node.Events, unit, last)

		switch {
		case isSelected:
			s.WriteString(listSelectedStyle.Render(line) + "\n")
		case inCycle[string(node.Key)]:
			s.WriteString(warning.Render(line) + "\n")
		default:
			s.WriteString(listNormalStyle.Render(line) + "\n")
		}
	}

	if end < len(m.items) {
		s.WriteString(dimStyle.Render("   ...") + "\n")
	}

	return s.String()
}

func (m Model) calculateWindow(total int) (int, int) {
	windowSize := m.height - 8 // approx HUD + footer
	if windowSize < 5 {
		windowSize = 5
	}

	start := m.cursor - (windowSize / 2)
	if start < 0 {
		start = 0
	}

	end := start + windowSize
	if end > total {
		end = total
		start = end - windowSize
		if start < 0 {
			start = 0
		}
	}
	return start, end
}
