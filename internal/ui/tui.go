package ui

import (
	"fmt"
	"time"

	"github.com/DrSkyle/assetline/pkg/report"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// statusTTL is how long a one-line status message stays on screen.
const statusTTL = 4 * time.Second

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.refreshData(msg.events)

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case "enter", " ":
		if m.state == ViewStateList && len(m.items) > 0 {
			m.state = ViewStateDetail
		} else {
			m.state = ViewStateList
		}

	case "b", "esc":
		m.state = ViewStateList

	case "i":
		m.ignoreSelected()

	case "r":
		m.loading = true
		m.state = ViewStateList
		return m, tea.Batch(m.spinner.Tick, m.loadJournal())
	}
	return m, nil
}

// ignoreSelected persists the highlighted key to the ignore file and
// drops it from the list immediately.
func (m *Model) ignoreSelected() {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return
	}
	key := m.items[m.cursor].Key.Redacted()
	if err := report.AppendIgnore(m.ignorePath, key); err != nil {
		m.setStatus(fmt.Sprintf("Ignore failed: %v", err))
		return
	}
	m.ignored[key] = true
	m.rebuildItems()
	m.setStatus(fmt.Sprintf("Ignored %s", key))
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil {
		return "\n  " + danger.Render(fmt.Sprintf("Journal read failed: %v", m.err)) + "\n"
	}
	if m.loading {
		return fmt.Sprintf("\n\n   %s Reading journal %s...\n\n   %s",
			m.spinner.View(), m.source, helpStyle("Press q to quit"))
	}

	var body string
	switch m.state {
	case ViewStateDetail:
		body = m.viewDetails()
	default:
		body = m.viewList()
	}

	status := ""
	if m.statusMsg != "" && time.Since(m.statusTime) < statusTTL {
		status = special.Render(" "+m.statusMsg) + "\n"
	}

	help := "i: ignore asset • enter: details • r: reload • q: quit"
	if m.state == ViewStateDetail {
		help = "i: ignore asset • b: back to list • q: quit"
	}

	return m.viewHUD() + "\n" + body + "\n" + status + helpStyle(" "+help) + "\n"
}

// makeHyperlink wraps text in an OSC 8 terminal hyperlink when the
// asset declared a URL.
func makeHyperlink(text, url string) string {
	if url == "" {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}
