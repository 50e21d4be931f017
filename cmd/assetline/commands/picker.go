package commands

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type pipelineModel struct {
	choices []string
	cursor  int
	picked  bool
}

func (m pipelineModel) Init() tea.Cmd {
	return nil
}

func (m pipelineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "enter", " ":
			m.picked = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pipelineModel) View() string {
	s := strings.Builder{}
	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Render("? Which pipeline do you want to replay?"))
	s.WriteString("\n\n")

	for i, choice := range m.choices {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}
		s.WriteString(fmt.Sprintf("%s %s\n", cursor, choice))
	}

	s.WriteString("\n(Press [enter] to confirm, [q] to cancel)\n")
	return s.String()
}

// PromptForPipeline asks the user to pick one pipeline by name. A
// single-pipeline manifest skips the prompt.
func PromptForPipeline(choices []string) (string, error) {
	if len(choices) == 0 {
		return "", fmt.Errorf("manifest has no pipelines")
	}
	if len(choices) == 1 {
		return choices[0], nil
	}

	p := tea.NewProgram(pipelineModel{choices: choices})
	m, err := p.Run()
	if err != nil {
		return "", err
	}

	if final, ok := m.(pipelineModel); ok && final.picked {
		return final.choices[final.cursor], nil
	}
	return "", fmt.Errorf("no pipeline selected")
}
