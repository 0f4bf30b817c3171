package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type Loading struct {
	spinner spinner.Model
	message string
}

func NewLoading(message string) Loading {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Loading{
		spinner: s,
		message: message,
	}
}

func (l Loading) Tick() tea.Cmd {
	return l.spinner.Tick
}

func (l Loading) Update(msg tea.Msg) (Loading, tea.Cmd) {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return l, cmd
}

func (l Loading) View() string {
	return lipgloss.NewStyle().
		MarginLeft(2).
		MarginTop(1).
		Render(l.spinner.View() + " " + l.message)
}
