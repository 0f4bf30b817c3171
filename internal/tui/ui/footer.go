package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

type FooterKey struct {
	Key         string
	Description string
}

type Footer struct {
	keys []FooterKey
}

func NewFooter() *Footer {
	return &Footer{}
}

func (f *Footer) SetKeys(keys []FooterKey) {
	f.keys = keys
}

// SetBindings shows the help text of every enabled binding.
func (f *Footer) SetBindings(bindings ...key.Binding) {
	keys := make([]FooterKey, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		keys = append(keys, FooterKey{h.Key, h.Desc})
	}
	f.keys = keys
}

func (f *Footer) View() string {
	if len(f.keys) == 0 {
		return ""
	}

	parts := make([]string, len(f.keys))
	for i, key := range f.keys {
		parts[i] = key.Key + ": " + key.Description
	}

	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginLeft(2).
		MarginBottom(1).
		MarginTop(1).
		Render(strings.Join(parts, " • "))
}

func LoadingKeys() []FooterKey {
	return []FooterKey{
		{"ctrl+c", "cancel"},
	}
}

func QualityPickerKeys() []FooterKey {
	return []FooterKey{
		{"enter", "select"},
		{"↑↓", "navigate"},
		{"esc", "close"},
	}
}
