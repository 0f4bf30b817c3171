package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
)

// Marked items get a marker after their title, e.g. the variant that is
// currently playing.
type Marked interface {
	Marked() bool
}

type MarkerDelegate struct {
	list.DefaultDelegate
	marker string
	style  lipgloss.Style
}

func NewMarkerDelegate(marker string) *MarkerDelegate {
	d := list.NewDefaultDelegate()
	d.SetHeight(1)
	d.SetSpacing(0)
	d.ShowDescription = false

	return &MarkerDelegate{
		DefaultDelegate: d,
		marker:          marker,
		style:           lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
}

func (d *MarkerDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	d.DefaultDelegate.Render(w, m, index, listItem)
	if mk, ok := listItem.(Marked); ok && mk.Marked() {
		fmt.Fprint(w, d.style.Render(" "+d.marker))
	}
}
