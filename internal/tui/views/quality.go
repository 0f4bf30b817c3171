package views

import (
	"context"
	"fmt"

	"github.com/hayasedb/podplay/internal/controller"
	"github.com/hayasedb/podplay/internal/models"
	"github.com/hayasedb/podplay/internal/tui/navigation"
	"github.com/hayasedb/podplay/internal/tui/ui"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type qualityItem struct {
	quality models.QualityURL
	current bool
}

func (i qualityItem) Title() string       { return i.quality.Label() }
func (i qualityItem) Marked() bool        { return i.current }
func (i qualityItem) Description() string { return "" }
func (i qualityItem) FilterValue() string { return i.quality.Label() }

// QualityView is the quality picker popup. While it is open the controller
// reports a popup overlay so fullscreen exits leave the engine alone.
type QualityView struct {
	ctx    context.Context
	state  *navigation.State
	ctrl   *controller.Controller
	list   list.Model
	footer *ui.Footer
}

func NewQualityView(ctx context.Context, state *navigation.State, ctrl *controller.Controller) *QualityView {
	l := list.New([]list.Item{}, ui.NewMarkerDelegate("● playing"), 30, 10)
	l.Title = "Quality"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)

	footer := ui.NewFooter()
	footer.SetKeys(ui.QualityPickerKeys())

	return &QualityView{
		ctx:    ctx,
		state:  state,
		ctrl:   ctrl,
		list:   l,
		footer: footer,
	}
}

func (v *QualityView) Open() {
	current := v.ctrl.CurrentQuality()
	qualities := v.ctrl.Qualities()

	items := make([]list.Item, len(qualities))
	selected := 0
	for i, q := range qualities {
		items[i] = qualityItem{quality: q, current: q.Quality == current}
		if q.Quality == current {
			selected = i
		}
	}
	v.list.SetItems(items)
	v.list.Select(selected)
	v.ctrl.SetPopupOverlayOpen(true)
}

func (v *QualityView) close() {
	v.ctrl.SetPopupOverlayOpen(false)
	v.state.NavigateBack()
}

func (v *QualityView) Update(msg tea.Msg) (*QualityView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			v.close()
			return v, nil
		case "enter":
			item, ok := v.list.SelectedItem().(qualityItem)
			v.close()
			if !ok || item.current {
				return v, nil
			}
			q := item.quality.Quality
			ctx := v.ctx
			return v, func() tea.Msg {
				err := v.ctrl.ChangeQuality(ctx, q)
				if err != nil {
					err = fmt.Errorf("failed to switch to %s: %w", item.quality.Label(), err)
				}
				return CommandDoneMsg{Action: "change_quality", Err: err}
			}
		}

	case tea.WindowSizeMsg:
		h := msg.Height - 6
		if h < 4 {
			h = 4
		}
		v.list.SetSize(msg.Width-4, h)
		return v, nil
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *QualityView) View() string {
	return lipgloss.NewStyle().MarginLeft(2).MarginTop(1).Render(v.list.View()) + "\n" + v.footer.View()
}
