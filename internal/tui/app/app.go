package app

import (
	"context"
	"time"

	"github.com/hayasedb/podplay/internal/controller"
	"github.com/hayasedb/podplay/internal/tui/navigation"
	"github.com/hayasedb/podplay/internal/tui/ui"
	"github.com/hayasedb/podplay/internal/tui/views"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const refreshInterval = 500 * time.Millisecond

type InitialisedMsg struct {
	Err error
}

type refreshMsg time.Time

// PlaybackEndedMsg is sent when the player window goes away.
type PlaybackEndedMsg struct{}

type Model struct {
	state       *navigation.State
	ctrl        *controller.Controller
	loading     ui.Loading
	footer      *ui.Footer
	playerView  *views.PlayerView
	qualityView *views.QualityView
	ctx         context.Context
	cancelFunc  context.CancelFunc
	err         error
}

func NewModel(ctx context.Context, cancelFunc context.CancelFunc, ctrl *controller.Controller) *Model {
	state := navigation.NewState()

	footer := ui.NewFooter()
	footer.SetKeys(ui.LoadingKeys())

	return &Model{
		state:       state,
		ctrl:        ctrl,
		loading:     ui.NewLoading("Opening " + ctrl.Source().String()),
		footer:      footer,
		playerView:  views.NewPlayerView(ctx, state, ctrl),
		qualityView: views.NewQualityView(ctx, state, ctrl),
		ctx:         ctx,
		cancelFunc:  cancelFunc,
	}
}

// Err returns the initialisation failure that ended the program, if any.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loading.Tick(), m.initialise(), refresh())
}

func (m *Model) initialise() tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return InitialisedMsg{Err: m.ctrl.Initialise(ctx)}
	}
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			log.Debug("Ctrl+C pressed in TUI, cancelling context and exiting")
			if m.cancelFunc != nil {
				m.cancelFunc()
			}
			m.state.SetQuitting(true)
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.state.SetDimensions(msg.Width, msg.Height)
		m.playerView, _ = m.playerView.Update(msg)
		m.qualityView, _ = m.qualityView.Update(msg)
		return m, nil

	case InitialisedMsg:
		if msg.Err != nil {
			log.Error("Failed to initialise playback", "error", msg.Err)
			m.err = msg.Err
			m.state.SetQuitting(true)
			return m, tea.Quit
		}
		if m.state.GetCurrentView() == navigation.LoadingView {
			m.state.NavigateForward()
		}
		return m, nil

	case PlaybackEndedMsg:
		log.Info("Player closed")
		m.state.SetQuitting(true)
		return m, tea.Quit

	case refreshMsg:
		// views read controller state on render, the tick only forces a redraw
		return m, refresh()

	case spinner.TickMsg:
		if m.state.GetCurrentView() != navigation.LoadingView {
			return m, nil
		}
		var cmd tea.Cmd
		m.loading, cmd = m.loading.Update(msg)
		return m, cmd

	case views.CommandDoneMsg:
		m.playerView, _ = m.playerView.Update(msg)
		return m, nil
	}

	currentView := m.state.GetCurrentView()
	previousView := currentView

	var cmd tea.Cmd
	switch currentView {
	case navigation.LoadingView:
	case navigation.PlayerView:
		m.playerView, cmd = m.playerView.Update(msg)
	case navigation.QualityView:
		m.qualityView, cmd = m.qualityView.Update(msg)
	}

	if m.state.GetCurrentView() != previousView {
		m.handleViewTransition(m.state.GetCurrentView())
	}

	return m, cmd
}

func (m *Model) handleViewTransition(to navigation.ViewState) {
	switch to {
	case navigation.QualityView:
		m.qualityView.Open()
	case navigation.LoadingView, navigation.PlayerView:
	}
}

func (m *Model) View() string {
	if m.state.IsQuitting() {
		if m.err != nil {
			return lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Render("\n  Error: "+m.err.Error()) + "\n\n"
		}
		return "\n  Goodbye!\n\n"
	}

	switch m.state.GetCurrentView() {
	case navigation.PlayerView:
		return m.playerView.View()
	case navigation.QualityView:
		return m.qualityView.View()
	default:
		return m.loading.View() + "\n" + m.footer.View()
	}
}
