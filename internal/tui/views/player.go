package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hayasedb/podplay/internal/controller"
	"github.com/hayasedb/podplay/internal/models"
	"github.com/hayasedb/podplay/internal/tui/navigation"
	"github.com/hayasedb/podplay/internal/tui/ui"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const seekStep = 5 * time.Second

// CommandDoneMsg reports the outcome of a controller command run off the
// update loop.
type CommandDoneMsg struct {
	Action string
	Err    error
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginLeft(2).
			MarginTop(1)
	statusStyle = lipgloss.NewStyle().MarginLeft(2)
	flagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).MarginLeft(2)
)

type PlayerView struct {
	ctx      context.Context
	state    *navigation.State
	ctrl     *controller.Controller
	keys     PlayerKeyMap
	footer   *ui.Footer
	progress progress.Model
	lastErr  error
}

func NewPlayerView(ctx context.Context, state *navigation.State, ctrl *controller.Controller) *PlayerView {
	keys := DefaultPlayerKeys()
	footer := ui.NewFooter()
	footer.SetBindings(keys.Bindings()...)

	return &PlayerView{
		ctx:      ctx,
		state:    state,
		ctrl:     ctrl,
		keys:     keys,
		footer:   footer,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (v *PlayerView) Update(msg tea.Msg) (*PlayerView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeys(msg)

	case tea.WindowSizeMsg:
		width := msg.Width - 4
		if width < 10 {
			width = 10
		}
		v.progress.Width = width
		return v, nil

	case CommandDoneMsg:
		v.lastErr = msg.Err
		if msg.Err != nil {
			log.Warn("Player command failed", "action", msg.Action, "error", msg.Err)
		}
		return v, nil
	}

	return v, nil
}

func (v *PlayerView) handleKeys(msg tea.KeyMsg) (*PlayerView, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		v.state.SetQuitting(true)
		return v, tea.Quit
	case key.Matches(msg, v.keys.TogglePlay):
		return v, v.run("toggle_play", v.ctrl.TogglePlayPause)
	case key.Matches(msg, v.keys.Mute):
		return v, v.run("toggle_volume", v.ctrl.ToggleVolume)
	case key.Matches(msg, v.keys.Forward):
		return v, v.run("seek_forward", func(ctx context.Context) error {
			return v.ctrl.SeekForward(ctx, seekStep)
		})
	case key.Matches(msg, v.keys.Backward):
		return v, v.run("seek_backward", func(ctx context.Context) error {
			return v.ctrl.SeekBackward(ctx, seekStep)
		})
	case key.Matches(msg, v.keys.TapForward):
		return v, v.run("double_tap_forward", func(ctx context.Context) error {
			return v.ctrl.DoubleTapForward(ctx, 0)
		})
	case key.Matches(msg, v.keys.TapBackward):
		return v, v.run("double_tap_backward", func(ctx context.Context) error {
			return v.ctrl.DoubleTapBackward(ctx, 0)
		})
	case key.Matches(msg, v.keys.Fullscreen):
		return v, v.run("fullscreen", func(ctx context.Context) error {
			if v.ctrl.IsFullScreen() {
				return v.ctrl.DisableFullScreen(ctx)
			}
			return v.ctrl.EnableFullScreen(ctx)
		})
	case key.Matches(msg, v.keys.Overlay):
		return v, v.run("overlay", func(ctx context.Context) error {
			if v.ctrl.IsOverlayVisible() {
				v.ctrl.HideOverlay(ctx)
			} else {
				v.ctrl.ShowOverlay(ctx)
			}
			return nil
		})
	case key.Matches(msg, v.keys.Quality):
		if len(v.ctrl.Qualities()) > 1 {
			v.state.NavigateForward()
		}
		return v, nil
	}
	return v, nil
}

func (v *PlayerView) run(action string, fn func(context.Context) error) tea.Cmd {
	ctx := v.ctx
	return func() tea.Msg {
		return CommandDoneMsg{Action: action, Err: fn(ctx)}
	}
}

func (v *PlayerView) View() string {
	var b strings.Builder

	title := v.ctrl.Config().Title
	if title == "" {
		title = v.ctrl.Source().String()
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	st := v.ctrl.VideoState()
	b.WriteString(statusStyle.Render(fmt.Sprintf("%s  %s / %s",
		playbackLabel(st), formatDuration(st.Position), formatDuration(st.Duration))))
	b.WriteString("\n")

	b.WriteString(statusStyle.Render(v.progress.ViewAs(progressRatio(st))))
	b.WriteString("\n\n")
	b.WriteString(statusStyle.Render(flagStyle.Render(v.flags())))

	if v.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + v.lastErr.Error()))
	}

	b.WriteString("\n")
	b.WriteString(v.footer.View())
	return b.String()
}

func (v *PlayerView) flags() string {
	parts := []string{
		"quality " + models.QualityURL{Quality: v.ctrl.CurrentQuality()}.Label(),
	}
	if v.ctrl.IsMute() {
		parts = append(parts, "muted")
	}
	if v.ctrl.IsVideoLooping() {
		parts = append(parts, "loop")
	}
	if v.ctrl.IsFullScreen() {
		parts = append(parts, "fullscreen")
	}
	if v.ctrl.Source().Live {
		parts = append(parts, "live")
	}
	return strings.Join(parts, " · ")
}

func playbackLabel(st models.PlaybackState) string {
	switch {
	case !st.Initialized:
		return "○ Idle"
	case st.Buffering:
		return "◌ Buffering"
	case st.Playing:
		return "▶ Playing"
	default:
		return "⏸ Paused"
	}
}

func progressRatio(st models.PlaybackState) float64 {
	if st.Duration <= 0 {
		return 0
	}
	r := float64(st.Position) / float64(st.Duration)
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
