package views

import "github.com/charmbracelet/bubbles/key"

type PlayerKeyMap struct {
	TogglePlay  key.Binding
	Mute        key.Binding
	Forward     key.Binding
	Backward    key.Binding
	TapForward  key.Binding
	TapBackward key.Binding
	Fullscreen  key.Binding
	Overlay     key.Binding
	Quality     key.Binding
	Quit        key.Binding
}

func DefaultPlayerKeys() PlayerKeyMap {
	return PlayerKeyMap{
		TogglePlay: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "play/pause"),
		),
		Mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		Forward: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "+5s"),
		),
		Backward: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "-5s"),
		),
		TapForward: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "skip"),
		),
		TapBackward: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "rewind"),
		),
		Fullscreen: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fullscreen"),
		),
		Overlay: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "overlay"),
		),
		Quality: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "quality"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k PlayerKeyMap) Bindings() []key.Binding {
	return []key.Binding{
		k.TogglePlay, k.Mute, k.Backward, k.Forward,
		k.TapBackward, k.TapForward, k.Fullscreen, k.Overlay, k.Quality, k.Quit,
	}
}
