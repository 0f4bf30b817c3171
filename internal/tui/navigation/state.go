package navigation

type ViewState int

const (
	LoadingView ViewState = iota
	PlayerView
	QualityView
)

func (v ViewState) String() string {
	switch v {
	case LoadingView:
		return "loading"
	case PlayerView:
		return "player"
	case QualityView:
		return "quality"
	default:
		return "unknown"
	}
}

type State struct {
	current  ViewState
	width    int
	height   int
	quitting bool
}

func NewState() *State {
	return &State{
		current: LoadingView,
	}
}

func (s *State) GetCurrentView() ViewState {
	return s.current
}

func (s *State) SetCurrentView(view ViewState) {
	s.current = view
}

func (s *State) SetDimensions(width, height int) {
	s.width = width
	s.height = height
}

func (s *State) GetDimensions() (int, int) {
	return s.width, s.height
}

func (s *State) SetQuitting(quit bool) {
	s.quitting = quit
}

func (s *State) IsQuitting() bool {
	return s.quitting
}

func (s *State) NavigateForward() {
	switch s.current {
	case LoadingView:
		s.current = PlayerView
	case PlayerView:
		s.current = QualityView
	case QualityView:
	}
}

func (s *State) NavigateBack() {
	switch s.current {
	case LoadingView:
	case PlayerView:
	case QualityView:
		s.current = PlayerView
	}
}
