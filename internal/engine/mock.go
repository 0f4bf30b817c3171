package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hayasedb/podplay/internal/models"
)

var errMockNotInitialized = errors.New("mock engine not initialized")

// Mock is a test double for Engine. It records every call by name.
type Mock struct {
	mu sync.Mutex

	source       models.VideoSource
	config       models.PlayerConfig
	showMoreIcon bool

	holder      *Holder
	initialized bool
	initCalls   int
	initErr     error
	initPanic   any
	initGate    chan struct{}

	muted          bool
	fullscreen     bool
	popupOpen      bool
	overlayVisible bool
	doubleTapSecs  int
	quality        int
	qualities      []models.QualityURL
	onQuality      func(int)

	calls     []string
	seekCalls []time.Duration
}

func NewMock() *Mock {
	return &Mock{doubleTapSecs: 10}
}

func (m *Mock) record(call string) {
	m.calls = append(m.calls, call)
}

func (m *Mock) Configure(source models.VideoSource, cfg models.PlayerConfig, showMoreIcon bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("configure")
	m.source = source
	m.config = cfg
	m.showMoreIcon = showMoreIcon
	m.muted = cfg.StartMuted
}

func (m *Mock) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

func (m *Mock) Init(ctx context.Context) error {
	m.mu.Lock()
	m.initCalls++
	m.record("init")
	gate := m.initGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	if m.initPanic != nil {
		p := m.initPanic
		m.mu.Unlock()
		panic(p)
	}
	if m.initErr != nil {
		err := m.initErr
		m.mu.Unlock()
		return err
	}
	m.initialized = true
	if m.holder == nil {
		m.holder = NewHolder()
	}
	h := m.holder
	looping := m.config.Looping
	m.mu.Unlock()

	h.Update(func(s *models.PlaybackState) {
		s.Initialized = true
		s.Looping = looping
	})
	return nil
}

func (m *Mock) State() (models.PlaybackState, bool) {
	m.mu.Lock()
	h := m.holder
	m.mu.Unlock()
	if h == nil {
		return models.PlaybackState{}, false
	}
	return h.Snapshot(), true
}

func (m *Mock) Subscribe(fn func(models.PlaybackState)) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("subscribe")
	if m.holder == nil {
		return 0
	}
	return m.holder.Subscribe(fn)
}

func (m *Mock) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("unsubscribe")
	if m.holder != nil {
		m.holder.Unsubscribe(id)
	}
}

func (m *Mock) update(call string, fn func(*models.PlaybackState)) error {
	m.mu.Lock()
	m.record(call)
	h := m.holder
	m.mu.Unlock()
	if h == nil {
		return errMockNotInitialized
	}
	h.Update(fn)
	return nil
}

func (m *Mock) SetPlaying(playing bool) error {
	call := "pause"
	if playing {
		call = "play"
	}
	return m.update(call, func(s *models.PlaybackState) { s.Playing = playing })
}

func (m *Mock) SeekTo(pos time.Duration) error {
	m.mu.Lock()
	m.seekCalls = append(m.seekCalls, pos)
	m.mu.Unlock()
	return m.update("seek_to", func(s *models.PlaybackState) { s.Position = pos })
}

func (m *Mock) SeekForward(d time.Duration) error {
	return m.update("seek_forward", func(s *models.PlaybackState) { s.Position += d })
}

func (m *Mock) SeekBackward(d time.Duration) error {
	return m.update("seek_backward", func(s *models.PlaybackState) {
		s.Position -= d
		if s.Position < 0 {
			s.Position = 0
		}
	})
}

func (m *Mock) Mute() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("mute")
	m.muted = true
	return nil
}

func (m *Mock) UnMute() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("unmute")
	m.muted = false
	return nil
}

func (m *Mock) IsMute() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *Mock) IsFullScreen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fullscreen
}

func (m *Mock) EnableFullScreen(showMoreIcon bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("enable_fullscreen")
	m.fullscreen = true
	m.showMoreIcon = showMoreIcon
	return nil
}

func (m *Mock) DisableFullScreen() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("disable_fullscreen")
	m.fullscreen = false
	return nil
}

func (m *Mock) IsPopupOverlayOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.popupOpen
}

func (m *Mock) SetPopupOverlayOpen(open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.popupOpen = open
}

func (m *Mock) ChangeVideo(_ context.Context, source models.VideoSource, cfg models.PlayerConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("change_video")
	m.source = source
	m.config = cfg
	return nil
}

func (m *Mock) DoubleTapForward(seconds int) error {
	return m.update(fmt.Sprintf("double_tap_forward:%d", seconds), func(s *models.PlaybackState) {
		s.Position += time.Duration(seconds) * time.Second
	})
}

func (m *Mock) DoubleTapBackward(seconds int) error {
	return m.update(fmt.Sprintf("double_tap_backward:%d", seconds), func(s *models.PlaybackState) {
		s.Position -= time.Duration(seconds) * time.Second
		if s.Position < 0 {
			s.Position = 0
		}
	})
}

func (m *Mock) SetDoubleTapSeconds(seconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doubleTapSecs = seconds
}

func (m *Mock) SetOverlayVisible(visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("overlay:%t", visible))
	m.overlayVisible = visible
}

func (m *Mock) OverlayVisible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlayVisible
}

func (m *Mock) CurrentQuality() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quality
}

func (m *Mock) Qualities() []models.QualityURL {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.QualityURL(nil), m.qualities...)
}

func (m *Mock) ChangeQuality(_ context.Context, quality int) error {
	m.mu.Lock()
	m.record(fmt.Sprintf("change_quality:%d", quality))
	found := false
	for _, q := range m.qualities {
		if q.Quality == quality {
			found = true
			break
		}
	}
	if !found {
		m.mu.Unlock()
		return fmt.Errorf("quality %dp not available", quality)
	}
	m.quality = quality
	cb := m.onQuality
	m.mu.Unlock()

	if cb != nil {
		cb(quality)
	}
	return nil
}

func (m *Mock) OnQualityChanged(fn func(quality int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onQuality = fn
}

func (m *Mock) DetachInternalListener() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("detach_internal_listener")
}

func (m *Mock) ReleaseValue() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("release_value")
	if m.holder != nil {
		m.holder.Clear()
	}
	m.holder = nil
	m.initialized = false
}

func (m *Mock) RemoveStateListener() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("remove_state_listener")
	m.onQuality = nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("close")
	return nil
}

// Test helpers

// BlockInit makes Init wait until the returned function is called.
func (m *Mock) BlockInit() (release func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gate := make(chan struct{})
	m.initGate = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (m *Mock) SetInitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initErr = err
}

func (m *Mock) SetInitPanic(v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initPanic = v
}

func (m *Mock) InitCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initCalls
}

func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

func (m *Mock) Source() models.VideoSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

func (m *Mock) ShowMoreIcon() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.showMoreIcon
}

func (m *Mock) DoubleTapSeconds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doubleTapSecs
}

func (m *Mock) SetQualities(urls []models.QualityURL, current int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.qualities = urls
	m.quality = current
}

// SetState mutates the held value directly, as the engine's event loop would.
func (m *Mock) SetState(fn func(*models.PlaybackState)) {
	m.mu.Lock()
	h := m.holder
	m.mu.Unlock()
	if h != nil {
		h.Update(fn)
	}
}

var _ Engine = (*Mock)(nil)
