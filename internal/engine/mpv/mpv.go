package mpv

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/go-mpv"

	"github.com/hayasedb/podplay/internal/engine"
	"github.com/hayasedb/podplay/internal/models"
	"github.com/hayasedb/podplay/internal/quality"
)

var errNotStarted = errors.New("mpv engine not started")

var observedProperties = []struct {
	name   string
	format mpv.Format
}{
	{"pause", mpv.FormatFlag},
	{"paused-for-cache", mpv.FormatFlag},
	{"loop-file", mpv.FormatString},
	{"mute", mpv.FormatFlag},
	{"fullscreen", mpv.FormatFlag},
	{"time-pos", mpv.FormatDouble},
	{"duration", mpv.FormatDouble},
}

type mpvOption struct {
	name  string
	value string
}

type Engine struct {
	resolver *quality.System

	mu           sync.Mutex
	m            *mpv.Mpv
	source       models.VideoSource
	config       models.PlayerConfig
	showMoreIcon bool

	holder      *engine.Holder
	initialized bool

	muted          bool
	fullscreen     bool
	popupOpen      bool
	overlayVisible bool
	doubleTapSecs  int

	qualities []models.QualityURL
	quality   int
	onQuality func(int)

	loaded   chan error
	stopLoop chan struct{}
	loopDone chan struct{}

	gone     chan struct{}
	goneOnce sync.Once
}

func New(resolver *quality.System) *Engine {
	if resolver == nil {
		resolver = quality.DefaultSystem()
	}
	return &Engine{
		resolver:      resolver,
		doubleTapSecs: 10,
		loaded:        make(chan error, 1),
		gone:          make(chan struct{}),
	}
}

// Done is closed when mpv shuts down on its own, e.g. the user closed the
// window or pressed q in it.
func (e *Engine) Done() <-chan struct{} {
	return e.gone
}

func (e *Engine) markGone() {
	e.goneOnce.Do(func() { close(e.gone) })
}

func (e *Engine) Configure(source models.VideoSource, cfg models.PlayerConfig, showMoreIcon bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.source = source
	e.config = cfg
	e.showMoreIcon = showMoreIcon
	e.muted = cfg.StartMuted
}

func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	if e.initialized {
		e.mu.Unlock()
		return nil
	}
	source, cfg := e.source, e.config
	e.mu.Unlock()

	urls, err := e.resolver.Resolve(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", source, err)
	}

	chosen, ok := quality.Select(urls, cfg.InitialQuality, cfg.QualityPriority)
	if !ok {
		return fmt.Errorf("no playable URL for %s", source)
	}

	m := mpv.New()
	if m == nil {
		return fmt.Errorf("failed to create mpv instance")
	}

	if err := e.configureMPV(m, source, cfg); err != nil {
		m.TerminateDestroy()
		return fmt.Errorf("failed to configure MPV: %w", err)
	}

	if err := m.Initialize(); err != nil {
		m.TerminateDestroy()
		return fmt.Errorf("failed to initialize MPV: %w", err)
	}

	for i, prop := range observedProperties {
		if err := m.ObserveProperty(uint64(i+1), prop.name, prop.format); err != nil {
			log.Debug("Failed to observe property", "property", prop.name, "error", err)
		}
	}

	e.mu.Lock()
	// Close may already have run while mpv was being set up; it only sees
	// e.m once assigned, so a cancelled context is handled here.
	if err := ctx.Err(); err != nil {
		e.mu.Unlock()
		m.TerminateDestroy()
		return err
	}
	e.m = m
	e.holder = engine.NewHolder()
	e.qualities = urls
	e.quality = chosen.Quality
	e.stopLoop = make(chan struct{})
	e.loopDone = make(chan struct{})
	stop, done := e.stopLoop, e.loopDone
	e.mu.Unlock()

	go e.eventLoop(m, stop, done)

	log.Info("Loading video", "source", source.String(), "quality", chosen.Label())

	if err := e.load(ctx, m, chosen.URL); err != nil {
		e.ReleaseValue()
		if cerr := e.Close(); cerr != nil {
			log.Debug("Failed to close mpv after load error", "error", cerr)
		}
		return err
	}

	e.mu.Lock()
	e.initialized = true
	h := e.holder
	e.mu.Unlock()

	h.Update(func(s *models.PlaybackState) {
		s.Initialized = true
		s.Looping = cfg.Looping
		s.Playing = cfg.AutoPlay
	})

	return nil
}

func (e *Engine) configureMPV(m *mpv.Mpv, source models.VideoSource, cfg models.PlayerConfig) error {
	options := []mpvOption{
		{"input-default-bindings", "yes"},
		{"input-vo-keyboard", "yes"},
		{"osc", "yes"},
		{"vo", "gpu"},
		{"hwdec", orDefault(cfg.HWDec, "auto")},
		{"cache", "yes"},
		{"network-timeout", "30"},
		{"keep-open", "yes"},
		{"terminal", "no"},
		{"pause", yesNo(!cfg.AutoPlay)},
		{"mute", yesNo(cfg.StartMuted)},
		{"loop-file", loopValue(cfg.Looping)},
	}

	switch runtime.GOOS {
	case "linux":
		options = append(options, mpvOption{"ao", "pulse,alsa"})
	case "darwin":
		options = append(options, mpvOption{"ao", "coreaudio"})
	}

	if cfg.Title != "" {
		options = append(options, mpvOption{"force-media-title", cfg.Title})
	}

	if len(source.Headers) > 0 {
		fields := make([]string, 0, len(source.Headers))
		for k, v := range source.Headers {
			fields = append(fields, k+": "+v)
		}
		options = append(options, mpvOption{"http-header-fields", strings.Join(fields, ",")})
	}

	for _, opt := range options {
		if err := m.SetOptionString(opt.name, opt.value); err != nil {
			log.Debug("Failed to set mpv option", "option", opt.name, "value", opt.value, "error", err)
		}
	}

	if err := m.RequestLogMessages("info"); err != nil {
		log.Debug("Failed to request log messages", "error", err)
	}

	return nil
}

// load replaces the current file and waits until mpv reports it loaded.
func (e *Engine) load(ctx context.Context, m *mpv.Mpv, url string) error {
	select {
	case <-e.loaded:
	default:
	}

	if err := m.Command([]string{"loadfile", url, "replace"}); err != nil {
		return fmt.Errorf("failed to load file: %w", err)
	}

	select {
	case err := <-e.loaded:
		if err != nil {
			return fmt.Errorf("failed to open video: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) signalLoaded(err error) {
	select {
	case e.loaded <- err:
	default:
	}
}

func (e *Engine) eventLoop(m *mpv.Mpv, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			log.Debug("MPV event loop stopped")
			return
		default:
		}

		event := m.WaitEvent(0.25)

		switch event.EventID {
		case mpv.EventNone:
			continue

		case mpv.EventPropertyChange:
			prop := event.Property()
			e.applyProperty(prop.Name, prop.Data)

		case mpv.EventFileLoaded:
			log.Debug("File loaded successfully")
			e.signalLoaded(nil)

		case mpv.EventStart:
			log.Debug("Playback started", "entry_id", event.StartFile().EntryID)

		case mpv.EventEnd:
			ef := event.EndFile()
			log.Debug("Playback ended", "entry_id", ef.EntryID, "reason", ef.Reason)
			if ef.Reason == mpv.EndFileError {
				log.Error("Playback error", "error", ef.Error)
				e.signalLoaded(fmt.Errorf("playback error: %v", ef.Error))
			}

		case mpv.EventShutdown:
			log.Debug("MPV shutdown")
			e.signalLoaded(errors.New("mpv shut down"))
			e.markGone()
			return

		case mpv.EventLogMsg:
			msg := event.LogMessage()
			log.Debug("MPV log", "level", msg.Level, "text", strings.TrimSpace(msg.Text))

		default:
			log.Debug("Unhandled MPV event", "event_id", event.EventID)
		}

		if event.Error != nil {
			log.Debug("Event error", "error", event.Error)
		}
	}
}

func (e *Engine) player() (*mpv.Mpv, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.m == nil {
		return nil, errNotStarted
	}
	return e.m, nil
}

func (e *Engine) State() (models.PlaybackState, bool) {
	e.mu.Lock()
	h := e.holder
	e.mu.Unlock()
	if h == nil {
		return models.PlaybackState{}, false
	}
	return h.Snapshot(), true
}

func (e *Engine) Subscribe(fn func(models.PlaybackState)) int {
	e.mu.Lock()
	h := e.holder
	e.mu.Unlock()
	if h == nil {
		return 0
	}
	return h.Subscribe(fn)
}

func (e *Engine) Unsubscribe(id int) {
	e.mu.Lock()
	h := e.holder
	e.mu.Unlock()
	if h != nil {
		h.Unsubscribe(id)
	}
}

func (e *Engine) SetPlaying(playing bool) error {
	m, err := e.player()
	if err != nil {
		return err
	}
	return m.SetProperty("pause", mpv.FormatFlag, !playing)
}

func (e *Engine) SeekTo(pos time.Duration) error {
	return e.seek(pos, "absolute")
}

func (e *Engine) SeekForward(d time.Duration) error {
	return e.seek(d, "relative")
}

func (e *Engine) SeekBackward(d time.Duration) error {
	return e.seek(-d, "relative")
}

func (e *Engine) seek(d time.Duration, mode string) error {
	m, err := e.player()
	if err != nil {
		return err
	}
	return m.Command([]string{"seek", formatSeconds(d), mode})
}

func (e *Engine) Mute() error {
	return e.setMute(true)
}

func (e *Engine) UnMute() error {
	return e.setMute(false)
}

func (e *Engine) setMute(muted bool) error {
	m, err := e.player()
	if err != nil {
		return err
	}
	if err := m.SetProperty("mute", mpv.FormatFlag, muted); err != nil {
		return err
	}
	e.mu.Lock()
	e.muted = muted
	e.mu.Unlock()
	return nil
}

func (e *Engine) IsMute() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *Engine) IsFullScreen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fullscreen
}

// RequestFullScreen and ExitFullScreen make the engine usable as the
// controller's display: the mpv window is the platform surface.
func (e *Engine) RequestFullScreen() error {
	return e.setWindowFullScreen(true)
}

func (e *Engine) ExitFullScreen() error {
	return e.setWindowFullScreen(false)
}

func (e *Engine) setWindowFullScreen(on bool) error {
	m, err := e.player()
	if err != nil {
		return err
	}
	return m.SetProperty("fullscreen", mpv.FormatFlag, on)
}

func (e *Engine) EnableFullScreen(showMoreIcon bool) error {
	if err := e.setWindowFullScreen(true); err != nil {
		return err
	}
	e.mu.Lock()
	e.fullscreen = true
	e.showMoreIcon = showMoreIcon
	e.mu.Unlock()

	visibility := "auto"
	if showMoreIcon {
		visibility = "always"
	}
	return e.scriptMessage("osc-visibility", visibility)
}

func (e *Engine) DisableFullScreen() error {
	if err := e.setWindowFullScreen(false); err != nil {
		return err
	}
	e.mu.Lock()
	e.fullscreen = false
	e.mu.Unlock()
	return e.scriptMessage("osc-visibility", "auto")
}

func (e *Engine) scriptMessage(args ...string) error {
	m, err := e.player()
	if err != nil {
		return err
	}
	return m.Command(append([]string{"script-message"}, args...))
}

func (e *Engine) IsPopupOverlayOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.popupOpen
}

func (e *Engine) SetPopupOverlayOpen(open bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.popupOpen = open
}

func (e *Engine) ChangeVideo(ctx context.Context, source models.VideoSource, cfg models.PlayerConfig) error {
	e.mu.Lock()
	e.source = source
	e.config = cfg
	m := e.m
	started := e.initialized
	e.mu.Unlock()

	if !started || m == nil {
		return nil
	}

	urls, err := e.resolver.Resolve(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", source, err)
	}
	chosen, ok := quality.Select(urls, cfg.InitialQuality, cfg.QualityPriority)
	if !ok {
		return fmt.Errorf("no playable URL for %s", source)
	}

	if err := m.SetPropertyString("loop-file", loopValue(cfg.Looping)); err != nil {
		log.Debug("Failed to set loop-file", "error", err)
	}
	if cfg.Title != "" {
		if err := m.SetPropertyString("force-media-title", cfg.Title); err != nil {
			log.Debug("Failed to set media title", "error", err)
		}
	}

	if err := e.load(ctx, m, chosen.URL); err != nil {
		return err
	}

	e.mu.Lock()
	e.qualities = urls
	e.quality = chosen.Quality
	e.mu.Unlock()

	if !cfg.AutoPlay {
		return e.SetPlaying(false)
	}
	return e.SetPlaying(true)
}

func (e *Engine) DoubleTapForward(seconds int) error {
	return e.doubleTap(seconds, 1)
}

func (e *Engine) DoubleTapBackward(seconds int) error {
	return e.doubleTap(seconds, -1)
}

func (e *Engine) doubleTap(seconds, direction int) error {
	if seconds <= 0 {
		e.mu.Lock()
		seconds = e.doubleTapSecs
		e.mu.Unlock()
	}

	d := time.Duration(direction*seconds) * time.Second
	if err := e.seek(d, "relative"); err != nil {
		return err
	}

	m, err := e.player()
	if err != nil {
		return err
	}
	text := fmt.Sprintf("%+ds", direction*seconds)
	if err := m.Command([]string{"show-text", text, "800"}); err != nil {
		log.Debug("Failed to show seek text", "error", err)
	}
	return nil
}

func (e *Engine) SetDoubleTapSeconds(seconds int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doubleTapSecs = seconds
}

func (e *Engine) SetOverlayVisible(visible bool) {
	e.mu.Lock()
	e.overlayVisible = visible
	e.mu.Unlock()

	visibility := "auto"
	if visible {
		visibility = "always"
	}
	if err := e.scriptMessage("osc-visibility", visibility); err != nil && !errors.Is(err, errNotStarted) {
		log.Debug("Failed to change overlay visibility", "error", err)
	}
}

func (e *Engine) OverlayVisible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.overlayVisible
}

func (e *Engine) CurrentQuality() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quality
}

func (e *Engine) Qualities() []models.QualityURL {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.QualityURL(nil), e.qualities...)
}

// ChangeQuality reloads the stream at another quality and resumes from the
// current position.
func (e *Engine) ChangeQuality(ctx context.Context, q int) error {
	m, err := e.player()
	if err != nil {
		return err
	}

	target, ok := findQuality(e.Qualities(), q)
	if !ok {
		return fmt.Errorf("quality %dp not available", q)
	}

	st, _ := e.State()

	log.Info("Changing quality", "quality", target.Label(), "position", st.Position)

	if err := e.load(ctx, m, target.URL); err != nil {
		return err
	}
	if st.Position > 0 {
		if err := e.seek(st.Position, "absolute"); err != nil {
			log.Debug("Failed to restore position", "error", err)
		}
	}

	e.mu.Lock()
	e.quality = target.Quality
	cb := e.onQuality
	e.mu.Unlock()

	if cb != nil {
		cb(target.Quality)
	}
	return nil
}

func (e *Engine) OnQualityChanged(fn func(quality int)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onQuality = fn
}

func (e *Engine) DetachInternalListener() {
	e.mu.Lock()
	stop, done := e.stopLoop, e.loopDone
	e.stopLoop, e.loopDone = nil, nil
	e.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (e *Engine) ReleaseValue() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.holder != nil {
		e.holder.Clear()
	}
	e.holder = nil
	e.initialized = false
}

func (e *Engine) RemoveStateListener() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onQuality = nil
}

func (e *Engine) Close() error {
	e.DetachInternalListener()

	e.mu.Lock()
	m := e.m
	e.m = nil
	e.mu.Unlock()

	if m != nil {
		m.TerminateDestroy()
	}
	return nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func loopValue(looping bool) string {
	if looping {
		return "inf"
	}
	return "no"
}

var (
	_ engine.Engine  = (*Engine)(nil)
	_ engine.Display = (*Engine)(nil)
)
