// Package controller is the application-facing handle on one playback
// session. It owns an engine, gates every playback command on engine
// initialization and forwards state reads straight to the engine.
//
// Commands issued before initialization completes wait for it. If the
// caller's context ends, the gate timeout elapses or the controller is
// disposed first, the command is dropped and returns nil.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/hayasedb/podplay/internal/engine"
	"github.com/hayasedb/podplay/internal/models"
	"github.com/hayasedb/podplay/internal/wakelock"
)

var ErrDisposed = errors.New("controller disposed")

type ListenerID int

type Option func(*Controller)

func WithDisplay(d engine.Display) Option {
	return func(c *Controller) {
		c.display = d
	}
}

func WithWakeLock(l wakelock.Lock) Option {
	return func(c *Controller) {
		c.wakeLock = l
	}
}

// WithGateTimeout bounds how long a command waits for initialization.
// Zero waits until the caller's context ends.
func WithGateTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.gateTimeout = d
	}
}

type initAttempt struct {
	done chan struct{}
	err  error
}

type Controller struct {
	id          string
	logger      *log.Logger
	engine      engine.Engine
	display     engine.Display
	wakeLock    wakelock.Lock
	gateTimeout time.Duration

	mu            sync.Mutex
	source        models.VideoSource
	config        models.PlayerConfig
	showMoreIcon  bool
	doubleTapSecs int
	ready         chan struct{}
	attempt       *initAttempt
	listeners     map[ListenerID]int
	nextListener  ListenerID

	lifetime    context.Context
	cancel      context.CancelFunc
	disposed    chan struct{}
	disposeOnce sync.Once
}

// New configures eng for source but does not start it; call Initialise.
func New(eng engine.Engine, source models.VideoSource, cfg models.PlayerConfig, showMoreIcon bool, opts ...Option) *Controller {
	id := uuid.NewString()
	lifetime, cancel := context.WithCancel(context.Background())

	c := &Controller{
		id:            id,
		logger:        log.With("session", id),
		engine:        eng,
		display:       engine.NopDisplay{},
		wakeLock:      &wakelock.Stub{},
		source:        source,
		config:        cfg,
		showMoreIcon:  showMoreIcon,
		doubleTapSecs: cfg.DoubleTapSeconds,
		ready:         make(chan struct{}),
		listeners:     make(map[ListenerID]int),
		lifetime:      lifetime,
		cancel:        cancel,
		disposed:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	eng.Configure(source, cfg, showMoreIcon)
	if c.doubleTapSecs > 0 {
		eng.SetDoubleTapSeconds(c.doubleTapSecs)
	}

	c.logger.Debug("Controller created", "source", source.String(), "show_more_icon", showMoreIcon)

	return c
}

func (c *Controller) ID() string {
	return c.id
}

// Initialise starts engine setup on its own goroutine and waits for it.
// Concurrent and repeated calls share one setup; once the engine reports
// initialized, calls return immediately. A failed setup is returned to every
// waiter and the next call starts a fresh attempt.
func (c *Controller) Initialise(ctx context.Context) error {
	if c.isDisposed() {
		return ErrDisposed
	}

	c.mu.Lock()
	if c.isReadyLocked() {
		c.mu.Unlock()
		return nil
	}
	if c.engine.Initialized() {
		c.markReadyLocked()
		c.mu.Unlock()
		return nil
	}

	a := c.attempt
	if a == nil {
		a = &initAttempt{done: make(chan struct{})}
		c.attempt = a
		c.logger.Debug("Scheduling engine setup")
		go c.setup(a)
	}
	c.mu.Unlock()

	select {
	case <-c.ready:
		return nil
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.disposed:
		return ErrDisposed
	}
}

func (c *Controller) setup(a *initAttempt) {
	err := c.runSetup()

	c.mu.Lock()
	if err != nil {
		a.err = err
		c.attempt = nil
		c.logger.Error("Engine setup failed", "error", err)
	} else if !c.isDisposed() {
		c.markReadyLocked()
		c.logger.Info("Engine initialized", "source", c.source.String())
	}
	c.mu.Unlock()

	close(a.done)
}

func (c *Controller) runSetup() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("engine setup panicked: %w", e)
				return
			}
			err = fmt.Errorf("engine setup panicked: %v", r)
		}
	}()

	if err := c.engine.Init(c.lifetime); err != nil {
		return fmt.Errorf("engine setup failed: %w", err)
	}
	return nil
}

func (c *Controller) isReadyLocked() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

func (c *Controller) markReadyLocked() {
	if !c.isReadyLocked() {
		close(c.ready)
	}
}

func (c *Controller) isDisposed() bool {
	select {
	case <-c.disposed:
		return true
	default:
		return false
	}
}

// awaitGate blocks until the engine is initialized. False means the command
// must be dropped.
func (c *Controller) awaitGate(ctx context.Context, command string) bool {
	if c.isDisposed() {
		c.logger.Debug("Dropping command on disposed controller", "command", command)
		return false
	}

	if c.gateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.gateTimeout)
		defer cancel()
	}

	select {
	case <-c.ready:
		if !c.isDisposed() {
			return true
		}
	case <-ctx.Done():
	case <-c.disposed:
	}

	c.logger.Debug("Dropping command issued before initialization", "command", command)
	return false
}

func (c *Controller) Play(ctx context.Context) error {
	if !c.awaitGate(ctx, "play") {
		return nil
	}
	if err := c.engine.SetPlaying(true); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}
	c.acquireWakeLock()
	return nil
}

func (c *Controller) Pause(ctx context.Context) error {
	if !c.awaitGate(ctx, "pause") {
		return nil
	}
	if err := c.engine.SetPlaying(false); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	c.releaseWakeLock()
	return nil
}

func (c *Controller) TogglePlayPause(ctx context.Context) error {
	if !c.awaitGate(ctx, "toggle_play_pause") {
		return nil
	}
	if c.IsVideoPlaying() {
		return c.Pause(ctx)
	}
	return c.Play(ctx)
}

func (c *Controller) Mute(ctx context.Context) error {
	if !c.awaitGate(ctx, "mute") {
		return nil
	}
	if err := c.engine.Mute(); err != nil {
		return fmt.Errorf("failed to mute: %w", err)
	}
	return nil
}

func (c *Controller) UnMute(ctx context.Context) error {
	if !c.awaitGate(ctx, "unmute") {
		return nil
	}
	if err := c.engine.UnMute(); err != nil {
		return fmt.Errorf("failed to unmute: %w", err)
	}
	return nil
}

func (c *Controller) ToggleVolume(ctx context.Context) error {
	if !c.awaitGate(ctx, "toggle_volume") {
		return nil
	}
	if c.engine.IsMute() {
		return c.UnMute(ctx)
	}
	return c.Mute(ctx)
}

func (c *Controller) SeekTo(ctx context.Context, pos time.Duration) error {
	if !c.awaitGate(ctx, "seek_to") {
		return nil
	}
	if err := c.engine.SeekTo(pos); err != nil {
		return fmt.Errorf("failed to seek to %s: %w", pos, err)
	}
	return nil
}

func (c *Controller) SeekForward(ctx context.Context, d time.Duration) error {
	if !c.awaitGate(ctx, "seek_forward") {
		return nil
	}
	if err := c.engine.SeekForward(d); err != nil {
		return fmt.Errorf("failed to seek forward %s: %w", d, err)
	}
	return nil
}

func (c *Controller) SeekBackward(ctx context.Context, d time.Duration) error {
	if !c.awaitGate(ctx, "seek_backward") {
		return nil
	}
	if err := c.engine.SeekBackward(d); err != nil {
		return fmt.Errorf("failed to seek backward %s: %w", d, err)
	}
	return nil
}

// DoubleTapForward skips ahead like a double tap on the right side of the
// video. seconds <= 0 uses the configured double-tap duration.
func (c *Controller) DoubleTapForward(ctx context.Context, seconds int) error {
	if !c.awaitGate(ctx, "double_tap_forward") {
		return nil
	}
	if err := c.engine.DoubleTapForward(c.tapSeconds(seconds)); err != nil {
		return fmt.Errorf("failed to skip forward: %w", err)
	}
	return nil
}

func (c *Controller) DoubleTapBackward(ctx context.Context, seconds int) error {
	if !c.awaitGate(ctx, "double_tap_backward") {
		return nil
	}
	if err := c.engine.DoubleTapBackward(c.tapSeconds(seconds)); err != nil {
		return fmt.Errorf("failed to skip backward: %w", err)
	}
	return nil
}

func (c *Controller) tapSeconds(seconds int) int {
	if seconds > 0 {
		return seconds
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doubleTapSecs
}

func (c *Controller) SetDoubleTapSeconds(seconds int) {
	if seconds <= 0 {
		return
	}
	c.mu.Lock()
	c.doubleTapSecs = seconds
	c.mu.Unlock()
	c.engine.SetDoubleTapSeconds(seconds)
}

func (c *Controller) ChangeQuality(ctx context.Context, quality int) error {
	if !c.awaitGate(ctx, "change_quality") {
		return nil
	}
	if err := c.engine.ChangeQuality(ctx, quality); err != nil {
		return fmt.Errorf("failed to change quality to %dp: %w", quality, err)
	}
	return nil
}

func (c *Controller) OnVideoQualityChanged(fn func(quality int)) {
	c.engine.OnQualityChanged(fn)
}

// ChangeVideo swaps the active source in place; the controller and its
// listeners stay attached.
func (c *Controller) ChangeVideo(ctx context.Context, source models.VideoSource, cfg models.PlayerConfig) error {
	if c.isDisposed() {
		return ErrDisposed
	}

	c.logger.Info("Changing video", "from", c.Source().String(), "to", source.String())

	if err := c.engine.ChangeVideo(ctx, source, cfg); err != nil {
		return fmt.Errorf("failed to change video: %w", err)
	}

	c.mu.Lock()
	c.source = source
	c.config = cfg
	c.mu.Unlock()
	return nil
}

func (c *Controller) ShowOverlay(ctx context.Context) {
	if !c.awaitGate(ctx, "show_overlay") {
		return
	}
	c.engine.SetOverlayVisible(true)
}

func (c *Controller) HideOverlay(ctx context.Context) {
	if !c.awaitGate(ctx, "hide_overlay") {
		return
	}
	c.engine.SetOverlayVisible(false)
}

func (c *Controller) EnableFullScreen(ctx context.Context) error {
	if !c.awaitGate(ctx, "enable_fullscreen") {
		return nil
	}
	if err := c.display.RequestFullScreen(); err != nil {
		return fmt.Errorf("failed to request fullscreen: %w", err)
	}
	if err := c.engine.EnableFullScreen(c.showMoreIcon); err != nil {
		return fmt.Errorf("failed to enable fullscreen: %w", err)
	}
	return nil
}

// DisableFullScreen leaves fullscreen. While a popup overlay such as the
// quality picker is open the engine keeps its fullscreen layout; the overlay
// has to be dismissed first.
func (c *Controller) DisableFullScreen(ctx context.Context) error {
	if !c.awaitGate(ctx, "disable_fullscreen") {
		return nil
	}
	if err := c.display.ExitFullScreen(); err != nil {
		return fmt.Errorf("failed to exit fullscreen: %w", err)
	}
	if c.engine.IsPopupOverlayOpen() {
		c.logger.Debug("Popup overlay open, keeping engine fullscreen")
		return nil
	}
	if err := c.engine.DisableFullScreen(); err != nil {
		return fmt.Errorf("failed to disable fullscreen: %w", err)
	}
	return nil
}

func (c *Controller) SetPopupOverlayOpen(open bool) {
	c.engine.SetPopupOverlayOpen(open)
}

// AddListener subscribes fn to playback state changes once the engine is
// initialized. The bool is false when the gate did not open.
func (c *Controller) AddListener(ctx context.Context, fn func(models.PlaybackState)) (ListenerID, bool) {
	if !c.awaitGate(ctx, "add_listener") {
		return 0, false
	}

	sub := c.engine.Subscribe(fn)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextListener++
	c.listeners[c.nextListener] = sub
	return c.nextListener, true
}

func (c *Controller) RemoveListener(ctx context.Context, id ListenerID) bool {
	if !c.awaitGate(ctx, "remove_listener") {
		return false
	}

	c.mu.Lock()
	sub, ok := c.listeners[id]
	delete(c.listeners, id)
	c.mu.Unlock()

	if ok {
		c.engine.Unsubscribe(sub)
	}
	return ok
}

// Dispose tears the session down. It is safe to call more than once and
// before or without a successful Initialise.
func (c *Controller) Dispose() {
	c.disposeOnce.Do(func() {
		c.mu.Lock()
		close(c.disposed)
		listeners := c.listeners
		c.listeners = make(map[ListenerID]int)
		c.mu.Unlock()

		c.cancel()

		for _, sub := range listeners {
			c.engine.Unsubscribe(sub)
		}

		c.engine.DetachInternalListener()
		c.engine.ReleaseValue()
		c.engine.RemoveStateListener()

		c.releaseWakeLock()

		if err := c.engine.Close(); err != nil {
			c.logger.Warn("Failed to close engine", "error", err)
		}

		c.logger.Debug("Controller disposed")
	})
}

func (c *Controller) acquireWakeLock() {
	c.mu.Lock()
	enabled := c.config.WakeLock
	c.mu.Unlock()
	if !enabled {
		return
	}
	if err := c.wakeLock.Acquire("Playing video"); err != nil {
		c.logger.Warn("Failed to acquire wake lock", "error", err)
	}
}

func (c *Controller) releaseWakeLock() {
	if !c.wakeLock.Held() {
		return
	}
	if err := c.wakeLock.Release(); err != nil {
		c.logger.Warn("Failed to release wake lock", "error", err)
	}
}
