package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayasedb/podplay/internal/engine"
	"github.com/hayasedb/podplay/internal/models"
	"github.com/hayasedb/podplay/internal/quality"
	"github.com/hayasedb/podplay/internal/wakelock"
)

type fakeDisplay struct {
	mu    sync.Mutex
	calls []string
}

func (d *fakeDisplay) RequestFullScreen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "request")
	return nil
}

func (d *fakeDisplay) ExitFullScreen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "exit")
	return nil
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *engine.Mock) {
	t.Helper()
	m := engine.NewMock()
	cfg := models.DefaultPlayerConfig()
	c := New(m, models.NetworkSource("https://example.com/video.mp4"), cfg, true, opts...)
	t.Cleanup(c.Dispose)
	return c, m
}

func initialised(t *testing.T, opts ...Option) (*Controller, *engine.Mock) {
	t.Helper()
	c, m := newTestController(t, opts...)
	require.NoError(t, c.Initialise(context.Background()))
	return c, m
}

func shortCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	t.Cleanup(cancel)
	return ctx
}

func without(calls []string, names ...string) []string {
	skip := make(map[string]bool)
	for _, n := range names {
		skip[n] = true
	}
	var out []string
	for _, c := range calls {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}

func TestNew_ConfiguresEngine(t *testing.T) {
	c, m := newTestController(t)

	assert.NotEmpty(t, c.ID())
	assert.Equal(t, []string{"configure"}, m.Calls())
	assert.Equal(t, models.SourceNetwork, m.Source().Kind)
	assert.True(t, m.ShowMoreIcon())
	assert.Equal(t, 10, m.DoubleTapSeconds())
	assert.False(t, c.IsInitialised())
}

func TestCommandsBeforeInitialiseAreDropped(t *testing.T) {
	c, m := newTestController(t)

	assert.NoError(t, c.Play(shortCtx(t)))
	assert.NoError(t, c.Pause(shortCtx(t)))
	assert.NoError(t, c.TogglePlayPause(shortCtx(t)))
	assert.NoError(t, c.SeekTo(shortCtx(t), time.Minute))
	assert.NoError(t, c.SeekForward(shortCtx(t), time.Second))
	assert.NoError(t, c.SeekBackward(shortCtx(t), time.Second))
	assert.NoError(t, c.Mute(shortCtx(t)))
	assert.NoError(t, c.UnMute(shortCtx(t)))
	assert.NoError(t, c.ToggleVolume(shortCtx(t)))
	assert.NoError(t, c.DoubleTapForward(shortCtx(t), 0))
	assert.NoError(t, c.DoubleTapBackward(shortCtx(t), 0))

	assert.Equal(t, []string{"configure"}, m.Calls())
	assert.False(t, c.IsVideoPlaying())
	assert.False(t, c.IsMute())
	assert.Zero(t, c.Position())
}

func TestGateTimeoutDropsCommands(t *testing.T) {
	c, m := newTestController(t, WithGateTimeout(10*time.Millisecond))

	start := time.Now()
	assert.NoError(t, c.Play(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{"configure"}, m.Calls())
}

func TestCommandIssuedBeforeInitialiseAppliesOnceReady(t *testing.T) {
	c, m := newTestController(t)
	release := m.BlockInit()

	played := make(chan error, 1)
	go func() {
		played <- c.Play(context.Background())
	}()

	initDone := make(chan error, 1)
	go func() {
		initDone <- c.Initialise(context.Background())
	}()

	select {
	case <-played:
		t.Fatal("play returned before initialization")
	case <-time.After(30 * time.Millisecond):
	}

	release()
	require.NoError(t, <-initDone)
	require.NoError(t, <-played)

	assert.True(t, c.IsVideoPlaying())
	assert.Contains(t, m.Calls(), "play")
}

func TestInitialise_SetupRunsOnce(t *testing.T) {
	c, m := newTestController(t)
	release := m.BlockInit()

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Initialise(context.Background())
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	release()
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, m.InitCalls())

	require.NoError(t, c.Initialise(context.Background()))
	assert.Equal(t, 1, m.InitCalls())
	assert.True(t, c.IsInitialised())
}

func TestInitialise_EngineAlreadyInitialized(t *testing.T) {
	m := engine.NewMock()
	require.NoError(t, m.Init(context.Background()))

	c := New(m, models.FileSource("/tmp/a.mkv"), models.DefaultPlayerConfig(), false)
	defer c.Dispose()

	require.NoError(t, c.Initialise(context.Background()))
	assert.Equal(t, 1, m.InitCalls())
	assert.True(t, c.IsInitialised())
}

func TestInitialise_ReturnsSetupError(t *testing.T) {
	c, m := newTestController(t)
	setupErr := errors.New("decoder unavailable")
	m.SetInitError(setupErr)

	err := c.Initialise(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, setupErr)
	assert.False(t, c.IsInitialised())

	m.SetInitError(nil)
	require.NoError(t, c.Initialise(context.Background()))
	assert.Equal(t, 2, m.InitCalls())
	assert.True(t, c.IsInitialised())
}

func TestInitialise_WrapsPanics(t *testing.T) {
	c, m := newTestController(t)
	m.SetInitPanic("native crash")

	err := c.Initialise(context.Background())

	assert.ErrorContains(t, err, "native crash")
	assert.False(t, c.IsInitialised())
}

func TestInitialise_WrapsErrorPanics(t *testing.T) {
	c, m := newTestController(t)
	cause := errors.New("bad state")
	m.SetInitPanic(cause)

	assert.ErrorIs(t, c.Initialise(context.Background()), cause)
}

func TestInitialise_ContextCancelled(t *testing.T) {
	c, m := newTestController(t)
	release := m.BlockInit()
	defer release()

	err := c.Initialise(shortCtx(t))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInitialise_AfterDispose(t *testing.T) {
	c, _ := newTestController(t)
	c.Dispose()

	assert.ErrorIs(t, c.Initialise(context.Background()), ErrDisposed)
}

func TestTogglePlayPause(t *testing.T) {
	c, m := initialised(t)
	ctx := context.Background()

	require.NoError(t, c.TogglePlayPause(ctx))
	assert.True(t, c.IsVideoPlaying())

	require.NoError(t, c.TogglePlayPause(ctx))
	assert.False(t, c.IsVideoPlaying())

	assert.Equal(t, []string{"play", "pause"}, without(m.Calls(), "configure", "init"))
}

func TestToggleVolume(t *testing.T) {
	c, m := initialised(t)
	ctx := context.Background()

	require.NoError(t, c.ToggleVolume(ctx))
	assert.True(t, c.IsMute())

	require.NoError(t, c.ToggleVolume(ctx))
	assert.False(t, c.IsMute())

	assert.Equal(t, []string{"mute", "unmute"}, without(m.Calls(), "configure", "init"))
}

func TestSeeking(t *testing.T) {
	c, m := initialised(t)
	ctx := context.Background()

	require.NoError(t, c.SeekTo(ctx, time.Minute))
	require.NoError(t, c.SeekForward(ctx, 10*time.Second))
	require.NoError(t, c.SeekBackward(ctx, 5*time.Second))

	assert.Equal(t, 65*time.Second, c.Position())
	assert.Equal(t, []time.Duration{time.Minute}, m.SeekCalls())
}

func TestDoubleTap(t *testing.T) {
	c, m := initialised(t)
	ctx := context.Background()

	require.NoError(t, c.DoubleTapForward(ctx, 0))
	c.SetDoubleTapSeconds(5)
	require.NoError(t, c.DoubleTapBackward(ctx, 0))
	require.NoError(t, c.DoubleTapForward(ctx, 30))

	assert.Equal(t, []string{
		"double_tap_forward:10",
		"double_tap_backward:5",
		"double_tap_forward:30",
	}, without(m.Calls(), "configure", "init"))
	assert.Equal(t, 5, m.DoubleTapSeconds())
	assert.Equal(t, 35*time.Second, c.Position())
}

func TestGettersDefaultBeforeInitialise(t *testing.T) {
	c, _ := newTestController(t)

	assert.False(t, c.IsVideoPlaying())
	assert.False(t, c.IsVideoBuffering())
	assert.False(t, c.IsVideoLooping())
	assert.Zero(t, c.Position())
	assert.Zero(t, c.Duration())
	assert.Equal(t, models.PlaybackState{}, c.VideoState())
}

func TestGettersPassThrough(t *testing.T) {
	c, m := initialised(t)

	m.SetState(func(s *models.PlaybackState) {
		s.Buffering = true
		s.Looping = true
		s.Duration = 3 * time.Minute
	})
	m.SetQualities([]models.QualityURL{{Quality: 360, URL: "a"}, {Quality: 720, URL: "b"}}, 720)

	assert.True(t, c.IsVideoBuffering())
	assert.True(t, c.IsVideoLooping())
	assert.Equal(t, 3*time.Minute, c.Duration())
	assert.Equal(t, 720, c.CurrentQuality())
	assert.Len(t, c.Qualities(), 2)
	assert.True(t, c.VideoState().Initialized)
}

func TestFullScreen(t *testing.T) {
	display := &fakeDisplay{}
	c, m := initialised(t, WithDisplay(display))

	require.NoError(t, c.EnableFullScreen(context.Background()))
	assert.True(t, c.IsFullScreen())

	require.NoError(t, c.DisableFullScreen(context.Background()))
	assert.False(t, c.IsFullScreen())

	assert.Equal(t, []string{"request", "exit"}, display.calls)
	assert.Equal(t, []string{"enable_fullscreen", "disable_fullscreen"}, without(m.Calls(), "configure", "init"))
}

func TestDisableFullScreen_SkippedWhilePopupOpen(t *testing.T) {
	display := &fakeDisplay{}
	c, m := initialised(t, WithDisplay(display))

	require.NoError(t, c.EnableFullScreen(context.Background()))
	c.SetPopupOverlayOpen(true)

	require.NoError(t, c.DisableFullScreen(context.Background()))

	assert.True(t, c.IsFullScreen())
	assert.NotContains(t, m.Calls(), "disable_fullscreen")
	assert.Equal(t, []string{"request", "exit"}, display.calls)

	c.SetPopupOverlayOpen(false)
	require.NoError(t, c.DisableFullScreen(context.Background()))
	assert.False(t, c.IsFullScreen())
}

func TestOverlay(t *testing.T) {
	c, _ := initialised(t)

	c.ShowOverlay(context.Background())
	assert.True(t, c.IsOverlayVisible())
	c.HideOverlay(context.Background())
	assert.False(t, c.IsOverlayVisible())
}

func TestOverlayBeforeInitialiseIsDropped(t *testing.T) {
	c, _ := newTestController(t)

	c.ShowOverlay(shortCtx(t))
	assert.False(t, c.IsOverlayVisible())
	assert.False(t, c.IsInitialised())
}

func TestFullScreenBeforeInitialiseIsDropped(t *testing.T) {
	display := &fakeDisplay{}
	c, m := newTestController(t, WithDisplay(display))

	assert.NoError(t, c.EnableFullScreen(shortCtx(t)))
	assert.False(t, c.IsFullScreen())

	assert.NoError(t, c.DisableFullScreen(shortCtx(t)))

	assert.Empty(t, display.calls)
	assert.Equal(t, []string{"configure"}, m.Calls())
}

func TestFullScreenIssuedBeforeInitialiseAppliesOnceReady(t *testing.T) {
	c, m := newTestController(t)

	errc := make(chan error, 1)
	go func() { errc <- c.EnableFullScreen(context.Background()) }()

	require.NoError(t, c.Initialise(context.Background()))
	require.NoError(t, <-errc)
	assert.True(t, c.IsFullScreen())
	assert.Contains(t, m.Calls(), "enable_fullscreen")
}

func TestListeners(t *testing.T) {
	c, m := newTestController(t)

	var mu sync.Mutex
	var seen []models.PlaybackState
	added := make(chan ListenerID, 1)
	go func() {
		id, ok := c.AddListener(context.Background(), func(s models.PlaybackState) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, s)
		})
		assert.True(t, ok)
		added <- id
	}()

	require.NoError(t, c.Initialise(context.Background()))
	id := <-added

	require.NoError(t, c.Play(context.Background()))
	mu.Lock()
	require.Len(t, seen, 1)
	assert.True(t, seen[0].Playing)
	mu.Unlock()

	assert.True(t, c.RemoveListener(context.Background(), id))
	assert.False(t, c.RemoveListener(context.Background(), id))

	require.NoError(t, c.Pause(context.Background()))
	mu.Lock()
	assert.Len(t, seen, 1)
	mu.Unlock()
	assert.Contains(t, m.Calls(), "unsubscribe")
}

func TestAddListener_DroppedBeforeInitialise(t *testing.T) {
	c, m := newTestController(t)

	_, ok := c.AddListener(shortCtx(t), func(models.PlaybackState) {})

	assert.False(t, ok)
	assert.NotContains(t, m.Calls(), "subscribe")
}

func TestChangeVideo(t *testing.T) {
	c, m := initialised(t)
	id := c.ID()
	next := models.VimeoSource("518228118")
	cfg := models.DefaultPlayerConfig()
	cfg.Looping = true

	require.NoError(t, c.ChangeVideo(context.Background(), next, cfg))

	assert.Equal(t, id, c.ID())
	assert.Equal(t, next, c.Source())
	assert.True(t, c.Config().Looping)
	assert.Equal(t, next, m.Source())
	assert.True(t, c.IsInitialised())
}

func TestChangeQuality(t *testing.T) {
	c, m := initialised(t)
	m.SetQualities([]models.QualityURL{{Quality: 360, URL: "a"}, {Quality: 720, URL: "b"}}, 720)

	var changed []int
	c.OnVideoQualityChanged(func(q int) { changed = append(changed, q) })

	require.NoError(t, c.ChangeQuality(context.Background(), 360))
	assert.Error(t, c.ChangeQuality(context.Background(), 1080))

	assert.Equal(t, []int{360}, changed)
	assert.Equal(t, 360, c.CurrentQuality())
}

func TestWakeLock(t *testing.T) {
	lock := &wakelock.Stub{}
	c, _ := initialised(t, WithWakeLock(lock))

	require.NoError(t, c.Play(context.Background()))
	assert.True(t, lock.Held())

	require.NoError(t, c.Pause(context.Background()))
	assert.False(t, lock.Held())

	require.NoError(t, c.Play(context.Background()))
	c.Dispose()
	assert.False(t, lock.Held())
}

func TestWakeLock_ReleasedOnDisposeAfterConfigChange(t *testing.T) {
	lock := &wakelock.Stub{}
	c, _ := initialised(t, WithWakeLock(lock))

	require.NoError(t, c.Play(context.Background()))
	require.True(t, lock.Held())

	cfg := models.DefaultPlayerConfig()
	cfg.WakeLock = false
	require.NoError(t, c.ChangeVideo(context.Background(), models.FileSource("/tmp/b.mkv"), cfg))

	c.Dispose()
	assert.False(t, lock.Held())
}

func TestWakeLock_Disabled(t *testing.T) {
	lock := &wakelock.Stub{}
	m := engine.NewMock()
	cfg := models.DefaultPlayerConfig()
	cfg.WakeLock = false
	c := New(m, models.FileSource("/tmp/a.mkv"), cfg, false, WithWakeLock(lock))
	defer c.Dispose()
	require.NoError(t, c.Initialise(context.Background()))

	require.NoError(t, c.Play(context.Background()))
	assert.False(t, lock.Held())
}

func TestDispose_WithoutInitialise(t *testing.T) {
	c, m := newTestController(t)

	assert.NotPanics(t, c.Dispose)
	assert.NotPanics(t, c.Dispose)

	assert.Equal(t, []string{
		"configure",
		"detach_internal_listener",
		"release_value",
		"remove_state_listener",
		"close",
	}, m.Calls())
	assert.False(t, c.IsInitialised())
}

func TestDispose_AfterInitialise(t *testing.T) {
	c, m := initialised(t)
	_, ok := c.AddListener(context.Background(), func(models.PlaybackState) {})
	require.True(t, ok)

	c.Dispose()
	c.Dispose()

	assert.Equal(t, []string{
		"unsubscribe",
		"detach_internal_listener",
		"release_value",
		"remove_state_listener",
		"close",
	}, without(m.Calls(), "configure", "init", "subscribe"))
	assert.False(t, c.IsInitialised())
	assert.False(t, c.IsVideoPlaying())
}

func TestDispose_ReleasesWaitingCommands(t *testing.T) {
	c, m := newTestController(t)

	done := make(chan error, 1)
	go func() {
		done <- c.Play(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	c.Dispose()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("play did not return after dispose")
	}
	assert.NotContains(t, m.Calls(), "play")
}

func TestCommandsAfterDisposeAreDropped(t *testing.T) {
	c, m := initialised(t)
	c.Dispose()

	assert.NoError(t, c.Play(context.Background()))
	assert.NotContains(t, m.Calls(), "play")
	assert.ErrorIs(t, c.ChangeVideo(context.Background(), models.FileSource("/tmp/b.mkv"), models.DefaultPlayerConfig()), ErrDisposed)
}

type fixedFetcher struct {
	kind models.SourceKind
	urls []models.QualityURL
	err  error
}

func (f fixedFetcher) Name() string  { return "fixed" }
func (f fixedFetcher) Priority() int { return 1 }
func (f fixedFetcher) CanHandle(s models.VideoSource) bool {
	return s.Kind == f.kind
}
func (f fixedFetcher) Fetch(context.Context, models.VideoSource) ([]models.QualityURL, error) {
	return f.urls, f.err
}

func TestLookupURLs(t *testing.T) {
	ok := quality.NewSystem(fixedFetcher{kind: models.SourceVimeo, urls: []models.QualityURL{{Quality: 720, URL: "x"}}})
	urls := lookupURLs(context.Background(), ok, models.VimeoSource("1"))
	assert.Equal(t, []models.QualityURL{{Quality: 720, URL: "x"}}, urls)

	failing := quality.NewSystem(fixedFetcher{kind: models.SourceVimeo, err: errors.New("down")})
	assert.Nil(t, lookupURLs(context.Background(), failing, models.VimeoSource("1")))
}
