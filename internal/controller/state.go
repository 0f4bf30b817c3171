package controller

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hayasedb/podplay/internal/models"
	"github.com/hayasedb/podplay/internal/quality"
)

// IsInitialised reports whether commands currently take effect.
func (c *Controller) IsInitialised() bool {
	if c.isDisposed() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isReadyLocked()
}

func (c *Controller) VideoState() models.PlaybackState {
	st, _ := c.engine.State()
	return st
}

func (c *Controller) IsVideoPlaying() bool {
	st, ok := c.engine.State()
	return ok && st.Playing
}

func (c *Controller) IsVideoBuffering() bool {
	st, ok := c.engine.State()
	return ok && st.Buffering
}

func (c *Controller) IsVideoLooping() bool {
	st, ok := c.engine.State()
	return ok && st.Looping
}

func (c *Controller) Position() time.Duration {
	st, ok := c.engine.State()
	if !ok {
		return 0
	}
	return st.Position
}

func (c *Controller) Duration() time.Duration {
	st, ok := c.engine.State()
	if !ok {
		return 0
	}
	return st.Duration
}

func (c *Controller) IsMute() bool {
	return c.engine.IsMute()
}

func (c *Controller) IsFullScreen() bool {
	return c.engine.IsFullScreen()
}

func (c *Controller) IsOverlayVisible() bool {
	return c.engine.OverlayVisible()
}

func (c *Controller) IsPopupOverlayOpen() bool {
	return c.engine.IsPopupOverlayOpen()
}

func (c *Controller) CurrentQuality() int {
	return c.engine.CurrentQuality()
}

func (c *Controller) Qualities() []models.QualityURL {
	return c.engine.Qualities()
}

func (c *Controller) Source() models.VideoSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

func (c *Controller) Config() models.PlayerConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// YouTubeURLs lists the quality variants of a YouTube video, lowest quality
// first. ref is a video id or any YouTube URL. Nil means the lookup failed.
func YouTubeURLs(ctx context.Context, ref string, live bool) []models.QualityURL {
	source := models.YouTubeSource(ref, live)
	if parsed, err := models.ParseSource(ref); err == nil && parsed.Kind == models.SourceYouTube {
		source = parsed
		source.Live = source.Live || live
	}
	return lookupURLs(ctx, quality.DefaultSystem(), source)
}

// VimeoURLs lists the quality variants of a Vimeo video, lowest quality
// first. Nil means the lookup failed.
func VimeoURLs(ctx context.Context, ref string) []models.QualityURL {
	source := models.VimeoSource(ref)
	if parsed, err := models.ParseSource(ref); err == nil && parsed.Kind == models.SourceVimeo {
		source = parsed
	}
	return lookupURLs(ctx, quality.DefaultSystem(), source)
}

func lookupURLs(ctx context.Context, system *quality.System, source models.VideoSource) []models.QualityURL {
	urls, err := system.Resolve(ctx, source)
	if err != nil {
		log.Warn("Quality lookup failed", "source", source.String(), "error", err)
		return nil
	}
	return urls
}
