package engine

import (
	"context"
	"time"

	"github.com/hayasedb/podplay/internal/models"
)

// Engine is the adapter a controller delegates every playback operation to.
// It owns decode, render and network state for one playback session.
type Engine interface {
	Configure(source models.VideoSource, cfg models.PlayerConfig, showMoreIcon bool)
	Initialized() bool
	Init(ctx context.Context) error

	// State returns false when the value holder does not exist yet or has
	// been released.
	State() (models.PlaybackState, bool)
	Subscribe(fn func(models.PlaybackState)) int
	Unsubscribe(id int)

	SetPlaying(playing bool) error
	SeekTo(pos time.Duration) error
	SeekForward(d time.Duration) error
	SeekBackward(d time.Duration) error

	Mute() error
	UnMute() error
	IsMute() bool

	IsFullScreen() bool
	EnableFullScreen(showMoreIcon bool) error
	DisableFullScreen() error
	IsPopupOverlayOpen() bool
	SetPopupOverlayOpen(open bool)

	ChangeVideo(ctx context.Context, source models.VideoSource, cfg models.PlayerConfig) error

	DoubleTapForward(seconds int) error
	DoubleTapBackward(seconds int) error
	SetDoubleTapSeconds(seconds int)

	SetOverlayVisible(visible bool)
	OverlayVisible() bool

	CurrentQuality() int
	Qualities() []models.QualityURL
	ChangeQuality(ctx context.Context, quality int) error
	OnQualityChanged(fn func(quality int))

	DetachInternalListener()
	ReleaseValue()
	RemoveStateListener()
	Close() error
}

// Display switches the host surface in and out of fullscreen.
type Display interface {
	RequestFullScreen() error
	ExitFullScreen() error
}

type NopDisplay struct{}

func (NopDisplay) RequestFullScreen() error { return nil }

func (NopDisplay) ExitFullScreen() error { return nil }
