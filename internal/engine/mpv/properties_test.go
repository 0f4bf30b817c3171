package mpv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hayasedb/podplay/internal/engine"
	"github.com/hayasedb/podplay/internal/models"
)

func TestApplyToState(t *testing.T) {
	var s models.PlaybackState

	applyToState(&s, "pause", 0)
	assert.True(t, s.Playing)
	applyToState(&s, "pause", true)
	assert.False(t, s.Playing)

	applyToState(&s, "paused-for-cache", 1)
	assert.True(t, s.Buffering)

	applyToState(&s, "loop-file", "inf")
	assert.True(t, s.Looping)
	applyToState(&s, "loop-file", "no")
	assert.False(t, s.Looping)

	applyToState(&s, "time-pos", 12.5)
	assert.Equal(t, 12500*time.Millisecond, s.Position)
	applyToState(&s, "duration", nil)
	assert.Zero(t, s.Duration)
}

func TestApplyProperty_WithoutHolder(t *testing.T) {
	e := New(nil)

	assert.NotPanics(t, func() { e.applyProperty("pause", false) })
	e.applyProperty("mute", true)
	assert.True(t, e.IsMute())

	_, ok := e.State()
	assert.False(t, ok)
}

func TestApplyProperty_NotifiesSubscribers(t *testing.T) {
	e := New(nil)
	e.holder = engine.NewHolder()

	var got models.PlaybackState
	e.Subscribe(func(s models.PlaybackState) { got = s })
	e.applyProperty("duration", 90.0)

	assert.Equal(t, 90*time.Second, got.Duration)
}

func TestAsBool(t *testing.T) {
	assert.True(t, asBool(true))
	assert.True(t, asBool(1))
	assert.True(t, asBool(int64(1)))
	assert.True(t, asBool("yes"))
	assert.False(t, asBool(nil))
	assert.False(t, asBool("no"))
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "-10.000", formatSeconds(-10*time.Second))
	assert.Equal(t, "1.500", formatSeconds(1500*time.Millisecond))
}

func TestEngineBeforeInit(t *testing.T) {
	e := New(nil)
	e.Configure(models.FileSource("/tmp/a.mkv"), models.PlayerConfig{StartMuted: true}, false)

	assert.False(t, e.Initialized())
	assert.True(t, e.IsMute())
	assert.ErrorIs(t, e.SetPlaying(true), errNotStarted)
	assert.ErrorIs(t, e.ChangeQuality(context.Background(), 720), errNotStarted)
	assert.NoError(t, e.Close())
	assert.NotPanics(t, e.DetachInternalListener)
	assert.NotPanics(t, e.ReleaseValue)
}
