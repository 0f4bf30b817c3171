package mpv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayasedb/podplay/internal/models"
	"github.com/hayasedb/podplay/internal/quality"
)

func TestInit_CancelledBeforeStartLeavesEngineStopped(t *testing.T) {
	e := New(quality.NewSystem())
	e.Configure(models.QualityURLsSource([]models.QualityURL{
		{Quality: 720, URL: "https://example.com/720.mp4"},
	}), models.DefaultPlayerConfig(), false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Init(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.False(t, e.Initialized())
	_, ok := e.State()
	assert.False(t, ok)
	_, err = e.player()
	assert.ErrorIs(t, err, errNotStarted)
	assert.NoError(t, e.Close())
}
