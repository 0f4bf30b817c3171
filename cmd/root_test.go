package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayasedb/podplay/internal/storage"
)

func TestBuildPlayerConfig(t *testing.T) {
	config, err := storage.NewConfigAt(t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() {
		qualityFlag, titleFlag, loopFlag, noAutoplay = "", "", false, false
	})

	require.NoError(t, rootCmd.Flags().Set("quality", "720p"))
	require.NoError(t, rootCmd.Flags().Set("loop", "true"))
	require.NoError(t, rootCmd.Flags().Set("no-autoplay", "true"))
	require.NoError(t, rootCmd.Flags().Set("title", "Demo"))

	cfg, err := buildPlayerConfig(rootCmd, config)
	require.NoError(t, err)

	assert.Equal(t, 720, cfg.InitialQuality)
	assert.True(t, cfg.Looping)
	assert.False(t, cfg.AutoPlay)
	assert.Equal(t, "Demo", cfg.Title)
	assert.Equal(t, config.GetQualityPriority(), cfg.QualityPriority)
}

func TestBuildPlayerConfig_RejectsUnknownQuality(t *testing.T) {
	config, err := storage.NewConfigAt(t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() { qualityFlag = "" })
	require.NoError(t, rootCmd.Flags().Set("quality", "999p"))

	_, err = buildPlayerConfig(rootCmd, config)
	assert.Error(t, err)
}

func TestNewQualitySystem(t *testing.T) {
	config, err := storage.NewConfigAt(t.TempDir())
	require.NoError(t, err)

	fetchers := newQualitySystem(config).Fetchers()
	require.Len(t, fetchers, 2)
	assert.Equal(t, "YouTube", fetchers[0].Name())
	assert.Equal(t, "Vimeo", fetchers[1].Name())
}
