package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hayasedb/podplay/internal/controller"
	"github.com/hayasedb/podplay/internal/engine/mpv"
	"github.com/hayasedb/podplay/internal/models"
	"github.com/hayasedb/podplay/internal/quality"
	"github.com/hayasedb/podplay/internal/quality/vimeo"
	"github.com/hayasedb/podplay/internal/quality/youtube"
	"github.com/hayasedb/podplay/internal/storage"
	"github.com/hayasedb/podplay/internal/tui/app"
	"github.com/hayasedb/podplay/internal/wakelock"
)

var (
	qualityFlag string
	titleFlag   string
	loopFlag    bool
	noAutoplay  bool
	liveFlag    bool
	fullscreen  bool
	headless    bool
	debug       bool
)

var rootCmd = &cobra.Command{
	Use:     "podplay <source>",
	Short:   "Play videos from your terminal",
	Version: Version,
	Long: `podplay plays network streams, local files, YouTube and Vimeo videos in mpv
and lets you control playback from the terminal.

Sources:
  https://example.com/video.mp4                # network stream
  ./clip.mkv                                   # local file
  https://www.youtube.com/watch?v=<id>         # YouTube (also youtu.be, youtube:<id>)
  https://vimeo.com/<id>                       # Vimeo (also vimeo:<id>)

Examples:
  podplay https://youtu.be/dQw4w9WgXcQ          # Play with the terminal UI
  podplay vimeo:76979871 --quality 720p         # Prefer 720p
  podplay ./clip.mkv --loop --headless          # Loop without the terminal UI`,

	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVarP(&qualityFlag, "quality", "q", "", "Preferred quality (e.g. 720p, auto)")
	rootCmd.Flags().StringVarP(&titleFlag, "title", "t", "", "Window title")
	rootCmd.Flags().BoolVarP(&loopFlag, "loop", "l", false, "Loop the video")
	rootCmd.Flags().BoolVar(&noAutoplay, "no-autoplay", false, "Start paused")
	rootCmd.Flags().BoolVar(&liveFlag, "live", false, "Treat a YouTube source as a live stream")
	rootCmd.Flags().BoolVarP(&fullscreen, "fullscreen", "f", false, "Start in fullscreen")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "Play without the terminal UI")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	useTUI := !headless
	if useTUI && !canAccessTTY() {
		fmt.Println("Warning: no terminal available, falling back to headless playback.")
		useTUI = false
	}

	if useTUI {
		logFile, err := setupFileLogging()
		if err != nil {
			fmt.Printf("Warning: Could not setup file logging: %v\n", err)
		} else {
			defer func() {
				if err := logFile.Close(); err != nil {
					log.Debug("Failed to close log file", "error", err)
				}
			}()
		}
	}
	setupLogLevel()
	log.Info("Starting podplay", "version", Version, "timestamp", time.Now())

	config, err := storage.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	source, err := models.ParseSource(args[0])
	if err != nil {
		return err
	}
	if liveFlag && source.Kind == models.SourceYouTube {
		source.Live = true
	}

	playerConfig, err := buildPlayerConfig(cmd, config)
	if err != nil {
		return err
	}

	eng := mpv.New(newQualitySystem(config))
	ctrl := controller.New(eng, source, playerConfig, config.GetShowMoreIcon(),
		controller.WithDisplay(eng),
		controller.WithWakeLock(wakelock.New("podplay")),
		controller.WithGateTimeout(config.GetGateTimeout()),
	)
	defer ctrl.Dispose()

	ctrl.OnVideoQualityChanged(func(q int) {
		log.Info("Quality changed", "quality", models.QualityURL{Quality: q}.Label())
	})

	if fullscreen {
		go func() {
			if err := ctrl.EnableFullScreen(ctx); err != nil {
				log.Warn("Failed to enter fullscreen", "error", err)
			}
		}()
	}

	if !useTUI {
		return playHeadless(ctx, ctrl, eng.Done())
	}

	model := app.NewModel(ctx, cancel, ctrl)
	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		select {
		case <-eng.Done():
			p.Send(app.PlaybackEndedMsg{})
		case <-ctx.Done():
		}
	}()

	if _, err := p.Run(); err != nil {
		return err
	}
	return model.Err()
}

func playHeadless(ctx context.Context, ctrl *controller.Controller, ended <-chan struct{}) error {
	fmt.Printf("Opening %s...\n", ctrl.Source())

	if err := ctrl.Initialise(ctx); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}

	fmt.Printf("Playing at %s, press Ctrl+C to stop\n",
		models.QualityURL{Quality: ctrl.CurrentQuality()}.Label())

	select {
	case <-ended:
		fmt.Println("Playback completed!")
	case <-ctx.Done():
	}
	return nil
}

func buildPlayerConfig(cmd *cobra.Command, config *storage.Config) (models.PlayerConfig, error) {
	cfg := config.PlayerConfig()
	cfg.Title = titleFlag

	if cmd.Flags().Changed("quality") {
		q, err := storage.ParseQuality(qualityFlag)
		if err != nil {
			return cfg, err
		}
		cfg.InitialQuality = q
	}
	if cmd.Flags().Changed("loop") {
		cfg.Looping = loopFlag
	}
	if noAutoplay {
		cfg.AutoPlay = false
	}
	return cfg, nil
}

func newQualitySystem(config *storage.Config) *quality.System {
	client := &http.Client{
		Timeout: config.GetTimeout(),
		Transport: &http.Transport{
			MaxIdleConns:    10,
			IdleConnTimeout: 30 * time.Second,
		},
	}
	return quality.NewSystem(
		youtube.NewWithClient(client, youtube.BaseURL),
		vimeo.NewWithClient(client, vimeo.PlayerBaseURL),
	)
}

func setupLogLevel() {
	if debug {
		log.SetLevel(log.DebugLevel)
		log.Debug("Debug logging enabled")
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func canAccessTTY() bool {
	if file, err := os.OpenFile("/dev/tty", os.O_RDWR, 0); err == nil {
		func() {
			if err := file.Close(); err != nil {
				log.Debug("Failed to close TTY file", "error", err)
			}
		}()
		return true
	}

	if fi, err := os.Stdin.Stat(); err == nil {
		if (fi.Mode() & os.ModeCharDevice) != 0 {
			return true
		}
	}

	return false
}

func setupFileLogging() (*os.File, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("could not get config directory: %w", err)
	}

	logDir := filepath.Join(configDir, "podplay", "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("could not create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("podplay-%s.log", timestamp))

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}

	log.SetOutput(logFile)

	fmt.Printf("Logging to: %s\n", logPath)

	return logFile, nil
}
