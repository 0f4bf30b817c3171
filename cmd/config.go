package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hayasedb/podplay/internal/storage"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or manage configuration",
	Long: `View current configuration or set configuration values.

Examples:
  podplay config                              # Show current config
  podplay config set quality 720p             # Prefer 720p
  podplay config set quality-priority 1080,720 # Fallback order
  podplay config set wakelock false           # Let the screen sleep`,

	RunE: runConfig,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Available settings:
  autoplay            Start playing once loaded (true, false)
  loop                Loop the video (true, false)
  muted               Start muted (true, false)
  wakelock            Keep the screen awake while playing (true, false)
  quality             Preferred quality (auto, 360p, 720p, 1080p, ...)
  quality-priority    Comma separated fallback order (1080,720,360)
  double-tap-seconds  Seconds skipped by a double tap
  hwdec               mpv hardware decoding mode
  show-more-icon      Show the more icon in fullscreen (true, false)
  gate-timeout        Seconds commands wait for the player, 0 waits forever
  timeout             Request timeout in seconds`,

	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfig(*cobra.Command, []string) error {
	config, err := storage.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	settings := config.AllSettings()
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("current config:")
	fmt.Println()

	for _, k := range keys {
		fmt.Printf("  %-20s %v\n", k+":", settings[k])
	}

	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	key := strings.ToLower(args[0])
	value := strings.ToLower(args[1])

	config, err := storage.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.SetValue(key, value); err != nil {
		return err
	}

	if err := config.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Printf("Configuration updated: %s = %s\n", key, value)

	return nil
}
