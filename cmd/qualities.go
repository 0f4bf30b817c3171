package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hayasedb/podplay/internal/controller"
	"github.com/hayasedb/podplay/internal/models"
)

var qualitiesLive bool

var qualitiesCmd = &cobra.Command{
	Use:   "qualities <source>",
	Short: "List the quality variants of a YouTube or Vimeo video",
	Long: `Look up the quality variants a platform serves for a video and print them
from lowest to highest quality.

Examples:
  podplay qualities https://youtu.be/dQw4w9WgXcQ
  podplay qualities youtube:<id> --live
  podplay qualities vimeo:76979871`,

	Args: cobra.ExactArgs(1),
	RunE: runQualities,
}

func init() {
	qualitiesCmd.Flags().BoolVar(&qualitiesLive, "live", false, "Look up the live HLS manifest")
	rootCmd.AddCommand(qualitiesCmd)
}

func runQualities(_ *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	setupLogLevel()

	source, err := models.ParseSource(args[0])
	if err != nil {
		return err
	}

	if !source.Kind.IsPlatform() {
		return fmt.Errorf("%s sources have no platform qualities", source.Kind)
	}

	var urls []models.QualityURL
	if source.Kind == models.SourceYouTube {
		urls = controller.YouTubeURLs(ctx, source.Location, qualitiesLive || source.Live)
	} else {
		urls = controller.VimeoURLs(ctx, source.Location)
	}

	if len(urls) == 0 {
		return fmt.Errorf("no qualities found for %s", source)
	}

	for _, u := range urls {
		fmt.Printf("%-6s %s\n", u.Label(), u.URL)
	}
	return nil
}
