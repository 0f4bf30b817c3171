package vimeo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hayasedb/podplay/internal/models"
)

const PlayerBaseURL = "https://player.vimeo.com"

type Fetcher struct {
	name       string
	priority   int
	baseURL    string
	httpClient *http.Client
}

func New() *Fetcher {
	return NewWithClient(&http.Client{Timeout: 10 * time.Second}, PlayerBaseURL)
}

func NewWithClient(client *http.Client, baseURL string) *Fetcher {
	return &Fetcher{
		name:       "Vimeo",
		priority:   5,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

func (f *Fetcher) Name() string {
	return f.name
}

func (f *Fetcher) Priority() int {
	return f.priority
}

func (f *Fetcher) CanHandle(source models.VideoSource) bool {
	return source.Kind == models.SourceVimeo && source.Location != ""
}

type playerConfig struct {
	Request struct {
		Files struct {
			Progressive []progressiveFile `json:"progressive"`
			HLS         struct {
				DefaultCDN string `json:"default_cdn"`
				CDNs       map[string]struct {
					URL string `json:"url"`
				} `json:"cdns"`
			} `json:"hls"`
		} `json:"files"`
	} `json:"request"`
	Video struct {
		Title string `json:"title"`
	} `json:"video"`
}

type progressiveFile struct {
	Quality string `json:"quality"`
	Height  int    `json:"height"`
	URL     string `json:"url"`
}

func (f *Fetcher) Fetch(ctx context.Context, source models.VideoSource) ([]models.QualityURL, error) {
	configURL := fmt.Sprintf("%s/video/%s/config", f.baseURL, url.PathEscape(source.Location))
	log.Debug("Fetching vimeo player config", "url", configURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, configURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Debug("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vimeo config returned status %d", resp.StatusCode)
	}

	var cfg playerConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode vimeo config: %w", err)
	}

	var urls []models.QualityURL
	for _, file := range cfg.Request.Files.Progressive {
		q := file.Height
		if q == 0 {
			q = parseQuality(file.Quality)
		}
		if q == 0 || file.URL == "" {
			continue
		}
		urls = append(urls, models.QualityURL{Quality: q, URL: file.URL})
	}

	if len(urls) == 0 {
		hls := cfg.Request.Files.HLS
		if cdn, ok := hls.CDNs[hls.DefaultCDN]; ok && cdn.URL != "" {
			urls = append(urls, models.QualityURL{URL: cdn.URL})
		}
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("no playable files in vimeo config for %s", source.Location)
	}

	log.Debug("Vimeo variants found", "video", source.Location, "title", cfg.Video.Title, "count", len(urls))
	return urls, nil
}

func parseQuality(label string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(label), "p"))
	if err != nil {
		return 0
	}
	return n
}
