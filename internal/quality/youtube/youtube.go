package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"github.com/hayasedb/podplay/internal/models"
)

const BaseURL = "https://www.youtube.com"

type Fetcher struct {
	name       string
	priority   int
	baseURL    string
	userAgent  string
	httpClient *http.Client

	playerResponsePattern *regexp.Regexp
}

func New() *Fetcher {
	return NewWithClient(&http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:    10,
			IdleConnTimeout: 30 * time.Second,
		},
	}, BaseURL)
}

func NewWithClient(client *http.Client, baseURL string) *Fetcher {
	return &Fetcher{
		name:       "YouTube",
		priority:   10,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
		httpClient: client,

		playerResponsePattern: regexp.MustCompile(`ytInitialPlayerResponse\s*=\s*`),
	}
}

func (f *Fetcher) Name() string {
	return f.name
}

func (f *Fetcher) Priority() int {
	return f.priority
}

func (f *Fetcher) CanHandle(source models.VideoSource) bool {
	return source.Kind == models.SourceYouTube && source.Location != ""
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	StreamingData struct {
		Formats []struct {
			Itag         int    `json:"itag"`
			URL          string `json:"url"`
			MimeType     string `json:"mimeType"`
			QualityLabel string `json:"qualityLabel"`
			Height       int    `json:"height"`
		} `json:"formats"`
		HLSManifestURL string `json:"hlsManifestUrl"`
	} `json:"streamingData"`
	VideoDetails struct {
		Title  string `json:"title"`
		IsLive bool   `json:"isLive"`
	} `json:"videoDetails"`
}

func (f *Fetcher) Fetch(ctx context.Context, source models.VideoSource) ([]models.QualityURL, error) {
	watchURL := fmt.Sprintf("%s/watch?v=%s", f.baseURL, url.QueryEscape(source.Location))
	log.Debug("Fetching youtube watch page", "url", watchURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Debug("Failed to close response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watch page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse watch page: %w", err)
	}

	pr, err := f.extractPlayerResponse(doc)
	if err != nil {
		return nil, err
	}

	if status := pr.PlayabilityStatus.Status; status != "" && status != "OK" {
		return nil, fmt.Errorf("video %s is not playable: %s %s", source.Location, status, pr.PlayabilityStatus.Reason)
	}

	if source.Live || pr.VideoDetails.IsLive {
		if pr.StreamingData.HLSManifestURL == "" {
			return nil, fmt.Errorf("live video %s has no HLS manifest", source.Location)
		}
		return []models.QualityURL{{URL: pr.StreamingData.HLSManifestURL}}, nil
	}

	var urls []models.QualityURL
	for _, format := range pr.StreamingData.Formats {
		// formats without a url carry a signature cipher that needs the player script
		if format.URL == "" || format.Height == 0 {
			continue
		}
		urls = append(urls, models.QualityURL{Quality: format.Height, URL: format.URL})
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("no direct stream URLs for youtube video %s", source.Location)
	}

	log.Debug("YouTube variants found", "video", source.Location, "title", pr.VideoDetails.Title, "count", len(urls))
	return urls, nil
}

func (f *Fetcher) extractPlayerResponse(doc *goquery.Document) (*playerResponse, error) {
	var (
		result   *playerResponse
		parseErr error
	)

	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		loc := f.playerResponsePattern.FindStringIndex(text)
		if loc == nil {
			return true
		}

		// the decoder stops after the first complete JSON value, so the
		// trailing script text is ignored
		var pr playerResponse
		if err := json.NewDecoder(strings.NewReader(text[loc[1]:])).Decode(&pr); err != nil {
			parseErr = fmt.Errorf("failed to decode player response: %w", err)
			return true
		}
		result = &pr
		return false
	})

	if result != nil {
		return result, nil
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return nil, fmt.Errorf("player response not found in watch page")
}
