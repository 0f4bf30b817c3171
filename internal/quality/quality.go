package quality

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/hayasedb/podplay/internal/models"
	"github.com/hayasedb/podplay/internal/quality/vimeo"
	"github.com/hayasedb/podplay/internal/quality/youtube"
)

var ErrNoFetcher = errors.New("no quality fetcher for source")

type Fetcher interface {
	Name() string

	Priority() int

	CanHandle(source models.VideoSource) bool

	Fetch(ctx context.Context, source models.VideoSource) ([]models.QualityURL, error)
}

type System struct {
	fetchers []Fetcher
}

func NewSystem(fetchers ...Fetcher) *System {
	system := &System{fetchers: fetchers}

	sort.SliceStable(system.fetchers, func(i, j int) bool {
		return system.fetchers[i].Priority() > system.fetchers[j].Priority()
	})

	log.Debug("Initialized quality system", "count", len(system.fetchers))

	return system
}

func DefaultSystem() *System {
	return NewSystem(youtube.New(), vimeo.New())
}

func (s *System) Fetchers() []Fetcher {
	return s.fetchers
}

// Resolve returns the quality variants of a source ordered from lowest to
// highest quality. Sources that already carry their URLs are returned as is.
func (s *System) Resolve(ctx context.Context, source models.VideoSource) ([]models.QualityURL, error) {
	switch source.Kind {
	case models.SourceQualityURLs:
		if len(source.QualityURLs) == 0 {
			return nil, fmt.Errorf("source has no quality URLs")
		}
		return Normalize(source.QualityURLs), nil
	case models.SourceNetwork, models.SourceFile:
		return []models.QualityURL{{URL: source.Location}}, nil
	}

	candidates := lo.Filter(s.fetchers, func(f Fetcher, _ int) bool {
		return f.CanHandle(source)
	})
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFetcher, source)
	}

	var lastErr error
	for _, fetcher := range candidates {
		log.Debug("Trying quality fetcher", "fetcher", fetcher.Name(), "source", source.String())

		urls, err := fetcher.Fetch(ctx, source)
		if err != nil {
			log.Debug("Quality fetcher failed", "fetcher", fetcher.Name(), "error", err)
			lastErr = err
			continue
		}

		urls = Normalize(urls)
		if len(urls) > 0 {
			log.Info("Resolved quality variants", "fetcher", fetcher.Name(), "count", len(urls))
			return urls, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all quality fetchers failed, last error: %w", lastErr)
	}

	return nil, fmt.Errorf("no quality variants found for %s", source)
}

// Normalize drops empty URLs, keeps the first URL per quality and sorts
// ascending by quality.
func Normalize(urls []models.QualityURL) []models.QualityURL {
	out := lo.Filter(urls, func(q models.QualityURL, _ int) bool {
		return q.URL != ""
	})
	out = lo.UniqBy(out, func(q models.QualityURL) int {
		return q.Quality
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quality < out[j].Quality
	})
	return out
}

// Select picks the preferred quality when present, otherwise the first entry
// of priority that is available, otherwise the highest quality.
func Select(urls []models.QualityURL, preferred int, priority []int) (models.QualityURL, bool) {
	if len(urls) == 0 {
		return models.QualityURL{}, false
	}

	byQuality := lo.SliceToMap(urls, func(q models.QualityURL) (int, models.QualityURL) {
		return q.Quality, q
	})

	if preferred > 0 {
		if q, ok := byQuality[preferred]; ok {
			return q, true
		}
	}

	for _, p := range priority {
		if q, ok := byQuality[p]; ok {
			return q, true
		}
	}

	best := lo.MaxBy(urls, func(a, b models.QualityURL) bool {
		return a.Quality > b.Quality
	})
	return best, true
}
