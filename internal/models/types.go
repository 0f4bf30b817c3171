package models

import (
	"fmt"
	"time"
)

type SourceKind int

const (
	SourceNetwork SourceKind = iota
	SourceFile
	SourceYouTube
	SourceVimeo
	SourceQualityURLs
)

func (k SourceKind) String() string {
	switch k {
	case SourceNetwork:
		return "network"
	case SourceFile:
		return "file"
	case SourceYouTube:
		return "youtube"
	case SourceVimeo:
		return "vimeo"
	case SourceQualityURLs:
		return "quality-urls"
	default:
		return "unknown"
	}
}

// IsPlatform reports whether the source has to be resolved to a stream URL
// through a quality fetcher before it can be loaded.
func (k SourceKind) IsPlatform() bool {
	return k == SourceYouTube || k == SourceVimeo
}

type QualityURL struct {
	Quality int
	URL     string
}

func (q QualityURL) Label() string {
	if q.Quality <= 0 {
		return "auto"
	}
	return fmt.Sprintf("%dp", q.Quality)
}

type VideoSource struct {
	Kind        SourceKind
	Location    string
	Live        bool
	Headers     map[string]string
	QualityURLs []QualityURL
}

func (s VideoSource) String() string {
	return fmt.Sprintf("%s:%s", s.Kind, s.Location)
}

type PlayerConfig struct {
	AutoPlay         bool
	Looping          bool
	WakeLock         bool
	StartMuted       bool
	InitialQuality   int
	QualityPriority  []int
	DoubleTapSeconds int
	Title            string
	HWDec            string
}

func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		AutoPlay:         true,
		WakeLock:         true,
		QualityPriority:  []int{1080, 720, 360},
		DoubleTapSeconds: 10,
		HWDec:            "auto",
	}
}

type PlaybackState struct {
	Initialized bool
	Playing     bool
	Buffering   bool
	Looping     bool
	Position    time.Duration
	Duration    time.Duration
}

// Remaining is zero when the duration is unknown.
func (s PlaybackState) Remaining() time.Duration {
	if s.Duration <= 0 || s.Position >= s.Duration {
		return 0
	}
	return s.Duration - s.Position
}
