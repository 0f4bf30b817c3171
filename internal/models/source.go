package models

import (
	"fmt"
	"net/url"
	"strings"
)

func NetworkSource(location string) VideoSource {
	return VideoSource{Kind: SourceNetwork, Location: location}
}

func FileSource(path string) VideoSource {
	return VideoSource{Kind: SourceFile, Location: path}
}

func YouTubeSource(id string, live bool) VideoSource {
	return VideoSource{Kind: SourceYouTube, Location: id, Live: live}
}

func VimeoSource(id string) VideoSource {
	return VideoSource{Kind: SourceVimeo, Location: id}
}

func QualityURLsSource(urls []QualityURL) VideoSource {
	return VideoSource{Kind: SourceQualityURLs, QualityURLs: urls}
}

// ParseSource turns a command line reference into a VideoSource.
//
//	youtube:<id>, https://youtu.be/<id>, https://www.youtube.com/watch?v=<id>
//	vimeo:<id>, https://vimeo.com/<id>
//	http(s)://...  network stream
//	anything else  local file
func ParseSource(ref string) (VideoSource, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return VideoSource{}, fmt.Errorf("empty video source")
	}

	if id, ok := strings.CutPrefix(ref, "youtube:"); ok {
		if id == "" {
			return VideoSource{}, fmt.Errorf("missing youtube video id")
		}
		return YouTubeSource(id, false), nil
	}

	if id, ok := strings.CutPrefix(ref, "vimeo:"); ok {
		if id == "" {
			return VideoSource{}, fmt.Errorf("missing vimeo video id")
		}
		return VimeoSource(id), nil
	}

	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return FileSource(ref), nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return VideoSource{}, fmt.Errorf("invalid source URL %q: %w", ref, err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return YouTubeSource(id, false), nil
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if id, ok := strings.CutPrefix(u.Path, prefix); ok && id != "" {
				return YouTubeSource(strings.Trim(id, "/"), prefix == "/live/"), nil
			}
		}
		return VideoSource{}, fmt.Errorf("no video id in youtube URL: %s", ref)

	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if id == "" {
			return VideoSource{}, fmt.Errorf("no video id in youtube URL: %s", ref)
		}
		return YouTubeSource(id, false), nil

	case "vimeo.com", "player.vimeo.com":
		id := lastNumericSegment(u.Path)
		if id == "" {
			return VideoSource{}, fmt.Errorf("no video id in vimeo URL: %s", ref)
		}
		return VimeoSource(id), nil
	}

	return NetworkSource(ref), nil
}

func lastNumericSegment(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if isDigits(parts[i]) {
			return parts[i]
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
