package mpv

import (
	"time"

	"github.com/hayasedb/podplay/internal/models"
)

// applyProperty folds an observed property change into the engine state.
func (e *Engine) applyProperty(name string, data any) {
	switch name {
	case "mute":
		e.mu.Lock()
		e.muted = asBool(data)
		e.mu.Unlock()
		return
	case "fullscreen":
		e.mu.Lock()
		e.fullscreen = asBool(data)
		e.mu.Unlock()
		return
	}

	e.mu.Lock()
	h := e.holder
	e.mu.Unlock()
	if h == nil {
		return
	}

	h.Update(func(s *models.PlaybackState) {
		applyToState(s, name, data)
	})
}

func applyToState(s *models.PlaybackState, name string, data any) {
	switch name {
	case "pause":
		s.Playing = !asBool(data)
	case "paused-for-cache":
		s.Buffering = asBool(data)
	case "loop-file":
		v := asString(data)
		s.Looping = v != "" && v != "no"
	case "time-pos":
		s.Position = seconds(data)
	case "duration":
		s.Duration = seconds(data)
	}
}

// asBool accepts the shapes go-mpv reports flags in.
func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int:
		return b != 0
	case int64:
		return b != 0
	case string:
		return b == "yes"
	default:
		return false
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func seconds(v any) time.Duration {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	default:
		return 0
	}
	if f < 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}

func findQuality(urls []models.QualityURL, q int) (models.QualityURL, bool) {
	for _, u := range urls {
		if u.Quality == q {
			return u, true
		}
	}
	return models.QualityURL{}, false
}
