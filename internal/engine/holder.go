package engine

import (
	"sort"
	"sync"

	"github.com/hayasedb/podplay/internal/models"
)

// Holder is the observable playback value shared between an engine and its
// listeners. Subscribers are called synchronously, outside the lock, only
// when an update actually changes the value.
type Holder struct {
	mu     sync.RWMutex
	state  models.PlaybackState
	subs   map[int]func(models.PlaybackState)
	nextID int
}

func NewHolder() *Holder {
	return &Holder{
		subs: make(map[int]func(models.PlaybackState)),
	}
}

func (h *Holder) Snapshot() models.PlaybackState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *Holder) Update(fn func(*models.PlaybackState)) {
	h.mu.Lock()
	before := h.state
	fn(&h.state)
	after := h.state
	if before == after {
		h.mu.Unlock()
		return
	}
	subs := h.subscribersLocked()
	h.mu.Unlock()

	for _, sub := range subs {
		sub(after)
	}
}

func (h *Holder) Subscribe(fn func(models.PlaybackState)) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.subs[h.nextID] = fn
	return h.nextID
}

func (h *Holder) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

func (h *Holder) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Holder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = make(map[int]func(models.PlaybackState))
}

// subscribersLocked returns subscribers in registration order.
func (h *Holder) subscribersLocked() []func(models.PlaybackState) {
	ids := make([]int, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	subs := make([]func(models.PlaybackState), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, h.subs[id])
	}
	return subs
}
