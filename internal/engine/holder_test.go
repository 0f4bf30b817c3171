package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hayasedb/podplay/internal/models"
)

func TestHolder_NotifiesOnChange(t *testing.T) {
	h := NewHolder()
	var got []models.PlaybackState
	h.Subscribe(func(s models.PlaybackState) { got = append(got, s) })

	h.Update(func(s *models.PlaybackState) { s.Playing = true })
	h.Update(func(s *models.PlaybackState) { s.Playing = true })
	h.Update(func(s *models.PlaybackState) { s.Position = 5 * time.Second })

	assert.Len(t, got, 2)
	assert.True(t, got[1].Playing)
	assert.Equal(t, 5*time.Second, got[1].Position)
}

func TestHolder_SubscribersInOrder(t *testing.T) {
	h := NewHolder()
	var order []int
	for i := 1; i <= 3; i++ {
		n := i
		h.Subscribe(func(models.PlaybackState) { order = append(order, n) })
	}

	h.Update(func(s *models.PlaybackState) { s.Buffering = true })

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestHolder_Unsubscribe(t *testing.T) {
	h := NewHolder()
	calls := 0
	id := h.Subscribe(func(models.PlaybackState) { calls++ })
	h.Unsubscribe(id)

	h.Update(func(s *models.PlaybackState) { s.Looping = true })

	assert.Zero(t, calls)
	assert.Zero(t, h.Subscribers())
}

func TestHolder_Clear(t *testing.T) {
	h := NewHolder()
	h.Subscribe(func(models.PlaybackState) {})
	h.Subscribe(func(models.PlaybackState) {})
	h.Clear()
	assert.Zero(t, h.Subscribers())
}
