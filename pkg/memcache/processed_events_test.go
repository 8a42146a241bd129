package mem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProcessedEvents_RememberAndExpire(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewProcessedEvents(time.Minute)
	store.now = func() time.Time { return clock }

	assert.False(t, store.Seen("evt_1"))

	store.Remember("evt_1")
	assert.True(t, store.Seen("evt_1"))
	assert.False(t, store.Seen("evt_2"))

	clock = clock.Add(2 * time.Minute)
	assert.False(t, store.Seen("evt_1"))
}

func TestProcessedEvents_SweepDropsExpired(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewProcessedEvents(time.Minute)
	store.now = func() time.Time { return clock }

	store.Remember("evt_old")
	clock = clock.Add(5 * time.Minute)
	store.Remember("evt_new")

	assert.Equal(t, 1, store.Len())
	assert.True(t, store.Seen("evt_new"))
}

func TestProcessedEvents_DisabledOrEmpty(t *testing.T) {
	store := NewProcessedEvents(0)
	store.Remember("evt_1")
	assert.False(t, store.Seen("evt_1"))

	enabled := NewProcessedEvents(time.Minute)
	enabled.Remember("")
	assert.Equal(t, 0, enabled.Len())
	assert.False(t, enabled.Seen(""))
}
