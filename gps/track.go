package gps

import (
	"sync"
	"time"

	"pothole-service/models"
)

// DefaultTrackSize bounds the position history when no size is configured.
const DefaultTrackSize = 10

// Track is a bounded FIFO of the most recent position samples. The frame
// pipeline runs at its own cadence, so Nearest gives the best-effort
// position for any frame timestamp. Queries never block; if the provider
// stalls they keep returning the last known sample and staleness shows up
// as the gap between the query time and CapturedAt.
type Track struct {
	mu      sync.RWMutex
	size    int
	samples []models.GPSPoint
}

// NewTrack creates a track keeping at most size samples.
func NewTrack(size int) *Track {
	if size <= 0 {
		size = DefaultTrackSize
	}
	return &Track{size: size, samples: make([]models.GPSPoint, 0, size)}
}

// Record appends a sample, evicting the oldest when the track is full.
func (t *Track) Record(p models.GPSPoint) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples = append(t.samples, p)
	if len(t.samples) > t.size {
		copy(t.samples, t.samples[1:])
		t.samples = t.samples[:t.size]
	}
}

// Latest returns the most recent sample.
func (t *Track) Latest() (models.GPSPoint, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.samples) == 0 {
		return models.GPSPoint{}, false
	}
	return t.samples[len(t.samples)-1], true
}

// Nearest returns the buffered sample closest in time to ts.
func (t *Track) Nearest(ts time.Time) (models.GPSPoint, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.samples) == 0 {
		return models.GPSPoint{}, false
	}

	best := t.samples[0]
	bestDiff := absDuration(ts.Sub(best.CapturedAt))
	for _, s := range t.samples[1:] {
		if d := absDuration(ts.Sub(s.CapturedAt)); d < bestDiff {
			best = s
			bestDiff = d
		}
	}
	return best, true
}

// Len returns the number of buffered samples.
func (t *Track) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.samples)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
