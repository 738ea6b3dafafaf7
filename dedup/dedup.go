// Package dedup suppresses repeat reports of the same physical pothole.
// Two detections count as one pothole when they fall within a configured
// radius and time window of each other. This is a heuristic: two distinct
// potholes closer together than the radius are merged into one report.
package dedup

import (
	"sync"
	"time"

	"pothole-service/geo"
	"pothole-service/models"
)

const (
	DefaultRadiusMeters = 5.0
	DefaultWindow       = 5 * time.Minute
)

type entry struct {
	lat, lon float64
	seenAt   time.Time
}

// Window is a rolling spatiotemporal deduplication window.
type Window struct {
	mu      sync.Mutex
	radiusM float64
	window  time.Duration
	entries []entry
}

// NewWindow creates a deduplication window. Non-positive arguments fall
// back to the defaults.
func NewWindow(radiusMeters float64, window time.Duration) *Window {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Window{radiusM: radiusMeters, window: window}
}

// IsDuplicate reports whether a detection at p is a re-observation of an
// already recorded one. Entries older than the window are pruned first.
func (w *Window) IsDuplicate(p models.GPSPoint, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now)
	for _, e := range w.entries {
		if geo.DistanceMeters(p.Latitude, p.Longitude, e.lat, e.lon) < w.radiusM {
			return true
		}
	}
	return false
}

// Record adds an accepted detection. Call only after the detection passed
// the downstream acceptance path, so a burst at one spot admits exactly
// its first member.
func (w *Window) Record(p models.GPSPoint, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now)
	w.entries = append(w.entries, entry{lat: p.Latitude, lon: p.Longitude, seenAt: now})
}

// Len returns the number of live entries. Mainly for tests.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

func (w *Window) prune(now time.Time) {
	cutoff := now.Add(-w.window)
	kept := w.entries[:0]
	for _, e := range w.entries {
		if e.seenAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	w.entries = kept
}
