package geocoder

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"

	"pothole-service/models"
)

const (
	DefaultWorkers = 2
	DefaultTimeout = 3 * time.Second

	// jobQueueSize bounds submissions beyond the busy workers; an
	// overflowing queue degrades to placeholders instead of blocking
	// the detection pipeline.
	jobQueueSize = 16
)

type resolveJob struct {
	lat, lon float64
	key      string
	out      chan resolveResult // buffered; workers never block on it
}

type resolveResult struct {
	place models.PlaceInfo
	err   error
}

// Resolver turns coordinates into place names without stalling its
// callers: cache-first, with misses handed to a fixed-size worker pool
// and bounded by a per-call wait.
type Resolver struct {
	geocoder Geocoder
	cache    *placeCache
	jobs     chan resolveJob
	timeout  time.Duration
	stop     chan struct{}
}

// NewResolver creates a resolver backed by the given geocoding
// collaborator and on-disk cache file (empty path disables persistence).
func NewResolver(g Geocoder, cachePath string, workers int, timeout time.Duration) (*Resolver, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cache, err := newPlaceCache(cachePath)
	if err != nil {
		return nil, fmt.Errorf("initializing place cache: %w", err)
	}

	r := &Resolver{
		geocoder: g,
		cache:    cache,
		jobs:     make(chan resolveJob, jobQueueSize),
		timeout:  timeout,
		stop:     make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r, nil
}

// Resolve returns the place name for a coordinate. On a cache hit it
// returns immediately with no external call. On a miss it waits at most
// the configured timeout: expiry yields the transient "Resolving..."
// placeholder, a collaborator failure the Unknown sentinel. Neither is
// cached, so later calls retry.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) models.PlaceInfo {
	key := models.GPSPoint{Latitude: lat, Longitude: lon}.CacheKey()
	if place, ok := r.cache.get(key); ok {
		return place
	}

	job := resolveJob{lat: lat, lon: lon, key: key, out: make(chan resolveResult, 1)}
	select {
	case r.jobs <- job:
	default:
		// All workers busy and the queue is full; report in-progress.
		return models.ResolvingPlace()
	}

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case res := <-job.out:
		if res.err != nil {
			log.Warnf("Reverse geocoding %s failed: %v", key, res.err)
			return models.UnknownPlace()
		}
		return res.place
	case <-timer.C:
		return models.ResolvingPlace()
	case <-ctx.Done():
		return models.ResolvingPlace()
	}
}

// CachedPlaces returns the number of confirmed resolutions held.
func (r *Resolver) CachedPlaces() int {
	return r.cache.len()
}

// Close stops the worker pool. In-flight external calls are abandoned,
// not awaited.
func (r *Resolver) Close() {
	close(r.stop)
}

func (r *Resolver) worker() {
	for {
		select {
		case <-r.stop:
			return
		case job := <-r.jobs:
			// The external call gets more slack than the caller waits, so
			// a resolution that misses the caller's deadline is still
			// cached for the next sighting of the same spot.
			ctx, cancel := context.WithTimeout(context.Background(), 2*r.timeout)
			place, err := r.geocoder.ReverseGeocode(ctx, job.lat, job.lon)
			cancel()
			if err == nil {
				r.cache.put(job.key, place)
			}
			job.out <- resolveResult{place: place, err: err}
		}
	}
}
