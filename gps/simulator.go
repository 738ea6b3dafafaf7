package gps

import (
	"context"
	"math/rand"
	"time"

	"github.com/apex/log"

	"pothole-service/geo"
	"pothole-service/models"
)

// Provider feeds position samples into a Track at its own cadence.
// Implementations must stop promptly when the context is cancelled.
type Provider interface {
	Run(ctx context.Context) error
}

// Waypoint is one stop on a simulated route.
type Waypoint struct {
	Lat float64
	Lon float64
}

// DefaultRoute loops through central Belgrade, the test area of the
// original field deployment.
func DefaultRoute() []Waypoint {
	return []Waypoint{
		{44.7866, 20.4489}, // Republic Square
		{44.7847, 20.4567}, // Knez Mihailova
		{44.7831, 20.4681}, // Kalemegdan
		{44.7765, 20.4578}, // Studentski trg
		{44.7729, 20.4567}, // Slavija
		{44.7654, 20.4789}, // Autokomanda
		{44.7598, 20.4912}, // Vozdovac
		{44.7543, 20.5034}, // Banjica
	}
}

// Simulator drives a position along a waypoint loop at a fixed speed,
// recording one jittered sample per interval.
type Simulator struct {
	track    *Track
	route    []Waypoint
	speedKMH float64
	interval time.Duration
	rng      *rand.Rand

	idx      int
	lat, lon float64
}

// NewSimulator creates a route simulator feeding the given track.
// A nil or empty route falls back to DefaultRoute.
func NewSimulator(track *Track, route []Waypoint, speedKMH float64) *Simulator {
	if len(route) == 0 {
		route = DefaultRoute()
	}
	if speedKMH <= 0 {
		speedKMH = 30
	}
	return &Simulator{
		track:    track,
		route:    route,
		speedKMH: speedKMH,
		interval: time.Second,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		lat:      route[0].Lat,
		lon:      route[0].Lon,
	}
}

// Run emits samples until the context is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	log.Infof("GPS simulator started: %d waypoints at %.0f km/h", len(s.route), s.speedKMH)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.record(time.Now())
	for {
		select {
		case <-ctx.Done():
			log.Info("GPS simulator stopped")
			return ctx.Err()
		case now := <-ticker.C:
			s.advance()
			s.record(now)
		}
	}
}

// Step advances the simulated position by one interval. Exposed for tests.
func (s *Simulator) Step() models.GPSPoint {
	s.advance()
	now := time.Now()
	s.record(now)
	p, _ := s.track.Latest()
	return p
}

func (s *Simulator) advance() {
	next := s.route[(s.idx+1)%len(s.route)]
	segment := geo.DistanceMeters(s.lat, s.lon, next.Lat, next.Lon)
	step := s.speedKMH * 1000 / 3600 * s.interval.Seconds()

	if segment <= step {
		s.idx = (s.idx + 1) % len(s.route)
		s.lat, s.lon = next.Lat, next.Lon
		return
	}
	s.lat, s.lon = geo.Interpolate(s.lat, s.lon, next.Lat, next.Lon, step/segment)
}

func (s *Simulator) record(now time.Time) {
	jitter := func() float64 { return (s.rng.Float64()*2 - 1) * 1e-5 }
	s.track.Record(models.GPSPoint{
		Latitude:   s.lat + jitter(),
		Longitude:  s.lon + jitter(),
		Altitude:   70 + s.rng.Float64()*50, // Belgrade altitude range
		Accuracy:   3 + s.rng.Float64()*5,
		CapturedAt: now,
	})
}
