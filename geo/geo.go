package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

// earthRadiusMeters is the mean Earth radius used to scale S2 angles.
const earthRadiusMeters = 6371000.0

// kmPerDegreeLat is the approximate north-south span of one degree.
const kmPerDegreeLat = 111.32

// DistanceMeters returns the great-circle distance between two
// coordinates in meters.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * earthRadiusMeters
}

// BoundingBox returns the lat/lon deltas of a box that encloses a circle
// of radiusKM around the given latitude. Used as a cheap SQL prefilter
// before exact distance checks.
func BoundingBox(lat, radiusKM float64) (latDelta, lonDelta float64) {
	latDelta = radiusKM / kmPerDegreeLat
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01 // near the poles every longitude is close
	}
	lonDelta = radiusKM / (kmPerDegreeLat * cosLat)
	return latDelta, lonDelta
}

// Interpolate returns the point a fraction f of the way from (lat1, lon1)
// to (lat2, lon2) along the connecting geodesic.
func Interpolate(lat1, lon1, lat2, lon2, f float64) (lat, lon float64) {
	a := s2.PointFromLatLng(s2.LatLngFromDegrees(lat1, lon1))
	b := s2.PointFromLatLng(s2.LatLngFromDegrees(lat2, lon2))
	p := s2.Interpolate(f, a, b)
	ll := s2.LatLngFromPoint(p)
	return ll.Lat.Degrees(), ll.Lng.Degrees()
}
