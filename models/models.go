package models

import (
	"fmt"
	"time"
)

// SeverityLevel classifies how dangerous a detected pothole is.
type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "low"
	SeverityMedium   SeverityLevel = "medium"
	SeverityHigh     SeverityLevel = "high"
	SeverityCritical SeverityLevel = "critical"
)

// ValidSeverityLevel reports whether s is one of the known levels.
func ValidSeverityLevel(s string) bool {
	switch SeverityLevel(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// GPSPoint is a single position sample. Immutable once created.
type GPSPoint struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Altitude   float64   `json:"altitude,omitempty"`
	Accuracy   float64   `json:"accuracy,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// Valid reports whether the coordinates are inside the WGS-84 ranges.
func (p GPSPoint) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// CacheKey returns the geocoding cache key for the point, rounded to
// 6 decimal places (~0.1 m granularity).
func (p GPSPoint) CacheKey() string {
	return fmt.Sprintf("%.6f,%.6f", p.Latitude, p.Longitude)
}

// Detection is the geometry of one detected region within a frame.
// Produced by the detector, consumed within a single pipeline cycle.
type Detection struct {
	X1         int     `json:"x1"`
	Y1         int     `json:"y1"`
	X2         int     `json:"x2"`
	Y2         int     `json:"y2"`
	Area       float64 `json:"area"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
	DepthProxy float64 `json:"depth_proxy"`
}

// Severity is the classifier output embedded into a Report.
type Severity struct {
	Level         SeverityLevel `json:"level"`
	Score         float64       `json:"score"`
	AreaCategory  string        `json:"area_category"`
	DepthCategory string        `json:"depth_category"`
	DepthScore    float64       `json:"depth_score"`
	// Degraded marks the safe medium fallback produced on malformed input.
	Degraded bool `json:"degraded,omitempty"`
}

// PlaceInfo is the resolved human-readable location for a coordinate.
type PlaceInfo struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// UnknownPlace is the sentinel returned when geocoding is unavailable.
func UnknownPlace() PlaceInfo {
	return PlaceInfo{
		Street:  "Unknown Street",
		City:    "Unknown City",
		Region:  "Unknown Region",
		Country: "Unknown Country",
	}
}

// ResolvingPlace is the transient placeholder returned when geocoding
// did not finish within the resolver timeout. Never cached.
func ResolvingPlace() PlaceInfo {
	p := UnknownPlace()
	p.Street = "Resolving..."
	return p
}

// Report is the persisted record of one accepted pothole detection.
type Report struct {
	Seq              int64     `json:"seq"`
	Location         GPSPoint  `json:"location"`
	Severity         Severity  `json:"severity"`
	Place            PlaceInfo `json:"place"`
	Confidence       float64   `json:"confidence"`
	DetectedAt       time.Time `json:"detected_at"`
	ImageRef         string    `json:"image_ref,omitempty"`
	Processed        bool      `json:"processed"`
	NotificationSent bool      `json:"notification_sent"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Stats summarizes stored reports over a time window.
type Stats struct {
	Total         int            `json:"total"`
	BySeverity    map[string]int `json:"by_severity"`
	AvgConfidence float64        `json:"avg_confidence"`
	PerHour       float64        `json:"detection_rate_per_hour"`
	MostRecent    *time.Time     `json:"most_recent,omitempty"`
	WindowDays    int            `json:"window_days"`
}
