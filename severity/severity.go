package severity

import (
	"math"

	"pothole-service/models"
)

// Params holds the classification thresholds, score weights and the
// calibration constant. Injected so field calibration can rescale the
// pixel-to-length ratio without touching the blend formula.
type Params struct {
	// Area category thresholds, in pixels (or cm^2 when calibrated).
	AreaSmall  float64
	AreaMedium float64
	AreaLarge  float64

	// Depth category thresholds over the normalized [0,1] depth proxy.
	DepthShallow float64
	DepthMedium  float64
	DepthDeep    float64

	// Risk score blend: LevelWeight*base + AreaWeight*area + DepthWeight*depth.
	LevelWeight float64
	AreaWeight  float64
	DepthWeight float64

	// AreaNorm normalizes the pixel area into [0,1] for the score blend.
	AreaNorm float64

	// PixelToCM converts a pixel side length to centimeters. Zero means
	// uncalibrated: areas are categorized in raw pixels.
	PixelToCM float64
}

// DefaultParams returns the stock thresholds and weights.
func DefaultParams() Params {
	return Params{
		AreaSmall:    1000,
		AreaMedium:   5000,
		AreaLarge:    15000,
		DepthShallow: 0.3,
		DepthMedium:  0.6,
		DepthDeep:    0.8,
		LevelWeight:  0.6,
		AreaWeight:   0.2,
		DepthWeight:  0.2,
		AreaNorm:     10000,
	}
}

var baseScores = map[models.SeverityLevel]float64{
	models.SeverityLow:      0.2,
	models.SeverityMedium:   0.5,
	models.SeverityHigh:     0.8,
	models.SeverityCritical: 1.0,
}

type categoryPair struct {
	area  string
	depth string
}

// severityMatrix maps (area, depth) categories to a severity level.
// Combinations missing from the matrix fall back to medium.
var severityMatrix = map[categoryPair]models.SeverityLevel{
	{"small", "shallow"}:   models.SeverityLow,
	{"small", "medium"}:    models.SeverityLow,
	{"small", "deep"}:      models.SeverityMedium,
	{"small", "very_deep"}: models.SeverityMedium,

	{"medium", "shallow"}:   models.SeverityLow,
	{"medium", "medium"}:    models.SeverityMedium,
	{"medium", "deep"}:      models.SeverityMedium,
	{"medium", "very_deep"}: models.SeverityHigh,

	{"large", "shallow"}:   models.SeverityMedium,
	{"large", "medium"}:    models.SeverityMedium,
	{"large", "deep"}:      models.SeverityHigh,
	{"large", "very_deep"}: models.SeverityHigh,

	{"very_large", "shallow"}:   models.SeverityMedium,
	{"very_large", "medium"}:    models.SeverityHigh,
	{"very_large", "deep"}:      models.SeverityHigh,
	{"very_large", "very_deep"}: models.SeverityCritical,
}

// Classifier derives a severity level and a continuous risk score from
// detection geometry. Pure; never returns an error.
type Classifier struct {
	params Params
}

// NewClassifier creates a classifier with the given parameters.
func NewClassifier(params Params) *Classifier {
	return &Classifier{params: params}
}

// Classify scores a detected region. areaPx is the bounding-box area in
// pixels, depthProxy the normalized [0,1] depth estimate. Malformed input
// yields the degraded medium default rather than an error, so the pipeline
// always receives a usable result.
func (c *Classifier) Classify(areaPx, depthProxy float64) models.Severity {
	if math.IsNaN(areaPx) || math.IsInf(areaPx, 0) || areaPx < 0 ||
		math.IsNaN(depthProxy) || math.IsInf(depthProxy, 0) {
		return degradedDefault()
	}

	depthProxy = clamp01(depthProxy)

	area := areaPx
	if c.params.PixelToCM > 0 {
		area = areaPx * c.params.PixelToCM * c.params.PixelToCM
	}

	areaCat := c.classifyArea(area)
	depthCat := c.classifyDepth(depthProxy)

	level, ok := severityMatrix[categoryPair{areaCat, depthCat}]
	if !ok {
		level = models.SeverityMedium
	}

	areaFactor := math.Min(area/c.params.AreaNorm, 1.0)
	score := c.params.LevelWeight*baseScores[level] +
		c.params.AreaWeight*areaFactor +
		c.params.DepthWeight*depthProxy

	return models.Severity{
		Level:         level,
		Score:         clamp01(score),
		AreaCategory:  areaCat,
		DepthCategory: depthCat,
		DepthScore:    depthProxy,
	}
}

func (c *Classifier) classifyArea(area float64) string {
	switch {
	case area < c.params.AreaSmall:
		return "small"
	case area < c.params.AreaMedium:
		return "medium"
	case area < c.params.AreaLarge:
		return "large"
	default:
		return "very_large"
	}
}

func (c *Classifier) classifyDepth(depth float64) string {
	switch {
	case depth < c.params.DepthShallow:
		return "shallow"
	case depth < c.params.DepthMedium:
		return "medium"
	case depth < c.params.DepthDeep:
		return "deep"
	default:
		return "very_deep"
	}
}

// DepthProxyFromLuma estimates a [0,1] depth proxy from grayscale
// statistics of the detected region: shadows (darkness) and surface
// roughness (texture variation) both correlate with depth.
func DepthProxyFromLuma(meanLuma, stddevLuma float64) float64 {
	if math.IsNaN(meanLuma) || math.IsNaN(stddevLuma) {
		return 0.5
	}
	darkness := 1.0 - clamp01(meanLuma/255.0)
	texture := clamp01(stddevLuma / 255.0)
	return clamp01(darkness*0.7 + texture*0.3)
}

func degradedDefault() models.Severity {
	return models.Severity{
		Level:         models.SeverityMedium,
		Score:         0.5,
		AreaCategory:  "unknown",
		DepthCategory: "unknown",
		DepthScore:    0.5,
		Degraded:      true,
	}
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0.0), 1.0)
}
