//go:build !gocv
// +build !gocv

package detector

import (
	"context"
	"errors"

	"pothole-service/models"
)

// ContourDetector finds dark, textured road regions via edge contours.
type ContourDetector struct {
	MinArea        float64
	MaxAspectRatio float64
	MinAspectRatio float64
	CannyLow       float32
	CannyHigh      float32
}

func NewContourDetector() *ContourDetector {
	return &ContourDetector{
		MinArea:        500,
		MinAspectRatio: 0.2,
		MaxAspectRatio: 5.0,
		CannyLow:       50,
		CannyHigh:      150,
	}
}

// Detect returns an error when built without the gocv tag.
func (d *ContourDetector) Detect(ctx context.Context, frame []byte) ([]models.Detection, error) {
	_ = ctx
	_ = frame
	return nil, errors.New("gocv build tag is not enabled")
}
