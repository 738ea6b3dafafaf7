//go:build gocv
// +build gocv

package detector

import (
	"context"
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"pothole-service/models"
	"pothole-service/severity"
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

// Detect locates pothole candidates in a JPEG-encoded frame.
func (d *ContourDetector) Detect(ctx context.Context, frame []byte) ([]models.Detection, error) {
	_ = ctx
	mat, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("empty frame")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(gray, &blur, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blur, &edges, d.CannyLow, d.CannyHigh)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	detections := []models.Detection{}
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		rect := gocv.BoundingRect(c)
		rectArea := float64(rect.Dx() * rect.Dy())
		if rectArea < d.MinArea {
			continue
		}
		if rect.Dy() == 0 {
			continue
		}
		aspect := float64(rect.Dx()) / float64(rect.Dy())
		if aspect < d.MinAspectRatio || aspect > d.MaxAspectRatio {
			continue
		}

		// Solid contours look more like holes than cracks or shadows.
		solidity := gocv.ContourArea(c) / rectArea
		confidence := 0.5 + 0.45*solidity
		if confidence > 0.95 {
			confidence = 0.95
		}

		roi := gray.Region(rect)
		meanMat := gocv.NewMat()
		stddevMat := gocv.NewMat()
		gocv.MeanStdDev(roi, &meanMat, &stddevMat)
		meanLuma := meanMat.GetDoubleAt(0, 0)
		stddevLuma := stddevMat.GetDoubleAt(0, 0)
		meanMat.Close()
		stddevMat.Close()
		roi.Close()

		detections = append(detections, models.Detection{
			X1:         rect.Min.X,
			Y1:         rect.Min.Y,
			X2:         rect.Max.X,
			Y2:         rect.Max.Y,
			Area:       rectArea,
			Width:      float64(rect.Dx()),
			Height:     float64(rect.Dy()),
			Confidence: confidence,
			DepthProxy: severity.DepthProxyFromLuma(meanLuma, stddevLuma),
		})
	}
	return detections, nil
}
