package detector

import (
	"context"
	"sync"

	"pothole-service/models"
)

// Detector finds pothole candidates in an encoded frame.
type Detector interface {
	Detect(ctx context.Context, frame []byte) ([]models.Detection, error)
}

// StaticDetector replays a scripted sequence of detection batches, one
// batch per frame. Used in tests and simulation runs without OpenCV.
type StaticDetector struct {
	mu      sync.Mutex
	batches [][]models.Detection
	idx     int
}

func NewStaticDetector(batches ...[]models.Detection) *StaticDetector {
	return &StaticDetector{batches: batches}
}

// Detect returns the next scripted batch, or nothing once exhausted.
func (d *StaticDetector) Detect(ctx context.Context, frame []byte) ([]models.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.idx >= len(d.batches) {
		return nil, nil
	}
	batch := d.batches[d.idx]
	d.idx++
	return batch, nil
}
