//go:build !gocv
// +build !gocv

package capture

import (
	"context"
	"errors"
)

// Camera reads frames from a video source (device index or file path)
// and publishes every frameSkip-th one into the slot as JPEG.
type Camera struct {
	source    string
	frameSkip int
	slot      *Slot
}

func NewCamera(source string, frameSkip int, slot *Slot) *Camera {
	if frameSkip < 1 {
		frameSkip = 1
	}
	return &Camera{source: source, frameSkip: frameSkip, slot: slot}
}

// Run returns an error when built without the gocv tag.
func (c *Camera) Run(ctx context.Context) error {
	_ = ctx
	return errors.New("gocv build tag is not enabled")
}
