//go:build gocv
// +build gocv

package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"gocv.io/x/gocv"
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

// Run captures until the context is cancelled or the source ends.
func (c *Camera) Run(ctx context.Context) error {
	cap, err := gocv.OpenVideoCapture(c.source)
	if err != nil {
		return fmt.Errorf("failed to open video source %q: %w", c.source, err)
	}
	defer cap.Close()

	log.Infof("Camera capture started on %q", c.source)

	img := gocv.NewMat()
	defer img.Close()

	frameIdx := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if ok := cap.Read(&img); !ok {
			log.Info("Video source ended")
			return nil
		}
		if img.Empty() {
			continue
		}

		frameIdx++
		if frameIdx%c.frameSkip != 0 {
			continue
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
		if err != nil {
			log.Warnf("Failed to encode frame: %v", err)
			continue
		}
		data := make([]byte, len(buf.GetBytes()))
		copy(data, buf.GetBytes())
		buf.Close()

		c.slot.Store(Frame{Data: data, CapturedAt: time.Now()})
	}
}
