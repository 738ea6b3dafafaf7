package capture

import (
	"sync"
	"time"
)

// Frame is one encoded camera image.
type Frame struct {
	Data       []byte
	CapturedAt time.Time
}

// Slot holds at most the latest frame. The camera overwrites it on every
// capture and the pipeline drains it at its own pace, so a slow consumer
// skips frames instead of building a backlog.
type Slot struct {
	mu    sync.Mutex
	frame *Frame
}

func NewSlot() *Slot {
	return &Slot{}
}

// Store replaces whatever frame is currently held.
func (s *Slot) Store(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = &f
}

// Take removes and returns the held frame, if any.
func (s *Slot) Take() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return Frame{}, false
	}
	f := *s.frame
	s.frame = nil
	return f, true
}
