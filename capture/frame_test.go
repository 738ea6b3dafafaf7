package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSlot_TakeEmpty(t *testing.T) {
	s := NewSlot()
	_, ok := s.Take()
	require.False(t, ok)
}

func TestSlot_StoreOverwrites(t *testing.T) {
	s := NewSlot()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s.Store(Frame{Data: []byte("first"), CapturedAt: t0})
	s.Store(Frame{Data: []byte("second"), CapturedAt: t0.Add(time.Second)})

	f, ok := s.Take()
	require.True(t, ok)
	require.Equal(t, []byte("second"), f.Data)

	// The slot is drained after a take.
	_, ok = s.Take()
	require.False(t, ok)
}
