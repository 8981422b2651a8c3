package vad

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(s Slicer, n int) []Window {
	var out []Window
	for w := range s.Windows(n) {
		out = append(out, w)
	}
	return out
}

func TestNewSlicerDerivesSampleCounts(t *testing.T) {
	s, err := NewSlicer(16000, 0.02, 0.01)
	require.NoError(t, err)
	assert.Equal(t, 320, s.WindowLen())
	assert.Equal(t, 160, s.Step())

	s, err = NewSlicer(44100, 0.02, 0.01)
	require.NoError(t, err)
	assert.Equal(t, 882, s.WindowLen())
	assert.Equal(t, 441, s.Step())
}

func TestNewSlicerValidation(t *testing.T) {
	tests := []struct {
		name    string
		rate    int
		window  float64
		overlap float64
	}{
		{"zero rate", 0, 0.02, 0.01},
		{"negative rate", -8000, 0.02, 0.01},
		{"zero window", 8000, 0, 0.01},
		{"negative overlap", 8000, 0.02, -0.01},
		{"window below one sample", 8000, 0.00001, 0.01},
		{"overlap below one sample", 8000, 0.02, 0.00001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSlicer(tt.rate, tt.window, tt.overlap)
			assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestWindowsCoverBuffer(t *testing.T) {
	s, err := NewSlicer(1000, 0.01, 0.005) // 10 samples, step 5
	require.NoError(t, err)

	got := collect(s, 31)
	want := []Window{{0, 10}, {5, 15}, {10, 20}, {15, 25}, {20, 30}}
	assert.Equal(t, want, got)
	assert.Equal(t, len(want), s.Count(31))

	for _, w := range got {
		assert.Equal(t, s.WindowLen(), w.Len())
	}
}

func TestWindowsStopBeforeLastFullWindow(t *testing.T) {
	s, err := NewSlicer(1000, 0.01, 0.005)
	require.NoError(t, err)

	// start must stay below n - windowLen, so the window ending exactly at
	// the buffer end is not produced.
	got := collect(s, 30)
	assert.Equal(t, []Window{{0, 10}, {5, 15}, {10, 20}, {15, 25}}, got)
	assert.Equal(t, 4, s.Count(30))
}

func TestWindowsDegenerateBuffer(t *testing.T) {
	s, err := NewSlicer(16000, 0.02, 0.01)
	require.NoError(t, err)

	for _, n := range []int{0, 1, 319, 320} {
		assert.Empty(t, collect(s, n), "n=%d", n)
		assert.Zero(t, s.Count(n), "n=%d", n)
	}
	assert.Len(t, collect(s, 321), 1)
}

func TestWindowsRestartable(t *testing.T) {
	s, err := NewSlicer(16000, 0.02, 0.01)
	require.NoError(t, err)

	seq := s.Windows(16000)
	first := 0
	for range seq {
		first++
	}
	var again []Window
	for w := range seq {
		again = append(again, w)
	}

	assert.Equal(t, first, len(again))
	assert.Equal(t, 0, again[0].Start)
	assert.Equal(t, s.Count(16000), first)
}

func TestWindowsEarlyBreak(t *testing.T) {
	s, err := NewSlicer(16000, 0.02, 0.01)
	require.NoError(t, err)

	n := 0
	for range s.Windows(16000) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}
