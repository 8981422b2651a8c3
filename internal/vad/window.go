package vad

import (
	"iter"
	"math"
)

// Window is a half-open [Start, End) view into a mono sample buffer.
type Window struct {
	Start int
	End   int
}

// Len returns the number of samples covered by the window.
func (w Window) Len() int {
	return w.End - w.Start
}

// Slicer produces overlapping analysis windows.
type Slicer struct {
	windowLen int // samples per window
	step      int // samples between window starts
}

// NewSlicer derives window length and hop in samples from durations in seconds.
func NewSlicer(sampleRate int, windowSeconds, overlapSeconds float64) (Slicer, error) {
	if sampleRate <= 0 {
		return Slicer{}, invalidf("sample rate must be positive, got %d", sampleRate)
	}
	if !(windowSeconds > 0) || !(overlapSeconds > 0) {
		return Slicer{}, invalidf("window (%g s) and overlap (%g s) must be positive", windowSeconds, overlapSeconds)
	}

	windowLen := int(math.Round(float64(sampleRate) * windowSeconds))
	step := int(math.Round(float64(sampleRate) * overlapSeconds))
	if windowLen <= 0 {
		return Slicer{}, invalidf("window of %g s is shorter than one sample at %d Hz", windowSeconds, sampleRate)
	}
	if step <= 0 {
		return Slicer{}, invalidf("overlap of %g s is shorter than one sample at %d Hz", overlapSeconds, sampleRate)
	}

	return Slicer{windowLen: windowLen, step: step}, nil
}

// WindowLen returns the window length in samples.
func (s Slicer) WindowLen() int {
	return s.windowLen
}

// Step returns the hop between window starts in samples.
func (s Slicer) Step() int {
	return s.step
}

// Windows yields the windows over a buffer of n samples. Every range over the
// returned sequence starts again at index 0. Buffers no longer than one window
// yield nothing.
func (s Slicer) Windows(n int) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		for start := 0; start < n-s.windowLen; start += s.step {
			end := start + s.windowLen
			if end >= n {
				end = n - 1
			}
			if !yield(Window{Start: start, End: end}) {
				return
			}
		}
	}
}

// Count returns how many windows Windows(n) yields.
func (s Slicer) Count(n int) int {
	if n <= s.windowLen {
		return 0
	}
	return (n-s.windowLen-1)/s.step + 1
}
