package vad

import "fmt"

// Sample is the set of PCM sample representations the detector accepts.
type Sample interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// Signal is a decoded PCM buffer. Stereo samples are interleaved (L, R, L, R).
type Signal[T Sample] struct {
	Samples    []T
	SampleRate int // Hz
	Channels   int // 1 or 2
}

// Frames returns the number of samples per channel.
func (s Signal[T]) Frames() int {
	if s.Channels <= 0 {
		return 0
	}
	return len(s.Samples) / s.Channels
}

// Duration returns the signal length in seconds.
func (s Signal[T]) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(s.Frames()) / float64(s.SampleRate)
}

// Validate checks the sample rate and channel layout.
func (s Signal[T]) Validate() error {
	if s.SampleRate <= 0 {
		return invalidf("sample rate must be positive, got %d", s.SampleRate)
	}
	if s.Channels != 1 && s.Channels != 2 {
		return fmt.Errorf("%w: got %d channels", ErrUnsupportedChannelLayout, s.Channels)
	}
	if len(s.Samples)%s.Channels != 0 {
		return invalidf("%d samples cannot be split into %d channels", len(s.Samples), s.Channels)
	}
	return nil
}

// ToMono collapses a stereo signal to one channel by averaging each frame.
// The mean is cast back to T, so integer samples are truncated toward zero.
// Mono input is returned as is.
func ToMono[T Sample](s Signal[T]) (Signal[T], error) {
	if err := s.Validate(); err != nil {
		return Signal[T]{}, err
	}
	if s.Channels == 1 {
		return s, nil
	}

	frames := s.Frames()
	mono := make([]T, frames)
	for i := range frames {
		left := float64(s.Samples[2*i])
		right := float64(s.Samples[2*i+1])
		mono[i] = T((left + right) / 2)
	}

	return Signal[T]{Samples: mono, SampleRate: s.SampleRate, Channels: 1}, nil
}

// Float64s converts samples to float64 for spectral analysis.
func Float64s[T Sample](samples []T) []float64 {
	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = float64(v)
	}
	return out
}
