package vad

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toneBurst returns n samples of silence with a sinusoid over [from, to).
func toneBurst(n, sampleRate, from, to int, freq float64) []int16 {
	out := make([]int16, n)
	for i := from; i < to; i++ {
		out[i] = int16(10000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func newTestDetector(t *testing.T, mutate func(*Config)) *Detector {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	d, err := NewDetector(cfg)
	require.NoError(t, err)
	return d
}

func TestNewDetectorValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero window", func(c *Config) { c.WindowSeconds = 0 }},
		{"negative overlap", func(c *Config) { c.OverlapSeconds = -0.01 }},
		{"zero speech window", func(c *Config) { c.SpeechWindowSeconds = 0 }},
		{"threshold zero", func(c *Config) { c.SpeechEnergyThreshold = 0 }},
		{"threshold one", func(c *Config) { c.SpeechEnergyThreshold = 1 }},
		{"negative start band", func(c *Config) { c.SpeechStartBandHz = -1 }},
		{"inverted band", func(c *Config) { c.SpeechStartBandHz = 3000; c.SpeechEndBandHz = 300 }},
		{"unknown fold", func(c *Config) { c.Fold = FoldMode(9) }},
		{"NaN window", func(c *Config) { c.WindowSeconds = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewDetector(cfg)
			assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestDetectorToneBurst(t *testing.T) {
	const rate = 16000
	d := newTestDetector(t, nil)
	sig := Signal[int16]{Samples: toneBurst(rate, rate, 3200, 9600, 1000), SampleRate: rate, Channels: 1}

	res, err := Analyze(d, sig)
	require.NoError(t, err)

	assert.Equal(t, 320, res.Summary.WindowLen)
	assert.Equal(t, 160, res.Summary.Step)
	assert.Equal(t, 25, res.Summary.MedianLen)
	assert.Len(t, res.Windows, 98)

	for _, w := range res.Windows {
		end := w.Start + 320
		switch {
		case w.Start >= 3200 && end <= 9600:
			assert.True(t, w.Speech, "window at %d inside tone", w.Start)
		case end <= 3200 || w.Start >= 9600:
			assert.False(t, w.Speech, "window at %d inside silence", w.Start)
		}
	}

	require.Len(t, res.Intervals, 1)
	assert.InDelta(t, 0.2, res.Intervals[0].Begin, 0.02)
	assert.InDelta(t, 0.6, res.Intervals[0].End, 0.02)
	assert.InDelta(t, res.Intervals[0].Duration(), res.Summary.SpeechSeconds, 1e-12)
	assert.InDelta(t, 1.0, res.Summary.Duration, 1e-12)
}

func TestDetectorFoldSumAgreesOnToneBurst(t *testing.T) {
	const rate = 16000
	samples := Float64s(toneBurst(rate, rate, 3200, 9600, 1000))

	first, err := newTestDetector(t, nil).Classify(samples, rate)
	require.NoError(t, err)
	sum, err := newTestDetector(t, func(c *Config) { c.Fold = FoldSum }).Classify(samples, rate)
	require.NoError(t, err)

	assert.Equal(t, first.Intervals, sum.Intervals)
}

func TestDetectorSilence(t *testing.T) {
	d := newTestDetector(t, nil)

	res, err := d.Classify(make([]float64, 16000), 16000)
	require.NoError(t, err)

	require.NotEmpty(t, res.Windows)
	for _, w := range res.Windows {
		assert.False(t, w.Speech)
	}
	assert.Empty(t, res.Intervals)
	assert.Zero(t, res.Summary.SpeechWindows)
	assert.Zero(t, res.Summary.RawSpeechWindows)
}

func TestDetectorShortBuffer(t *testing.T) {
	d := newTestDetector(t, nil)

	for _, n := range []int{0, 100, 320} {
		samples := Float64s(toneBurst(n, 16000, 0, n, 1000))
		res, err := d.Classify(samples, 16000)
		require.NoError(t, err)
		assert.Empty(t, res.Windows, "n=%d", n)
		assert.Empty(t, res.Intervals, "n=%d", n)
	}
}

func TestDetectorTrailingSpeechDropped(t *testing.T) {
	const rate = 16000
	d := newTestDetector(t, nil)
	// Tone from 0.5 s to the end: speech never returns to silence.
	samples := Float64s(toneBurst(rate, rate, 8000, rate, 1000))

	res, err := d.Classify(samples, rate)
	require.NoError(t, err)

	assert.True(t, res.Windows[len(res.Windows)-1].Speech)
	assert.Empty(t, res.Intervals)
}

func TestDetectorRejectsBadSampleRate(t *testing.T) {
	d := newTestDetector(t, nil)

	_, err := d.Classify(make([]float64, 1000), 0)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = Analyze(d, Signal[int16]{Samples: make([]int16, 9), SampleRate: 8000, Channels: 3})
	assert.True(t, errors.Is(err, ErrUnsupportedChannelLayout))
}

func TestAnalyzeStereoMatchesMono(t *testing.T) {
	const rate = 16000
	d := newTestDetector(t, nil)
	mono := toneBurst(rate, rate, 3200, 9600, 1000)

	stereo := make([]int16, 2*len(mono))
	for i, v := range mono {
		stereo[2*i] = v
		stereo[2*i+1] = v
	}

	want, err := Analyze(d, Signal[int16]{Samples: mono, SampleRate: rate, Channels: 1})
	require.NoError(t, err)
	got, err := Analyze(d, Signal[int16]{Samples: stereo, SampleRate: rate, Channels: 2})
	require.NoError(t, err)

	assert.Equal(t, want.Windows, got.Windows)
	assert.Equal(t, want.Intervals, got.Intervals)
}
