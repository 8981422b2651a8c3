package vad

import (
	"fmt"
	"math"
)

// FoldMode selects how a bin and its negative-frequency mirror are merged
// into one frequency energy entry.
type FoldMode int

const (
	// FoldFirstWins keeps doubled energy of the first bin seen for each
	// absolute frequency and ignores later bins with the same key.
	FoldFirstWins FoldMode = iota
	// FoldSum adds the energy of every bin sharing an absolute frequency.
	FoldSum
)

// String returns the configuration name of the fold mode.
func (m FoldMode) String() string {
	switch m {
	case FoldFirstWins:
		return "first_wins"
	case FoldSum:
		return "sum"
	default:
		return fmt.Sprintf("FoldMode(%d)", int(m))
	}
}

// ParseFoldMode parses the configuration name of a fold mode. An empty
// string selects FoldFirstWins.
func ParseFoldMode(s string) (FoldMode, error) {
	switch s {
	case "", "first_wins":
		return FoldFirstWins, nil
	case "sum":
		return FoldSum, nil
	default:
		return 0, invalidf("fold must be 'first_wins' or 'sum', got '%s'", s)
	}
}

// Default detection parameters.
const (
	DefaultWindowSeconds         = 0.02
	DefaultOverlapSeconds        = 0.01
	DefaultSpeechWindowSeconds   = 0.5
	DefaultSpeechEnergyThreshold = 0.3
	DefaultSpeechStartBandHz     = 300.0
	DefaultSpeechEndBandHz       = 3000.0
)

// Config holds the detection parameters. OverlapSeconds is the hop between
// consecutive window starts.
type Config struct {
	WindowSeconds         float64  `json:"window_seconds"`
	OverlapSeconds        float64  `json:"overlap_seconds"`
	SpeechWindowSeconds   float64  `json:"speech_window_seconds"`
	SpeechEnergyThreshold float64  `json:"speech_energy_threshold"`
	SpeechStartBandHz     float64  `json:"speech_start_band_hz"`
	SpeechEndBandHz       float64  `json:"speech_end_band_hz"`
	Fold                  FoldMode `json:"fold"`
}

// DefaultConfig returns the default detection parameters.
func DefaultConfig() Config {
	return Config{
		WindowSeconds:         DefaultWindowSeconds,
		OverlapSeconds:        DefaultOverlapSeconds,
		SpeechWindowSeconds:   DefaultSpeechWindowSeconds,
		SpeechEnergyThreshold: DefaultSpeechEnergyThreshold,
		SpeechStartBandHz:     DefaultSpeechStartBandHz,
		SpeechEndBandHz:       DefaultSpeechEndBandHz,
		Fold:                  FoldFirstWins,
	}
}

// Validate checks every parameter against its allowed range.
func (c Config) Validate() error {
	if !(c.WindowSeconds > 0) {
		return invalidf("window_seconds must be positive, got %g", c.WindowSeconds)
	}
	if !(c.OverlapSeconds > 0) {
		return invalidf("overlap_seconds must be positive, got %g", c.OverlapSeconds)
	}
	if !(c.SpeechWindowSeconds > 0) {
		return invalidf("speech_window_seconds must be positive, got %g", c.SpeechWindowSeconds)
	}
	if !(c.SpeechEnergyThreshold > 0 && c.SpeechEnergyThreshold < 1) {
		return invalidf("speech_energy_threshold must be in (0, 1), got %g", c.SpeechEnergyThreshold)
	}
	if c.SpeechStartBandHz < 0 || math.IsNaN(c.SpeechStartBandHz) {
		return invalidf("speech_start_band_hz cannot be negative, got %g", c.SpeechStartBandHz)
	}
	if !(c.SpeechEndBandHz > c.SpeechStartBandHz) {
		return invalidf("speech_end_band_hz (%g) must be greater than speech_start_band_hz (%g)",
			c.SpeechEndBandHz, c.SpeechStartBandHz)
	}
	if c.Fold != FoldFirstWins && c.Fold != FoldSum {
		return invalidf("unknown fold mode %d", int(c.Fold))
	}
	return nil
}

// MedianLength returns the odd smoothing filter length for the configuration.
func (c Config) MedianLength() int {
	return MedianLength(c.SpeechWindowSeconds, c.WindowSeconds)
}

// MarshalText implements encoding.TextMarshaler.
func (m FoldMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *FoldMode) UnmarshalText(text []byte) error {
	v, err := ParseFoldMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
