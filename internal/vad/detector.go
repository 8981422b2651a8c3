package vad

import "fmt"

// Detector runs spectral voice activity detection with a fixed configuration.
// It holds no state between calls and is safe for concurrent use.
type Detector struct {
	config     Config
	classifier Classifier
	medianLen  int
}

// Result is the outcome of one detection pass.
type Result struct {
	SampleRate int              `json:"sample_rate"`
	Windows    []WindowDecision `json:"windows"`
	Intervals  []SpeechInterval `json:"intervals"`
	Summary    Summary          `json:"summary"`
}

// Summary describes a detection pass.
type Summary struct {
	Samples          int     `json:"samples"`
	Duration         float64 `json:"duration_seconds"`
	WindowLen        int     `json:"window_samples"`
	Step             int     `json:"step_samples"`
	MedianLen        int     `json:"median_windows"`
	TotalWindows     int     `json:"total_windows"`
	RawSpeechWindows int     `json:"raw_speech_windows"`
	SpeechWindows    int     `json:"speech_windows"`
	SpeechSeconds    float64 `json:"speech_seconds"`
	SpeechRatio      float64 `json:"speech_ratio"`
}

// NewDetector validates cfg and creates a detector.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Detector{
		config: cfg,
		classifier: Classifier{
			StartBandHz: cfg.SpeechStartBandHz,
			EndBandHz:   cfg.SpeechEndBandHz,
			Threshold:   cfg.SpeechEnergyThreshold,
		},
		medianLen: cfg.MedianLength(),
	}, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() Config {
	return d.config
}

// Classify labels every analysis window of a mono buffer, smooths the labels
// and extracts speech intervals. A buffer no longer than one window produces
// an empty result.
func (d *Detector) Classify(mono []float64, sampleRate int) (*Result, error) {
	slicer, err := NewSlicer(sampleRate, d.config.WindowSeconds, d.config.OverlapSeconds)
	if err != nil {
		return nil, err
	}

	decisions := make([]WindowDecision, 0, slicer.Count(len(mono)))
	rawSpeech := 0
	for w := range slicer.Windows(len(mono)) {
		energy := AnalyzeSpectrum(mono[w.Start:w.End], sampleRate, d.config.Fold)
		speech := d.classifier.IsSpeech(energy)
		if speech {
			rawSpeech++
		}
		decisions = append(decisions, WindowDecision{Start: w.Start, Speech: speech})
	}

	smoothed, err := SmoothDecisions(decisions, d.medianLen)
	if err != nil {
		return nil, fmt.Errorf("smooth decisions: %w", err)
	}
	intervals := ExtractIntervals(smoothed, sampleRate)

	return &Result{
		SampleRate: sampleRate,
		Windows:    smoothed,
		Intervals:  intervals,
		Summary:    summarize(len(mono), sampleRate, slicer, d.medianLen, rawSpeech, smoothed, intervals),
	}, nil
}

// Analyze reduces sig to mono and classifies it with d.
func Analyze[T Sample](d *Detector, sig Signal[T]) (*Result, error) {
	mono, err := ToMono(sig)
	if err != nil {
		return nil, err
	}
	return d.Classify(Float64s(mono.Samples), mono.SampleRate)
}

func summarize(samples, sampleRate int, slicer Slicer, medianLen, rawSpeech int,
	windows []WindowDecision, intervals []SpeechInterval) Summary {

	s := Summary{
		Samples:          samples,
		Duration:         float64(samples) / float64(sampleRate),
		WindowLen:        slicer.WindowLen(),
		Step:             slicer.Step(),
		MedianLen:        medianLen,
		TotalWindows:     len(windows),
		RawSpeechWindows: rawSpeech,
	}
	for _, w := range windows {
		if w.Speech {
			s.SpeechWindows++
		}
	}
	for _, iv := range intervals {
		s.SpeechSeconds += iv.Duration()
	}
	if s.Duration > 0 {
		s.SpeechRatio = s.SpeechSeconds / s.Duration
	}
	return s
}
