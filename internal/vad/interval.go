package vad

// WindowDecision is the speech flag of the analysis window starting at Start.
type WindowDecision struct {
	Start  int  `json:"start_sample"`
	Speech bool `json:"speech"`
}

// SpeechInterval is a span of speech in seconds.
type SpeechInterval struct {
	Begin float64 `json:"speech_begin"`
	End   float64 `json:"speech_end"`
}

// Duration returns the interval length in seconds.
func (s SpeechInterval) Duration() float64 {
	return s.End - s.Begin
}

// ExtractIntervals collapses smoothed window decisions into speech intervals.
// An interval opens at the first speech window after non-speech and closes at
// the next non-speech window. A run of speech that lasts until the last window
// never closes and is not reported.
func ExtractIntervals(decisions []WindowDecision, sampleRate int) []SpeechInterval {
	intervals := make([]SpeechInterval, 0)
	if sampleRate <= 0 {
		return intervals
	}

	rate := float64(sampleRate)
	inSpeech := false
	var begin float64
	for _, d := range decisions {
		switch {
		case d.Speech && !inSpeech:
			inSpeech = true
			begin = float64(d.Start) / rate
		case !d.Speech && inSpeech:
			inSpeech = false
			intervals = append(intervals, SpeechInterval{Begin: begin, End: float64(d.Start) / rate})
		}
	}

	return intervals
}
