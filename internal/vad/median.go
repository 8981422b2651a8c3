package vad

import "slices"

// MedianLength returns the number of analysis windows covered by a smoothing
// span of speechWindow seconds, reduced to the next smaller odd value and never
// below 1.
func MedianLength(speechWindow, window float64) int {
	if !(window > 0) {
		return 1
	}
	k := int(speechWindow / window)
	if k%2 == 0 {
		k--
	}
	return max(k, 1)
}

// MedianFilter applies a centered median of odd length k to x. Positions
// closer than k/2 to either end see the first or last value repeated in
// place of the missing neighbours. The output has the same length as x.
func MedianFilter(x []float64, k int) ([]float64, error) {
	if k < 1 || k%2 == 0 {
		return nil, invalidf("median filter length must be odd and at least 1, got %d", k)
	}

	out := make([]float64, len(x))
	if len(x) == 0 {
		return out, nil
	}

	half := (k - 1) / 2
	last := len(x) - 1
	buf := make([]float64, k)
	for i := range x {
		for j := range k {
			idx := min(max(i-half+j, 0), last)
			buf[j] = x[idx]
		}
		slices.Sort(buf)
		out[i] = buf[half]
	}

	return out, nil
}

// SmoothDecisions replaces the speech flags of decisions with their median
// over k neighbouring windows.
func SmoothDecisions(decisions []WindowDecision, k int) ([]WindowDecision, error) {
	flags := make([]float64, len(decisions))
	for i, d := range decisions {
		if d.Speech {
			flags[i] = 1
		}
	}

	smoothed, err := MedianFilter(flags, k)
	if err != nil {
		return nil, err
	}

	out := make([]WindowDecision, len(decisions))
	for i, d := range decisions {
		out[i] = WindowDecision{Start: d.Start, Speech: smoothed[i] == 1}
	}
	return out, nil
}
