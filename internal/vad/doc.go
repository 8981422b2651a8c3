// Package vad detects speech in a mono PCM signal from its spectral energy.
// It slices the signal into overlapping windows, measures how much of each
// window's energy falls inside the speech band, thresholds that ratio, smooths
// the decisions with a median filter and collapses them into speech intervals.
package vad
