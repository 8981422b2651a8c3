// Package audio loads and writes PCM WAV files and cuts detected speech
// intervals out of decoded signals.
package audio
