// Command spectral-vad finds speech in WAV files by comparing the energy in
// the voice band with the energy of the whole spectrum.
package main

import (
	"os"
)

const (
	serviceName    = "spectral-vad"
	serviceVersion = "1.0.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
