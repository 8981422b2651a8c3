package vad

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// BinEnergy is the energy attributed to one non-negative frequency.
type BinEnergy struct {
	Frequency float64 `json:"frequency_hz"`
	Energy    float64 `json:"energy"`
}

// EnergyMap maps unique non-negative frequencies to energy. Entries keep the
// order in which their frequency was first seen so sums are reproducible.
type EnergyMap struct {
	entries  []BinEnergy
	energies []float64 // entries[i].Energy, kept for summing
	index    map[float64]int
}

func newEnergyMap(capacity int) EnergyMap {
	return EnergyMap{
		entries:  make([]BinEnergy, 0, capacity),
		energies: make([]float64, 0, capacity),
		index:    make(map[float64]int, capacity),
	}
}

func (m *EnergyMap) add(freq, energy float64, fold FoldMode) {
	if i, seen := m.index[freq]; seen {
		if fold == FoldSum {
			m.entries[i].Energy += energy
			m.energies[i] += energy
		}
		return
	}
	m.index[freq] = len(m.entries)
	m.entries = append(m.entries, BinEnergy{Frequency: freq, Energy: energy})
	m.energies = append(m.energies, energy)
}

// Len returns the number of distinct frequencies.
func (m EnergyMap) Len() int {
	return len(m.entries)
}

// Entries returns the frequency/energy pairs in insertion order.
func (m EnergyMap) Entries() []BinEnergy {
	return m.entries
}

// Energy returns the energy stored for freq.
func (m EnergyMap) Energy(freq float64) (float64, bool) {
	i, ok := m.index[freq]
	if !ok {
		return 0, false
	}
	return m.entries[i].Energy, true
}

// Total returns the sum of all energies.
func (m EnergyMap) Total() float64 {
	return floats.Sum(m.energies)
}

// BandEnergy returns the summed energy of frequencies strictly between lo and hi.
func (m EnergyMap) BandEnergy(lo, hi float64) float64 {
	var sum float64
	for _, e := range m.entries {
		if lo < e.Frequency && e.Frequency < hi {
			sum += e.Energy
		}
	}
	return sum
}

// BinFrequencies returns the frequency label of every DFT bin of an n-point
// transform at sampleRate, in the usual layout: 0, positive bins, then
// negative bins in increasing order.
func BinFrequencies(n, sampleRate int) []float64 {
	freqs := make([]float64, n)
	if n == 0 {
		return freqs
	}
	rate := float64(sampleRate)
	size := float64(n)
	positive := (n-1)/2 + 1
	for i := range positive {
		freqs[i] = float64(i) * rate / size
	}
	for i := positive; i < n; i++ {
		freqs[i] = float64(i-n) * rate / size
	}
	return freqs
}

// AnalyzeSpectrum computes the frequency energy map of one window. The DC
// bin is dropped, every other bin contributes twice its squared magnitude
// under the absolute value of its frequency, and fold decides what happens
// when two bins share that key.
func AnalyzeSpectrum(window []float64, sampleRate int, fold FoldMode) EnergyMap {
	n := len(window)
	if n < 2 {
		return newEnergyMap(0)
	}

	spectrum := fft.FFTReal(window)
	freqs := BinFrequencies(n, sampleRate)

	m := newEnergyMap(n/2 + 1)
	for k := 1; k < n; k++ {
		amplitude := cmplx.Abs(spectrum[k])
		energy := 2 * amplitude * amplitude
		m.add(math.Abs(freqs[k]), energy, fold)
	}

	return m
}
