package vad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n, sampleRate int, freq, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestBinFrequencies(t *testing.T) {
	assert.Equal(t, []float64{0, 1, -2, -1}, BinFrequencies(4, 4))
	assert.Equal(t, []float64{0, 1, 2, -2, -1}, BinFrequencies(5, 5))

	freqs := BinFrequencies(320, 16000)
	assert.Equal(t, 50.0, freqs[1])
	assert.Equal(t, 1000.0, freqs[20])
	assert.Equal(t, -8000.0, freqs[160])
	assert.Equal(t, -50.0, freqs[319])
}

func TestAnalyzeSpectrumDropsDCAndFolds(t *testing.T) {
	m := AnalyzeSpectrum(sine(320, 16000, 1000, 1000), 16000, FoldFirstWins)

	// 159 positive bins plus the Nyquist bin.
	assert.Equal(t, 160, m.Len())
	_, hasDC := m.Energy(0)
	assert.False(t, hasDC)

	for _, e := range m.Entries() {
		assert.GreaterOrEqual(t, e.Frequency, 0.0)
		assert.GreaterOrEqual(t, e.Energy, 0.0)
	}

	peak, ok := m.Energy(1000)
	require.True(t, ok)
	// |X[k]| = A*N/2 for a sinusoid centred on bin k; stored energy is doubled.
	want := 2 * math.Pow(1000*320/2.0, 2)
	assert.InEpsilon(t, want, peak, 1e-6)
	assert.InEpsilon(t, want, m.Total(), 1e-6)
}

func TestAnalyzeSpectrumFoldModes(t *testing.T) {
	impulse := []float64{1, 0, 0, 0}

	first := AnalyzeSpectrum(impulse, 4, FoldFirstWins)
	require.Equal(t, 2, first.Len())
	assert.Equal(t, []BinEnergy{{Frequency: 1, Energy: 2}, {Frequency: 2, Energy: 2}}, first.Entries())

	sum := AnalyzeSpectrum(impulse, 4, FoldSum)
	require.Equal(t, 2, sum.Len())
	assert.Equal(t, []BinEnergy{{Frequency: 1, Energy: 4}, {Frequency: 2, Energy: 2}}, sum.Entries())

	// Totals follow the folded entries.
	assert.Equal(t, 4.0, first.Total())
	assert.Equal(t, 6.0, sum.Total())
	assert.Equal(t, 4.0, sum.BandEnergy(0.5, 1.5))
}

func TestEnergySumsDoNotAllocate(t *testing.T) {
	m := AnalyzeSpectrum(sine(320, 16000, 1000, 1000), 16000, FoldFirstWins)

	allocs := testing.AllocsPerRun(100, func() {
		_ = m.Total()
		_ = m.BandEnergy(300, 3000)
	})
	assert.Zero(t, allocs)
}

func TestAnalyzeSpectrumSilence(t *testing.T) {
	m := AnalyzeSpectrum(make([]float64, 320), 16000, FoldFirstWins)
	assert.Zero(t, m.Total())
	assert.Zero(t, BandRatio(m, 300, 3000))
}

func TestAnalyzeSpectrumTinyWindow(t *testing.T) {
	assert.Zero(t, AnalyzeSpectrum(nil, 16000, FoldFirstWins).Len())
	assert.Zero(t, AnalyzeSpectrum([]float64{42}, 16000, FoldFirstWins).Len())
}

func TestBandEnergyIsOpenInterval(t *testing.T) {
	m := AnalyzeSpectrum([]float64{1, 0, 0, 0}, 4, FoldFirstWins)

	assert.Zero(t, m.BandEnergy(1, 2))
	assert.Equal(t, 2.0, m.BandEnergy(0.5, 2))
	assert.Equal(t, 4.0, m.BandEnergy(0.5, 2.5))
}
