package vad

// Classifier decides whether a window's energy is concentrated in the speech band.
type Classifier struct {
	StartBandHz float64
	EndBandHz   float64
	Threshold   float64
}

// BandRatio returns the fraction of total energy that lies strictly between
// lo and hi. A window without energy has ratio 0.
func BandRatio(m EnergyMap, lo, hi float64) float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	return m.BandEnergy(lo, hi) / total
}

// Ratio returns the speech band ratio of m.
func (c Classifier) Ratio(m EnergyMap) float64 {
	return BandRatio(m, c.StartBandHz, c.EndBandHz)
}

// IsSpeech reports whether the speech band ratio exceeds the threshold.
func (c Classifier) IsSpeech(m EnergyMap) bool {
	return c.Ratio(m) > c.Threshold
}
