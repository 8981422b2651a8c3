package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/thanhtrungnguyen/voice-detection-app/internal/vad"
)

// ErrDecode is returned for input that is not a supported PCM WAV file.
var ErrDecode = errors.New("audio decode error")

const (
	wavFormatPCM       = 1
	wavFormatIEEEFloat = 3
)

// Clip is a decoded WAV file.
type Clip struct {
	Signal   vad.Signal[int32]
	BitDepth int
}

// Info describes a decoded clip.
type Info struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bits_per_sample"`
	Frames     int     `json:"frames"`
	Duration   float64 `json:"duration_seconds"`
}

// Info returns the clip metadata.
func (c *Clip) Info() Info {
	return Info{
		SampleRate: c.Signal.SampleRate,
		Channels:   c.Signal.Channels,
		BitDepth:   c.BitDepth,
		Frames:     c.Signal.Frames(),
		Duration:   c.Signal.Duration(),
	}
}

// Load reads and decodes the integer PCM WAV file at path.
func Load(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file %s: %w", path, err)
	}
	defer f.Close()

	clip, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

// Decode decodes a 16, 24 or 32 bit integer PCM WAV stream. Samples keep
// their interleaved channel layout and the scale of the source bit depth.
// Only integer PCM is supported; any other format, IEEE float included,
// fails with ErrDecode. Float signals can still be analysed by passing a
// vad.Signal[float64] to the detector directly.
func Decode(r io.ReadSeeker) (*Clip, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid WAV file", ErrDecode)
	}

	switch decoder.WavAudioFormat {
	case wavFormatPCM:
	case wavFormatIEEEFloat:
		return nil, fmt.Errorf("%w: IEEE float WAV is not supported, convert to integer PCM", ErrDecode)
	default:
		return nil, fmt.Errorf("%w: unsupported audio format %d (only PCM is supported)", ErrDecode, decoder.WavAudioFormat)
	}

	bitDepth := int(decoder.BitDepth)
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrDecode, bitDepth)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read PCM data: %v", ErrDecode, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing sample rate", ErrDecode)
	}

	samples := make([]int32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int32(v)
	}

	return &Clip{
		Signal: vad.Signal[int32]{
			Samples:    samples,
			SampleRate: buf.Format.SampleRate,
			Channels:   buf.Format.NumChannels,
		},
		BitDepth: bitDepth,
	}, nil
}

// Encode writes sig as an integer PCM WAV stream with the given bit depth.
func Encode(w io.WriteSeeker, sig vad.Signal[int32], bitDepth int) error {
	if len(sig.Samples) == 0 {
		return fmt.Errorf("cannot encode empty audio samples")
	}
	if err := sig.Validate(); err != nil {
		return err
	}

	data := make([]int, len(sig.Samples))
	for i, v := range sig.Samples {
		data[i] = int(v)
	}

	encoder := wav.NewEncoder(w, sig.SampleRate, bitDepth, sig.Channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: sig.Channels, SampleRate: sig.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV header: %w", err)
	}
	return nil
}

// Save writes sig to a new WAV file at path.
func Save(path string, sig vad.Signal[int32], bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := Encode(f, sig, bitDepth); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
