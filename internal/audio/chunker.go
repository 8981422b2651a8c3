package audio

import (
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/thanhtrungnguyen/voice-detection-app/internal/vad"
)

// Chunk is a piece of a mono signal covering (part of) one speech interval.
type Chunk struct {
	Index    int     `json:"index"`
	Interval int     `json:"interval"` // index of the source speech interval
	Begin    float64 `json:"begin_seconds"`
	End      float64 `json:"end_seconds"`
	Samples  []int32 `json:"-"`
}

// Duration returns the chunk length in seconds.
func (c Chunk) Duration() float64 {
	return c.End - c.Begin
}

// ChunkingConfig contains configuration for cutting speech chunks
type ChunkingConfig struct {
	MinDuration time.Duration // intervals shorter than this are skipped
	MaxDuration time.Duration // longer intervals are split; 0 disables splitting
}

// Chunker cuts speech intervals out of a mono signal for downstream use.
type Chunker struct {
	config ChunkingConfig

	// Statistics
	chunksCreated uint64
	skipped       uint64
	totalDuration time.Duration

	mu sync.RWMutex
}

// ChunkerStats represents chunker statistics
type ChunkerStats struct {
	ChunksCreated uint64        `json:"chunks_created"`
	Skipped       uint64        `json:"intervals_skipped"`
	TotalDuration time.Duration `json:"total_duration"`
	AvgChunkSize  float64       `json:"avg_chunk_duration_sec"`
}

// NewChunker creates a new speech chunker
func NewChunker(config ChunkingConfig) *Chunker {
	return &Chunker{config: config}
}

// Split returns the samples of every speech interval in mono, splitting
// intervals longer than MaxDuration into consecutive chunks.
func (c *Chunker) Split(mono vad.Signal[int32], intervals []vad.SpeechInterval) ([]Chunk, error) {
	if err := mono.Validate(); err != nil {
		return nil, err
	}
	if mono.Channels != 1 {
		return nil, fmt.Errorf("%w: chunker needs a mono signal, got %d channels", vad.ErrInvalidArgument, mono.Channels)
	}

	rate := float64(mono.SampleRate)
	maxSamples := int(c.config.MaxDuration.Seconds() * rate)

	var chunks []Chunk
	var skipped uint64
	var total time.Duration
	for i, iv := range intervals {
		if seconds(iv.Duration()) < c.config.MinDuration {
			skipped++
			continue
		}

		start := clampIndex(int(math.Round(iv.Begin*rate)), len(mono.Samples))
		end := clampIndex(int(math.Round(iv.End*rate)), len(mono.Samples))
		for from := start; from < end; {
			to := end
			if maxSamples > 0 && to-from > maxSamples {
				to = from + maxSamples
			}
			chunk := Chunk{
				Index:    len(chunks),
				Interval: i,
				Begin:    float64(from) / rate,
				End:      float64(to) / rate,
				Samples:  mono.Samples[from:to],
			}
			chunks = append(chunks, chunk)
			total += seconds(chunk.Duration())
			from = to
		}
	}

	c.mu.Lock()
	c.chunksCreated += uint64(len(chunks))
	c.skipped += skipped
	c.totalDuration += total
	c.mu.Unlock()

	return chunks, nil
}

// GetStats returns current chunker statistics
func (c *Chunker) GetStats() ChunkerStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	avgDuration := float64(0)
	if c.chunksCreated > 0 {
		avgDuration = c.totalDuration.Seconds() / float64(c.chunksCreated)
	}

	return ChunkerStats{
		ChunksCreated: c.chunksCreated,
		Skipped:       c.skipped,
		TotalDuration: c.totalDuration,
		AvgChunkSize:  avgDuration,
	}
}

// WriteChunk saves chunk as dir/<prefix>_<index>.wav and returns the path.
func WriteChunk(dir, prefix string, chunk Chunk, sampleRate, bitDepth int) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%s_%03d.wav", prefix, chunk.Index))
	sig := vad.Signal[int32]{Samples: chunk.Samples, SampleRate: sampleRate, Channels: 1}
	if err := Save(path, sig, bitDepth); err != nil {
		return "", fmt.Errorf("failed to write chunk %d: %w", chunk.Index, err)
	}
	return path, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func clampIndex(i, n int) int {
	return min(max(i, 0), n)
}
