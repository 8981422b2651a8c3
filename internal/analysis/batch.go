package analysis

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/thanhtrungnguyen/voice-detection-app/internal/audio"
	"github.com/thanhtrungnguyen/voice-detection-app/internal/vad"
)

// FileResult is the outcome of analysing one WAV file
type FileResult struct {
	Path   string      `json:"path"`
	Audio  audio.Info  `json:"audio"`
	Result *vad.Result `json:"result,omitempty"`
	Err    error       `json:"-"`
	Error  string      `json:"error,omitempty"`

	// Clip holds the decoded audio so callers can export segments
	Clip *audio.Clip `json:"-"`
}

// AnalyzeFiles loads and analyses paths concurrently, at most Workers at a
// time. Results keep the order of paths. A file that fails to load or
// analyse is reported in its FileResult; only cancellation of ctx aborts
// the batch.
func (m *Manager) AnalyzeFiles(ctx context.Context, paths []string) ([]FileResult, error) {
	results := make([]FileResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.config.Workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = m.analyzeFile(ctx, path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (m *Manager) analyzeFile(ctx context.Context, path string) FileResult {
	fr := FileResult{Path: path}

	clip, err := audio.Load(path)
	if err != nil {
		m.metrics.RecordAnalysisFailure(FailureReason(err))
		m.logger.Warn("Failed to load audio file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		fr.Err = err
		fr.Error = err.Error()
		return fr
	}
	fr.Clip = clip
	fr.Audio = clip.Info()

	result, err := m.Analyze(ctx, path, clip.Signal)
	if err != nil {
		fr.Err = err
		fr.Error = err.Error()
		return fr
	}
	fr.Result = result
	return fr
}
