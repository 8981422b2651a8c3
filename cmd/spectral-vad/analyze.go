package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/thanhtrungnguyen/voice-detection-app/internal/analysis"
	"github.com/thanhtrungnguyen/voice-detection-app/internal/audio"
	"github.com/thanhtrungnguyen/voice-detection-app/internal/config"
	"github.com/thanhtrungnguyen/voice-detection-app/internal/metrics"
	"github.com/thanhtrungnguyen/voice-detection-app/internal/vad"
)

type analyzeOptions struct {
	format    string
	exportDir string
}

func newAnalyzeCmd(cfgFile *string) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Print the speech intervals of one or more WAV files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("unknown output format %q (want text or json)", opts.format)
			}

			// Logs go to stderr so they never mix with the report
			cfg, logger, err := loadConfig(*cfgFile, "stderr")
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runAnalyze(ctx, cfg, logger, args, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "text", "output format: text or json")
	cmd.Flags().StringVar(&opts.exportDir, "export-dir", "", "write each speech segment as a WAV file into this directory")

	return cmd
}

// fileReport is the per-file output of the analyze command
type fileReport struct {
	analysis.FileResult
	Segments []segmentReport `json:"segments,omitempty"`
}

type segmentReport struct {
	audio.Chunk
	Path string `json:"path"`
}

func runAnalyze(ctx context.Context, cfg *config.Config, logger *slog.Logger, paths []string,
	opts analyzeOptions, out io.Writer) error {

	detectorConfig, err := cfg.VAD.DetectorConfig()
	if err != nil {
		return err
	}
	detector, err := vad.NewDetector(detectorConfig)
	if err != nil {
		return err
	}

	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	mgr, err := analysis.NewManager(logger, detector, appMetrics, analysis.ManagerConfig{
		Workers:         cfg.Analysis.Workers,
		ResultTTL:       cfg.Analysis.GetResultTTL(),
		CleanupInterval: cfg.Analysis.GetCleanupInterval(),
	})
	if err != nil {
		return err
	}
	defer mgr.Stop()

	results, err := mgr.AnalyzeFiles(ctx, paths)
	if err != nil {
		return err
	}

	var chunker *audio.Chunker
	if opts.exportDir != "" {
		if err := os.MkdirAll(opts.exportDir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
		chunker = audio.NewChunker(cfg.Export.ChunkingConfig())
	}

	reports := make([]fileReport, len(results))
	failed := 0
	for i, fr := range results {
		reports[i].FileResult = fr
		if fr.Err != nil {
			failed++
			continue
		}
		if chunker == nil {
			continue
		}

		segments, err := exportSegments(chunker, opts.exportDir, segmentPrefix(i, fr.Path), fr)
		if err != nil {
			return err
		}
		appMetrics.RecordSegmentsExported(len(segments))
		reports[i].Segments = segments
	}

	if chunker != nil {
		stats := chunker.GetStats()
		logger.Info("Speech segments exported",
			slog.String("dir", opts.exportDir),
			slog.Uint64("segments", stats.ChunksCreated),
			slog.Uint64("skipped_intervals", stats.Skipped),
		)
	}

	switch opts.format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	default:
		writeText(out, reports)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// segmentPrefix names the segments of the index-th input file. The index
// keeps inputs that share a base name from overwriting each other.
func segmentPrefix(index int, path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fmt.Sprintf("%03d_%s", index, base)
}

// exportSegments writes the speech intervals of one file as WAV chunks at
// the bit depth of the source file
func exportSegments(chunker *audio.Chunker, dir, prefix string, fr analysis.FileResult) ([]segmentReport, error) {
	mono, err := vad.ToMono(fr.Clip.Signal)
	if err != nil {
		return nil, err
	}

	chunks, err := chunker.Split(mono, fr.Result.Intervals)
	if err != nil {
		return nil, err
	}

	segments := make([]segmentReport, 0, len(chunks))
	for _, chunk := range chunks {
		path, err := audio.WriteChunk(dir, prefix, chunk, mono.SampleRate, fr.Clip.BitDepth)
		if err != nil {
			return nil, err
		}
		segments = append(segments, segmentReport{Chunk: chunk, Path: path})
	}
	return segments, nil
}

func writeText(out io.Writer, reports []fileReport) {
	for _, r := range reports {
		if r.Err != nil {
			fmt.Fprintf(out, "%s: error: %v\n", r.Path, r.Err)
			continue
		}

		s := r.Result.Summary
		fmt.Fprintf(out, "%s: %d Hz, %d ch, %.3fs, %d windows, %d speech intervals (%.1f%% speech)\n",
			r.Path, r.Audio.SampleRate, r.Audio.Channels, s.Duration, s.TotalWindows,
			len(r.Result.Intervals), 100*s.SpeechRatio)
		for _, iv := range r.Result.Intervals {
			fmt.Fprintf(out, "  %8.3f - %8.3f  (%.3fs)\n", iv.Begin, iv.End, iv.Duration())
		}
		for _, seg := range r.Segments {
			fmt.Fprintf(out, "  -> %s\n", seg.Path)
		}
	}
}
