package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/thanhtrungnguyen/voice-detection-app/internal/analysis"
	"github.com/thanhtrungnguyen/voice-detection-app/internal/metrics"
	"github.com/thanhtrungnguyen/voice-detection-app/internal/server"
	"github.com/thanhtrungnguyen/voice-detection-app/internal/vad"
)

func newServeCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *cfgFile)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, logger, err := loadConfig(configPath, "")
	if err != nil {
		return err
	}

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", configPath),
	)

	if !cfg.HTTP.Enabled {
		return fmt.Errorf("http server is disabled in configuration")
	}

	detectorConfig, err := cfg.VAD.DetectorConfig()
	if err != nil {
		return err
	}
	detector, err := vad.NewDetector(detectorConfig)
	if err != nil {
		return err
	}

	logger.Info("Configuration loaded",
		slog.Float64("window_seconds", detectorConfig.WindowSeconds),
		slog.Float64("overlap_seconds", detectorConfig.OverlapSeconds),
		slog.Float64("speech_window_seconds", detectorConfig.SpeechWindowSeconds),
		slog.Float64("speech_energy_threshold", detectorConfig.SpeechEnergyThreshold),
		slog.Float64("speech_start_band_hz", detectorConfig.SpeechStartBandHz),
		slog.Float64("speech_end_band_hz", detectorConfig.SpeechEndBandHz),
		slog.String("fold", detectorConfig.Fold.String()),
		slog.Int("workers", cfg.Analysis.Workers),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize Prometheus metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.NewMetrics(reg)
	logger.Info("Prometheus metrics initialized")

	mgr, err := analysis.NewManager(logger, detector, appMetrics, analysis.ManagerConfig{
		Workers:         cfg.Analysis.Workers,
		ResultTTL:       cfg.Analysis.GetResultTTL(),
		CleanupInterval: cfg.Analysis.GetCleanupInterval(),
	})
	if err != nil {
		return fmt.Errorf("failed to create analysis manager: %w", err)
	}
	logger.Info("Analysis manager initialized",
		slog.Int("workers", cfg.Analysis.Workers),
		slog.Duration("result_ttl", cfg.Analysis.GetResultTTL()),
	)

	httpServer := server.NewHTTPServer(logger, cfg, mgr, appMetrics, reg)
	if err := httpServer.Start(); err != nil {
		mgr.Stop()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
	)

	<-ctx.Done()
	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	mgr.Stop()

	logger.Info("Service stopped")
	return nil
}
