package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thanhtrungnguyen/voice-detection-app/internal/audio"
	"github.com/thanhtrungnguyen/voice-detection-app/internal/vad"
)

// Config represents the complete service configuration
type Config struct {
	VAD      VADConfig      `yaml:"vad" json:"vad"`
	HTTP     HTTPConfig     `yaml:"http" json:"http"`
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`
	Export   ExportConfig   `yaml:"export" json:"export"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// VADConfig contains the spectral voice activity detection parameters
type VADConfig struct {
	WindowSeconds         float64 `yaml:"window_seconds" json:"window_seconds"`
	OverlapSeconds        float64 `yaml:"overlap_seconds" json:"overlap_seconds"` // hop between window starts
	SpeechWindowSeconds   float64 `yaml:"speech_window_seconds" json:"speech_window_seconds"`
	SpeechEnergyThreshold float64 `yaml:"speech_energy_threshold" json:"speech_energy_threshold"`
	SpeechStartBandHz     float64 `yaml:"speech_start_band_hz" json:"speech_start_band_hz"`
	SpeechEndBandHz       float64 `yaml:"speech_end_band_hz" json:"speech_end_band_hz"`
	Fold                  string  `yaml:"fold" json:"fold"` // first_wins or sum
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Port         int    `yaml:"port" json:"port"`
	Address      string `yaml:"address" json:"address"`
	Enabled      bool   `yaml:"enabled" json:"enabled"`
	MaxUploadMiB int    `yaml:"max_upload_mib" json:"max_upload_mib"`
}

// AnalysisConfig contains background analysis settings
type AnalysisConfig struct {
	Workers         int `yaml:"workers" json:"workers"`
	ResultTTL       int `yaml:"result_ttl" json:"result_ttl"`             // seconds
	CleanupInterval int `yaml:"cleanup_interval" json:"cleanup_interval"` // seconds
}

// ExportConfig controls how speech intervals are written out as WAV chunks
type ExportConfig struct {
	MinSegmentSeconds float64 `yaml:"min_segment_seconds" json:"min_segment_seconds"`
	MaxSegmentSeconds float64 `yaml:"max_segment_seconds" json:"max_segment_seconds"` // 0 disables splitting
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		VAD: VADConfig{
			WindowSeconds:         vad.DefaultWindowSeconds,
			OverlapSeconds:        vad.DefaultOverlapSeconds,
			SpeechWindowSeconds:   vad.DefaultSpeechWindowSeconds,
			SpeechEnergyThreshold: vad.DefaultSpeechEnergyThreshold,
			SpeechStartBandHz:     vad.DefaultSpeechStartBandHz,
			SpeechEndBandHz:       vad.DefaultSpeechEndBandHz,
			Fold:                  vad.FoldFirstWins.String(),
		},
		HTTP: HTTPConfig{
			Port:         8080,
			Address:      "0.0.0.0",
			Enabled:      true,
			MaxUploadMiB: 64,
		},
		Analysis: AnalysisConfig{
			Workers:         4,
			ResultTTL:       600,
			CleanupInterval: 30,
		},
		Export: ExportConfig{
			MinSegmentSeconds: 0,
			MaxSegmentSeconds: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads the configuration file, overlays it on the defaults and validates it.
// An empty path returns the validated defaults.
func Load(path string) (*Config, error) {
	config := Default()
	if path == "" {
		return config, config.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.VAD.Validate(); err != nil {
		return fmt.Errorf("vad config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}

	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates VAD configuration
func (v *VADConfig) Validate() error {
	_, err := v.DetectorConfig()
	return err
}

// DetectorConfig converts the section into a validated detector configuration
func (v *VADConfig) DetectorConfig() (vad.Config, error) {
	fold, err := vad.ParseFoldMode(v.Fold)
	if err != nil {
		return vad.Config{}, err
	}

	cfg := vad.Config{
		WindowSeconds:         v.WindowSeconds,
		OverlapSeconds:        v.OverlapSeconds,
		SpeechWindowSeconds:   v.SpeechWindowSeconds,
		SpeechEnergyThreshold: v.SpeechEnergyThreshold,
		SpeechStartBandHz:     v.SpeechStartBandHz,
		SpeechEndBandHz:       v.SpeechEndBandHz,
		Fold:                  fold,
	}
	if err := cfg.Validate(); err != nil {
		return vad.Config{}, err
	}
	return cfg, nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	if h.MaxUploadMiB < 1 {
		return fmt.Errorf("max_upload_mib must be at least 1, got %d", h.MaxUploadMiB)
	}

	return nil
}

// Validate validates analysis configuration
func (a *AnalysisConfig) Validate() error {
	if a.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", a.Workers)
	}

	if a.ResultTTL < 1 {
		return fmt.Errorf("result_ttl must be at least 1 second, got %d", a.ResultTTL)
	}

	if a.CleanupInterval < 1 {
		return fmt.Errorf("cleanup_interval must be at least 1 second, got %d", a.CleanupInterval)
	}

	return nil
}

// Validate validates export configuration
func (e *ExportConfig) Validate() error {
	if e.MinSegmentSeconds < 0 {
		return fmt.Errorf("min_segment_seconds cannot be negative, got %f", e.MinSegmentSeconds)
	}

	if e.MaxSegmentSeconds < 0 {
		return fmt.Errorf("max_segment_seconds cannot be negative, got %f", e.MaxSegmentSeconds)
	}

	if e.MaxSegmentSeconds > 0 && e.MaxSegmentSeconds < e.MinSegmentSeconds {
		return fmt.Errorf("max_segment_seconds (%f) must not be less than min_segment_seconds (%f)",
			e.MaxSegmentSeconds, e.MinSegmentSeconds)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// Output is stdout, stderr or a file path; all are accepted.
	return nil
}

// GetResultTTL returns the result retention as a time.Duration
func (a *AnalysisConfig) GetResultTTL() time.Duration {
	return time.Duration(a.ResultTTL) * time.Second
}

// GetCleanupInterval returns the cleanup period as a time.Duration
func (a *AnalysisConfig) GetCleanupInterval() time.Duration {
	return time.Duration(a.CleanupInterval) * time.Second
}

// ChunkingConfig returns the chunker settings for exported speech segments
func (e *ExportConfig) ChunkingConfig() audio.ChunkingConfig {
	return audio.ChunkingConfig{
		MinDuration: time.Duration(e.MinSegmentSeconds * float64(time.Second)),
		MaxDuration: time.Duration(e.MaxSegmentSeconds * float64(time.Second)),
	}
}

// GetMaxUploadBytes returns the request body limit in bytes
func (h *HTTPConfig) GetMaxUploadBytes() int64 {
	return int64(h.MaxUploadMiB) << 20
}
