package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thanhtrungnguyen/voice-detection-app/internal/vad"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "defaults",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "zero window",
			mutate:      func(c *Config) { c.VAD.WindowSeconds = 0 },
			expectError: true,
			errorMsg:    "window_seconds must be positive",
		},
		{
			name:        "threshold out of range",
			mutate:      func(c *Config) { c.VAD.SpeechEnergyThreshold = 1.5 },
			expectError: true,
			errorMsg:    "speech_energy_threshold must be in (0, 1)",
		},
		{
			name:        "inverted band",
			mutate:      func(c *Config) { c.VAD.SpeechStartBandHz, c.VAD.SpeechEndBandHz = 3000, 300 },
			expectError: true,
			errorMsg:    "must be greater than speech_start_band_hz",
		},
		{
			name:        "unknown fold",
			mutate:      func(c *Config) { c.VAD.Fold = "last_wins" },
			expectError: true,
			errorMsg:    "fold must be 'first_wins' or 'sum'",
		},
		{
			name:        "invalid http port",
			mutate:      func(c *Config) { c.HTTP.Port = 70000 },
			expectError: true,
			errorMsg:    "http port must be between 1 and 65535",
		},
		{
			name:        "disabled http ignores port",
			mutate:      func(c *Config) { c.HTTP.Enabled = false; c.HTTP.Port = 0 },
			expectError: false,
		},
		{
			name:        "no workers",
			mutate:      func(c *Config) { c.Analysis.Workers = 0 },
			expectError: true,
			errorMsg:    "workers must be at least 1",
		},
		{
			name:        "max below min segment",
			mutate:      func(c *Config) { c.Export.MinSegmentSeconds = 2; c.Export.MaxSegmentSeconds = 1 },
			expectError: true,
			errorMsg:    "must not be less than min_segment_seconds",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.Logging.Level = "trace" },
			expectError: true,
			errorMsg:    "level must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)

			err := config.Validate()
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestConfigLoad(t *testing.T) {
	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		check       func(t *testing.T, c *Config)
	}{
		{
			name: "partial file keeps defaults",
			configYAML: `
vad:
  speech_energy_threshold: 0.4
  fold: sum
logging:
  level: debug
  format: json
`,
			check: func(t *testing.T, c *Config) {
				if c.VAD.SpeechEnergyThreshold != 0.4 {
					t.Errorf("Expected threshold 0.4, got %f", c.VAD.SpeechEnergyThreshold)
				}
				if c.VAD.WindowSeconds != vad.DefaultWindowSeconds {
					t.Errorf("Expected default window, got %f", c.VAD.WindowSeconds)
				}
				cfg, err := c.VAD.DetectorConfig()
				if err != nil {
					t.Fatalf("DetectorConfig failed: %v", err)
				}
				if cfg.Fold != vad.FoldSum {
					t.Errorf("Expected sum fold, got %v", cfg.Fold)
				}
				if c.Logging.Format != "json" {
					t.Errorf("Expected json logging, got %s", c.Logging.Format)
				}
			},
		},
		{
			name: "full file",
			configYAML: `
vad:
  window_seconds: 0.03
  overlap_seconds: 0.015
  speech_window_seconds: 0.3
  speech_energy_threshold: 0.25
  speech_start_band_hz: 250
  speech_end_band_hz: 3400
http:
  enabled: true
  address: 127.0.0.1
  port: 9090
  max_upload_mib: 8
analysis:
  workers: 2
  result_ttl: 60
  cleanup_interval: 5
export:
  min_segment_seconds: 0.2
  max_segment_seconds: 30
`,
			check: func(t *testing.T, c *Config) {
				if c.HTTP.Port != 9090 || c.HTTP.GetMaxUploadBytes() != 8<<20 {
					t.Errorf("Unexpected http config %+v", c.HTTP)
				}
				if c.Analysis.GetResultTTL() != time.Minute {
					t.Errorf("Expected 1m ttl, got %v", c.Analysis.GetResultTTL())
				}
				chunking := c.Export.ChunkingConfig()
				if chunking.MinDuration != 200*time.Millisecond || chunking.MaxDuration != 30*time.Second {
					t.Errorf("Unexpected chunking config %+v", chunking)
				}
				cfg, err := c.VAD.DetectorConfig()
				if err != nil {
					t.Fatalf("DetectorConfig failed: %v", err)
				}
				if cfg.MedianLength() != 9 {
					t.Errorf("Expected median length 9, got %d", cfg.MedianLength())
				}
			},
		},
		{
			name:        "invalid yaml",
			configYAML:  "vad: [unclosed",
			expectError: true,
		},
		{
			name: "invalid values",
			configYAML: `
vad:
  overlap_seconds: -1
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.configYAML), 0644); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}

			config, err := Load(configPath)
			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			tt.check(t, config)
		})
	}
}

func TestConfigLoadNonexistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestConfigLoadEmptyPath(t *testing.T) {
	config, err := Load("")
	if err != nil {
		t.Fatalf("Expected defaults, got error: %v", err)
	}
	if config.VAD.SpeechEndBandHz != vad.DefaultSpeechEndBandHz {
		t.Errorf("Expected default end band, got %f", config.VAD.SpeechEndBandHz)
	}
}

func TestLoggingConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config LoggingConfig
		valid  bool
	}{
		{
			name:   "valid json to stdout",
			config: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
			valid:  true,
		},
		{
			name:   "valid text to file",
			config: LoggingConfig{Level: "debug", Format: "text", Output: "/var/log/vad.log"},
			valid:  true,
		},
		{
			name:   "invalid format",
			config: LoggingConfig{Level: "info", Format: "xml", Output: "stdout"},
			valid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid config but got error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected invalid config but got no error")
			}
		})
	}
}
