// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

// Package config loads the audio intake service configuration from a YAML
// file overlaid with INTAKE_* environment variables. Secrets (API tokens)
// never live in the file; they are read from the environment at the point of
// use so they can be handed to subprocesses via the environment only.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// GapPolicy names the behavior when chunk indexes have holes at finalize.
type GapPolicy string

const (
	// GapPolicySkip logs a warning for each missing index and proceeds with
	// the chunks that exist.
	GapPolicySkip GapPolicy = "skip"
	// GapPolicyFail aborts finalize when any index is missing.
	GapPolicyFail GapPolicy = "fail"
)

// Config is the full service configuration.
type Config struct {
	Port     string `koanf:"port"`
	Bind     string `koanf:"bind"`
	LogLevel string `koanf:"log_level"`

	NATS          NATSConfig          `koanf:"nats"`
	Chunks        ChunksConfig        `koanf:"chunks"`
	Scratch       ScratchConfig       `koanf:"scratch"`
	Diarization   DiarizationConfig   `koanf:"diarization"`
	Transcription TranscriptionConfig `koanf:"transcription"`
	Workers       WorkersConfig       `koanf:"workers"`
}

// NATSConfig configures the NATS connection shared by storage and messaging.
type NATSConfig struct {
	URL string `koanf:"url"`
}

// ChunksConfig configures on-disk chunk storage.
type ChunksConfig struct {
	Dir       string    `koanf:"dir"`
	GapPolicy GapPolicy `koanf:"gap_policy"`
}

// ScratchConfig configures the scratch directory for intermediate audio.
type ScratchConfig struct {
	Dir string `koanf:"dir"`
}

// DiarizationConfig configures the external speaker separation model.
type DiarizationConfig struct {
	PythonBin            string `koanf:"python_bin"`
	Script               string `koanf:"script"`
	HealthScript         string `koanf:"health_script"`
	TimeoutSeconds       int    `koanf:"timeout_seconds"`
	HealthTimeoutSeconds int    `koanf:"health_timeout_seconds"`
	HealthCacheTTLMin    int    `koanf:"health_cache_ttl_minutes"`
}

// TranscriptionConfig configures the local engine and the remote fallback.
type TranscriptionConfig struct {
	Command          string `koanf:"command"`
	ModelSize        string `koanf:"model_size"`
	Language         string `koanf:"language"`
	MinFileSizeBytes int64  `koanf:"min_file_size_bytes"`
}

// WorkersConfig bounds the cleanup worker pool.
type WorkersConfig struct {
	Count int `koanf:"count"`
}

// Environment variable names for secrets, read at point of use.
const (
	EnvHuggingFaceToken = "HUGGINGFACE_TOKEN"
	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvWhisperModel     = "WHISPER_MODEL"
)

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Port:     "8080",
		Bind:     "*",
		LogLevel: "info",
		NATS:     NATSConfig{URL: "nats://localhost:4222"},
		Chunks: ChunksConfig{
			Dir:       "/var/lib/audio-intake/chunks",
			GapPolicy: GapPolicySkip,
		},
		Scratch: ScratchConfig{Dir: "/var/lib/audio-intake/scratch"},
		Diarization: DiarizationConfig{
			PythonBin:            "python3",
			Script:               "/opt/audio-intake/diarize.py",
			HealthScript:         "/opt/audio-intake/diarize_health.py",
			TimeoutSeconds:       300,
			HealthTimeoutSeconds: 30,
			HealthCacheTTLMin:    60,
		},
		Transcription: TranscriptionConfig{
			Command:          "/opt/audio-intake/transcribe.py",
			ModelSize:        "small",
			Language:         "fr",
			MinFileSizeBytes: 1024,
		},
		Workers: WorkersConfig{Count: 4},
	}
}

// Load reads configuration from the given YAML file if it exists, then
// overlays INTAKE_* environment overrides (double underscore separates
// nesting levels: INTAKE_CHUNKS__GAP_POLICY -> chunks.gap_policy).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("INTAKE_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "INTAKE_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	switch c.Chunks.GapPolicy {
	case GapPolicySkip, GapPolicyFail:
	default:
		return fmt.Errorf("invalid chunks.gap_policy %q: must be %q or %q",
			c.Chunks.GapPolicy, GapPolicySkip, GapPolicyFail)
	}
	if c.Diarization.TimeoutSeconds <= 0 {
		return fmt.Errorf("diarization.timeout_seconds must be positive")
	}
	if c.Diarization.HealthTimeoutSeconds <= 0 {
		return fmt.Errorf("diarization.health_timeout_seconds must be positive")
	}
	if c.Transcription.MinFileSizeBytes < 0 {
		return fmt.Errorf("transcription.min_file_size_bytes must not be negative")
	}
	if c.Workers.Count <= 0 {
		return fmt.Errorf("workers.count must be positive")
	}
	return nil
}
