// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"mpdrec.yaml",
	"/etc/mpdrec/config.yaml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Options adjusts a single load.
type Options struct {
	// Path names the config file explicitly. A missing file is an error.
	Path string

	// Overrides are applied after the environment, keyed by koanf path
	// such as "recommend.k".
	Overrides map[string]interface{}
}

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	cpus := min(runtime.NumCPU(), 256)
	return &Config{
		Paths: PathsConfig{
			Train:          "data/raw/spotify_train_dataset.zip",
			TestArchive:    "data/raw/spotify_test_playlists.zip",
			TestInputEntry: "test_input_playlists.json",
			TestEvalEntry:  "test_eval_playlists.json",
			ProcessedDir:   "data/processed",
			Submission:     "submissions/popularity_baseline.csv",
			Metadata:       "submissions/popularity_baseline_info.json",
			Report:         "submissions/popularity_baseline_eval.json",
		},
		Build: BuildConfig{
			Workers:          cpus,
			ProgressShards:   100,
			ProgressInterval: 30 * time.Second,
		},
		Recommend: RecommendConfig{
			K:             500,
			CandidatePool: 2000,
			Workers:       cpus,
		},
		Evaluate: EvaluateConfig{
			Workers:       cpus,
			KeepPlaylists: false,
		},
		Team: TeamConfig{
			Name:  "popularity-baseline",
			Email: "",
		},
		History: HistoryConfig{
			Enabled: true,
			Dir:     "data/history",
		},
		Results: ResultsConfig{
			Enabled: false,
			Path:    "data/results.duckdb",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//  4. Overrides: values from command-line flags
func LoadWithKoanf(opts Options) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional unless named explicitly)
	configPath := opts.Path
	if configPath == "" {
		configPath = findConfigFile()
	} else if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables
	// MPD_TRAIN_PATH -> paths.train, RECOMMEND_K -> recommend.k
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Layer 4: Command-line overrides (highest priority)
	for path, val := range opts.Overrides {
		if err := k.Set(path, val); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", path, err)
		}
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"paths.train_entries",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Paths
	"mpd_train_path":       "paths.train",
	"mpd_train_entries":    "paths.train_entries",
	"mpd_test_archive":     "paths.test_archive",
	"mpd_test_input_entry": "paths.test_input_entry",
	"mpd_test_eval_entry":  "paths.test_eval_entry",
	"mpd_processed_dir":    "paths.processed_dir",
	"mpd_submission_path":  "paths.submission",
	"mpd_metadata_path":    "paths.metadata",
	"mpd_report_path":      "paths.report",

	// Build
	"build_workers":           "build.workers",
	"build_progress_shards":   "build.progress_shards",
	"build_progress_interval": "build.progress_interval",

	// Recommend
	"recommend_k":              "recommend.k",
	"recommend_candidate_pool": "recommend.candidate_pool",
	"recommend_workers":        "recommend.workers",

	// Evaluate
	"evaluate_workers":        "evaluate.workers",
	"evaluate_keep_playlists": "evaluate.keep_playlists",

	// Team
	"team_name":  "team.name",
	"team_email": "team.email",

	// History
	"history_enabled": "history.enabled",
	"history_dir":     "history.dir",

	// Results
	"results_enabled": "results.enabled",
	"results_path":    "results.path",
	"results_label":   "results.label",

	// Metrics
	"metrics_textfile_path": "metrics.textfile_path",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - MPD_TRAIN_PATH -> paths.train
//   - RECOMMEND_CANDIDATE_POOL -> recommend.candidate_pool
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
