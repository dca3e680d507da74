package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/proteome-lab/kmerspace/pkg/kmer"
	"github.com/proteome-lab/kmerspace/pkg/markov"
)

// EngineConfig holds the settings of the k-mer engine itself.
type EngineConfig struct {
	Alphabet string `json:"alphabet"`
	Domain   string `json:"domain"`
	// SortLimit bounds the nullomers held in memory when an exhaustive
	// space file is not ascending and its difference must be sorted.
	SortLimit int `json:"sort_limit"`
}

// BatchConfig holds the settings for bucket-driven batch commands.
type BatchConfig struct {
	Workers              int    `json:"workers"`
	OutputDir            string `json:"output_dir"`
	ExhaustiveDir        string `json:"exhaustive_dir"`
	ProteomeRegistryPath string `json:"proteome_registry_path"`
	KmerRegistryPath     string `json:"kmer_registry_path"`
	TransitionTablePath  string `json:"transition_table_path"`
	TableColumns         int    `json:"table_columns"`
}

// StoreConfig holds the settings of the transition table database.
type StoreConfig struct {
	Enabled      bool   `json:"enabled"`
	DatabasePath string `json:"database_path"`
}

// MetricsConfig holds where batch metrics are written. An empty path
// disables them.
type MetricsConfig struct {
	TextfilePath string `json:"textfile_path"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	LogLevel string         `json:"log_level"`
	Engine   *EngineConfig  `json:"engine_config"`
	Batch    *BatchConfig   `json:"batch_config"`
	Store    *StoreConfig   `json:"store_config"`
	Metrics  *MetricsConfig `json:"metrics_config"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Engine: &EngineConfig{
			Alphabet:  kmer.DefaultProteinSymbols,
			Domain:    "proteins",
			SortLimit: 1 << 24,
		},
		Batch: &BatchConfig{
			Workers:              4,
			OutputDir:            "./out",
			ExhaustiveDir:        ".",
			ProteomeRegistryPath: "./data/proteomes.json",
			KmerRegistryPath:     "./data/kmers.json",
			TransitionTablePath:  "./data/merged_output.csv",
			TableColumns:         markov.DefaultTableColumns,
		},
		Store: &StoreConfig{
			Enabled:      false,
			DatabasePath: "./data/kmerspace.db?_journal_mode=WAL&_busy_timeout=5000",
		},
		Metrics: &MetricsConfig{},
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Commands still run with defaults.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Sections missing from the file keep their defaults.
	defaults := DefaultConfig()
	if config.Engine == nil {
		config.Engine = defaults.Engine
	}
	if config.Batch == nil {
		config.Batch = defaults.Batch
	}
	if config.Store == nil {
		config.Store = defaults.Store
	}
	if config.Metrics == nil {
		config.Metrics = defaults.Metrics
	}

	return config, nil
}

// Alphabet builds the configured alphabet.
func (c *Config) Alphabet() (*kmer.Alphabet, error) {
	return kmer.NewAlphabet(c.Engine.Alphabet)
}

// parseLogLevel maps a config level name to a slog level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
