package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/gkoulin/owen-hash-experiments/internal/domain/bias"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/scramble"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/search"
)

// Environment variables that override the config file.
const (
	EnvWorkers  = "OWENHASH_WORKERS"
	EnvSeed     = "OWENHASH_SEED"
	EnvSamples  = "OWENHASH_SAMPLES"
	EnvLogLevel = "OWENHASH_LOG_LEVEL"
)

// Defaults for the measurement and search commands.
const (
	DefaultSamples    = 1 << 23
	DefaultOptRounds  = 2500
	DefaultPopulation = 2
	DefaultSeqLength  = 6
	DefaultPreset     = "owen"
)

// Config is the persisted project configuration (.owenhash/config.json).
// Zero Seed means a fresh seed per run, reported in the log and the archive.
type Config struct {
	Workers        int    `json:"workers"`
	Seed           uint64 `json:"seed"`
	Samples        int    `json:"samples"`
	ScoringSamples int    `json:"scoring_samples"`
	ChunkSize      int    `json:"chunk_size"`
	Population     int    `json:"population"`
	OptRounds      int    `json:"opt_rounds"`
	SeqLength      int    `json:"sequence_length"`
	Rounds         []int  `json:"rounds"`
	Preset         string `json:"preset"`
	LogLevel       string `json:"log_level"`
	Progress       bool   `json:"progress"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Workers:        DefaultWorkers(),
		Samples:        DefaultSamples,
		ScoringSamples: search.DefaultScoringSamples,
		ChunkSize:      bias.DefaultChunkSize,
		Population:     DefaultPopulation,
		OptRounds:      DefaultOptRounds,
		SeqLength:      DefaultSeqLength,
		Rounds:         append([]int(nil), scramble.DefaultRounds...),
		Preset:         DefaultPreset,
		LogLevel:       "info",
		Progress:       true,
	}
}

// DefaultWorkers is the logical core count, falling back to the Go runtime's
// view when the host can't be queried.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as indented JSON, creating the parent directory.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// LoadDotEnv loads KEY=VALUE pairs from each existing file into the process
// environment. Variables already set win. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg from the OWENHASH_* variables visible via lookup
// (normally os.LookupEnv).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v, ok := lookup(EnvSeed); ok && v != "" {
		n, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		c.Seed = n
	}
	if v, ok := lookup(EnvSamples); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSamples, err)
		}
		c.Samples = n
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	return nil
}

// Sampling is the engine configuration for a measurement of n samples.
func (c Config) Sampling(n int, seed uint64) bias.Config {
	return bias.Config{
		Samples:   n,
		ChunkSize: c.ChunkSize,
		Workers:   c.Workers,
		Seed:      seed,
	}
}
