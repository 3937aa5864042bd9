package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the lexiscope configuration, loaded from a yaml file.
// Keys that are absent from the file keep their defaults.
type Config struct {
	Accounts    []string    `yaml:"accounts"`
	Analysis    Analysis    `yaml:"analysis"`
	Fetch       Fetch       `yaml:"fetch"`
	Credentials Credentials `yaml:"credentials"`
	Storage     Storage     `yaml:"storage"`
	Report      Report      `yaml:"report"`
	Metrics     Metrics     `yaml:"metrics"`
}

type Analysis struct {
	// TargetTokens is the per-account corpus size the analyzer
	// accumulates before computing a ratio.
	TargetTokens int `yaml:"targetTokens"`
	// MinTextLength drops cleaned posts at or under this many runes.
	MinTextLength  int    `yaml:"minTextLength"`
	ExcludeReposts bool   `yaml:"excludeReposts"`
	MentionPattern string `yaml:"mentionPattern"`
	LinkPattern    string `yaml:"linkPattern"`
}

type Fetch struct {
	MaxPosts    int    `yaml:"maxPosts"`
	PageSize    int    `yaml:"pageSize"`
	Concurrency int    `yaml:"concurrency"`
	Interval    string `yaml:"interval"`
}

type Credentials struct {
	BearerToken string `yaml:"bearerToken"`
}

type Storage struct {
	DBPath string `yaml:"dbPath"`
}

type Report struct {
	OutputDir string `yaml:"outputDir"`
}

type Metrics struct {
	Addr string `yaml:"addr"`
}

func Default() Config {
	return Config{
		Accounts: []string{"NASA", "NatGeo", "sciam"},
		Analysis: Analysis{
			TargetTokens:   2500,
			MinTextLength:  5,
			ExcludeReposts: true,
		},
		Fetch: Fetch{
			MaxPosts:    800,
			PageSize:    100,
			Concurrency: 3,
			Interval:    "1h",
		},
		Storage: Storage{
			DBPath: "lexiscope.db",
		},
		Report: Report{
			OutputDir: "reports",
		},
		Metrics: Metrics{
			Addr: ":9109",
		},
	}
}

// Load reads path and unmarshals it over Default, so a file only
// needs the keys it wants to change.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(cfg Config, path string) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ResolveEnv fills credentials from the environment when the file
// left them blank. Environment always loses to an explicit value.
func (c *Config) ResolveEnv() {
	if c.Credentials.BearerToken == "" {
		c.Credentials.BearerToken = os.Getenv("X_BEARER_TOKEN")
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = os.Getenv("METRICS_ADDR")
	}
}

func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("config: no accounts listed")
	}
	if c.Analysis.TargetTokens <= 0 {
		return fmt.Errorf("config: analysis.targetTokens must be positive, got %d", c.Analysis.TargetTokens)
	}
	if c.Analysis.MinTextLength < 0 {
		return fmt.Errorf("config: analysis.minTextLength must not be negative, got %d", c.Analysis.MinTextLength)
	}
	for _, p := range []string{c.Analysis.MentionPattern, c.Analysis.LinkPattern} {
		if p == "" {
			continue
		}
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("config: bad pattern %q: %w", p, err)
		}
	}
	if c.Fetch.MaxPosts <= 0 {
		return fmt.Errorf("config: fetch.maxPosts must be positive, got %d", c.Fetch.MaxPosts)
	}
	if c.Fetch.PageSize < 5 || c.Fetch.PageSize > 100 {
		return fmt.Errorf("config: fetch.pageSize must be within 5..100, got %d", c.Fetch.PageSize)
	}
	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("config: fetch.concurrency must be at least 1, got %d", c.Fetch.Concurrency)
	}
	if c.Fetch.Interval != "" {
		if _, err := time.ParseDuration(c.Fetch.Interval); err != nil {
			return fmt.Errorf("config: bad fetch.interval: %w", err)
		}
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("config: storage.dbPath is empty")
	}
	return nil
}

// FetchInterval returns the watch-mode interval, defaulting to an
// hour when unset. Validate catches unparseable values first.
func (c *Config) FetchInterval() time.Duration {
	if c.Fetch.Interval == "" {
		return time.Hour
	}
	d, err := time.ParseDuration(c.Fetch.Interval)
	if err != nil {
		return time.Hour
	}
	return d
}
