package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all daemon configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Sampler   SamplerConfig   `yaml:"sampler"`
	Governor  GovernorConfig  `yaml:"governor"`
	Suspend   SuspendConfig   `yaml:"suspend"`
	Logging   LogConfig       `envconfig:"LOG" yaml:"logging"`
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT" yaml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8300" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
}

// SamplerConfig holds metric sampling configuration.
type SamplerConfig struct {
	// ProcessMemoryFloorMB drops processes below this resident size from
	// the sampled list.
	ProcessMemoryFloorMB float64 `envconfig:"MEMORY_FLOOR_MB" default:"100" yaml:"process_memory_floor_mb"`
	// WindowSize is the number of recent samples kept for smoothed gauges.
	WindowSize int `envconfig:"WINDOW_SIZE" default:"30" yaml:"window_size"`
}

// GovernorConfig holds control loop configuration.
type GovernorConfig struct {
	MemoryThresholdPercent float64       `envconfig:"MEMORY_THRESHOLD" default:"85" yaml:"memory_threshold_percent"`
	CandidateCutoff        float64       `envconfig:"CANDIDATE_CUTOFF" default:"0.7" yaml:"candidate_cutoff"`
	MaxVictimsPerTick      int           `envconfig:"MAX_VICTIMS" default:"3" yaml:"max_victims_per_tick"`
	TickInterval           time.Duration `envconfig:"TICK_INTERVAL" default:"2s" yaml:"tick_interval"`
	// MaxSuspendAge resumes processes suspended longer than this. Zero
	// disables auto-expiry.
	MaxSuspendAge time.Duration `envconfig:"MAX_SUSPEND_AGE" default:"0" yaml:"max_suspend_age"`
	HistorySize   int           `envconfig:"HISTORY_SIZE" default:"100" yaml:"history_size"`
}

// SuspendConfig holds suspension controller configuration.
type SuspendConfig struct {
	JournalPath string `envconfig:"JOURNAL_PATH" default:"/var/lib/headroom/suspend_journal.json" yaml:"journal_path"`
	CgroupRoot  string `envconfig:"CGROUP_ROOT" default:"/sys/fs/cgroup" yaml:"cgroup_root"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds rate limiting for mutating HTTP endpoints.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RPS" default:"10" yaml:"requests_per_second"`
	Burst             int  `envconfig:"BURST" default:"20" yaml:"burst"`
	Enabled           bool `envconfig:"ENABLED" default:"true" yaml:"enabled"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("HEADROOM", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile loads configuration from the environment, then overlays a YAML
// file on top. Missing file keys keep their environment/default values.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8300",
			Host: "0.0.0.0",
		},
		Sampler: SamplerConfig{
			ProcessMemoryFloorMB: 100,
			WindowSize:           30,
		},
		Governor: GovernorConfig{
			MemoryThresholdPercent: 85,
			CandidateCutoff:        0.7,
			MaxVictimsPerTick:      3,
			TickInterval:           2 * time.Second,
			MaxSuspendAge:          0,
			HistorySize:            100,
		},
		Suspend: SuspendConfig{
			JournalPath: "/var/lib/headroom/suspend_journal.json",
			CgroupRoot:  "/sys/fs/cgroup",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
			Enabled:           true,
		},
	}
}

// Validate checks configuration bounds.
func (c *Config) Validate() error {
	if c.Governor.MemoryThresholdPercent <= 0 || c.Governor.MemoryThresholdPercent > 100 {
		return fmt.Errorf("memory threshold must be in (0,100], got %v", c.Governor.MemoryThresholdPercent)
	}
	if c.Governor.CandidateCutoff < 0 || c.Governor.CandidateCutoff > 1 {
		return fmt.Errorf("candidate cutoff must be in [0,1], got %v", c.Governor.CandidateCutoff)
	}
	if c.Governor.MaxVictimsPerTick < 0 {
		return fmt.Errorf("max victims per tick must be non-negative, got %d", c.Governor.MaxVictimsPerTick)
	}
	if c.Governor.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.Governor.TickInterval)
	}
	if c.Governor.MaxSuspendAge < 0 {
		return fmt.Errorf("max suspend age must be non-negative, got %v", c.Governor.MaxSuspendAge)
	}
	if c.Governor.HistorySize <= 0 {
		return fmt.Errorf("history size must be positive, got %d", c.Governor.HistorySize)
	}
	if c.Sampler.ProcessMemoryFloorMB < 0 {
		return fmt.Errorf("process memory floor must be non-negative, got %v", c.Sampler.ProcessMemoryFloorMB)
	}
	if c.Sampler.WindowSize <= 0 {
		return fmt.Errorf("sampler window size must be positive, got %d", c.Sampler.WindowSize)
	}
	return nil
}
