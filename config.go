package streamgo

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that YAML-decodes from strings like
// "90s" or "5m".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("streamgo: parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config holds the tunable parameters of the streaming manager.
type Config struct {
	// MaxCacheSize is the cache capacity in bytes.
	MaxCacheSize int64 `yaml:"max_cache_size"`

	// WorkerThreads is the number of background load workers.
	WorkerThreads int `yaml:"worker_threads"`

	// LodDistanceHigh is the camera distance up to which the highest
	// detail level is selected, in world units.
	LodDistanceHigh float64 `yaml:"lod_distance_high"`

	// LodDistanceMedium is the camera distance up to which the medium
	// detail level is selected. Beyond it the lowest level is used.
	LodDistanceMedium float64 `yaml:"lod_distance_medium"`

	// LodDistanceLow is the camera distance beyond which an asset is
	// both at the lowest detail level and out of streaming range:
	// priority scoring treats anything farther as invisible.
	LodDistanceLow float64 `yaml:"lod_distance_low"`

	// AssetRoot is the directory resources are loaded from.
	AssetRoot string `yaml:"asset_root"`

	// EvictionPolicy selects the cache eviction strategy:
	// "lru", "lfu" or "priority". Default is "lru".
	EvictionPolicy string `yaml:"eviction_policy"`

	// IdleTimeout is how long an untouched resource stays tracked
	// before maintenance removes it. Zero disables idle removal.
	IdleTimeout Duration `yaml:"idle_timeout"`

	// LoadTimeout bounds a single load attempt. Zero means no limit.
	LoadTimeout Duration `yaml:"load_timeout"`

	// MaxConcurrentLoads caps simultaneous storage reads across workers.
	// Zero means one per worker.
	MaxConcurrentLoads int `yaml:"max_concurrent_loads"`

	// IOLimitBytesPerSec throttles storage read bandwidth.
	// Zero disables throttling.
	IOLimitBytesPerSec int64 `yaml:"io_limit_bytes_per_sec"`

	// QueueCapacity is the load queue depth. Requests beyond it fail.
	QueueCapacity int `yaml:"queue_capacity"`

	// EnablePredictiveLoading allows Preload to scan the asset root and
	// enqueue low-priority loads for matching files.
	EnablePredictiveLoading bool `yaml:"enable_predictive_loading"`
}

// DefaultConfig returns a Config with sensible defaults for a
// desktop-class title.
func DefaultConfig() Config {
	return Config{
		MaxCacheSize:      2 << 30, // 2 GiB
		WorkerThreads:     4,
		LodDistanceHigh:   50,
		LodDistanceMedium: 150,
		LodDistanceLow:    500,
		AssetRoot:         "assets",
		EvictionPolicy:    "lru",
		IdleTimeout:       Duration(5 * time.Minute),
		QueueCapacity:     1024,
	}
}

// LoadConfig reads a YAML config file, applying defaults for any
// field the file leaves unset. An empty path returns DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("streamgo: read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("streamgo: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.MaxCacheSize <= 0 {
		return &ConfigError{Field: "max_cache_size", Value: c.MaxCacheSize, Message: "must be positive"}
	}
	if c.WorkerThreads <= 0 {
		return &ConfigError{Field: "worker_threads", Value: c.WorkerThreads, Message: "must be positive"}
	}
	if c.LodDistanceHigh <= 0 {
		return &ConfigError{Field: "lod_distance_high", Value: c.LodDistanceHigh, Message: "must be positive"}
	}
	if c.LodDistanceMedium <= c.LodDistanceHigh {
		return &ConfigError{Field: "lod_distance_medium", Value: c.LodDistanceMedium, Message: "must exceed lod_distance_high"}
	}
	if c.LodDistanceLow <= c.LodDistanceMedium {
		return &ConfigError{Field: "lod_distance_low", Value: c.LodDistanceLow, Message: "must exceed lod_distance_medium"}
	}
	if c.AssetRoot == "" {
		return &ConfigError{Field: "asset_root", Value: c.AssetRoot, Message: "must not be empty"}
	}
	switch c.EvictionPolicy {
	case "", "lru", "lfu", "priority":
	default:
		return &ConfigError{Field: "eviction_policy", Value: c.EvictionPolicy, Message: `must be "lru", "lfu" or "priority"`}
	}
	if c.IdleTimeout < 0 {
		return &ConfigError{Field: "idle_timeout", Value: c.IdleTimeout, Message: "must not be negative"}
	}
	if c.LoadTimeout < 0 {
		return &ConfigError{Field: "load_timeout", Value: c.LoadTimeout, Message: "must not be negative"}
	}
	if c.MaxConcurrentLoads < 0 {
		return &ConfigError{Field: "max_concurrent_loads", Value: c.MaxConcurrentLoads, Message: "must not be negative"}
	}
	if c.IOLimitBytesPerSec < 0 {
		return &ConfigError{Field: "io_limit_bytes_per_sec", Value: c.IOLimitBytesPerSec, Message: "must not be negative"}
	}
	if c.QueueCapacity < 0 {
		return &ConfigError{Field: "queue_capacity", Value: c.QueueCapacity, Message: "must not be negative"}
	}
	return nil
}
