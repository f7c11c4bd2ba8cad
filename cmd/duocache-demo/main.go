// Command duocache-demo drives the duocache facade end to end: it loads
// configuration, opens a cache rooted at a directory, writes and reads a
// handful of entries, and prints the resulting stats. It exists to exercise
// OpenPath/Set/Get/Stats the way a real embedder would, not as a benchmark.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/duocache/duocache/internal/disktier"
	"github.com/duocache/duocache/internal/memtier"

	"github.com/duocache/duocache"
)

// demoConfig is loaded from an optional YAML file (DUOCACHE_DEMO_CONFIG)
// and then overlaid with DUOCACHE_DEMO_* environment variables, matching
// the layered config.yaml + env convention described for this tool.
type demoConfig struct {
	Dir          string        `yaml:"dir" envconfig:"DIR"`
	CountLimit   int64         `yaml:"count_limit" envconfig:"COUNT_LIMIT"`
	CostLimit    int64         `yaml:"cost_limit" envconfig:"COST_LIMIT"`
	InlineThresh int64         `yaml:"inline_threshold" envconfig:"INLINE_THRESHOLD"`
	TrimInterval time.Duration `yaml:"trim_interval" envconfig:"TRIM_INTERVAL"`
	Verbose      bool          `yaml:"verbose" envconfig:"VERBOSE"`
}

func defaultDemoConfig() demoConfig {
	return demoConfig{
		Dir:          "duocache-demo",
		CountLimit:   1000,
		CostLimit:    1 << 20,
		InlineThresh: 4096,
		TrimInterval: 30 * time.Second,
	}
}

func loadConfig() (demoConfig, error) {
	cfg := defaultDemoConfig()

	if path := os.Getenv("DUOCACHE_DEMO_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := envconfig.Process("duocache_demo", &cfg); err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}

	return cfg, nil
}

// stringCodec is a minimal stand-in for whatever serialization an embedder
// would actually plug in; the demo only ever stores strings.
func stringCodec() duocache.Codec {
	return duocache.Codec{
		Encode: func(v any) ([]byte, error) {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("demo codec only stores strings, got %T", v)
			}
			return []byte(s), nil
		},
		Decode: func(b []byte) (any, error) {
			return string(b), nil
		},
	}
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "duocache-demo: config:", err)
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	cache, err := duocache.OpenPath(cfg.Dir, stringCodec(),
		duocache.WithLogger(logger),
		duocache.WithMemoryOptions(
			memtier.WithCountLimit(cfg.CountLimit),
			memtier.WithAutoTrimInterval(cfg.TrimInterval),
		),
		duocache.WithDiskOptions(
			disktier.WithCostLimit(cfg.CostLimit),
			disktier.WithInlineThreshold(cfg.InlineThresh),
			disktier.WithAutoTrimInterval(cfg.TrimInterval),
		),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("duocache-demo: open failed")
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Error().Err(err).Msg("duocache-demo: close failed")
		}
	}()

	seed := map[string]string{
		"greeting": "hello from duocache",
		"user:1":   "krishna",
		"user:2":   "ada",
	}
	for key, value := range seed {
		if err := cache.Set(key, value, int64(len(value))); err != nil {
			logger.Error().Err(err).Str("key", key).Msg("duocache-demo: set failed")
			continue
		}
	}

	// Force a memory miss to exercise disk promotion before reporting stats.
	cache.OnLowMemory()

	for key := range seed {
		value, ok := cache.Get(key)
		if !ok {
			logger.Warn().Str("key", key).Msg("duocache-demo: expected hit, got miss")
			continue
		}
		fmt.Printf("%s = %v\n", key, value)
	}

	stats := cache.Stats()
	fmt.Printf("memory: hits=%d misses=%d count=%d cost=%d\n",
		stats.Memory.Hits, stats.Memory.Misses, stats.Memory.Count, stats.Memory.Cost)
	fmt.Printf("disk:   hits=%d misses=%d count=%d cost=%d\n",
		stats.Disk.Hits, stats.Disk.Misses, stats.Disk.Count, stats.Disk.Cost)
}
