// Package config loads fpgaroute.toml.
//
// A config file has one table per concern. Every key is optional; missing
// keys keep the defaults of [Default], and unknown keys are rejected so a
// typo does not silently fall back to a default.
//
//	[router]
//	max_iterations = 80
//	routing_predictor = "aggressive"
//	workers = 4
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[log]
//	level = "debug"
//
//	[metrics]
//	addr = ":9090"
//
//	[output]
//	dir = "out"
//	formats = ["dump", "overuse", "svg"]
//
// Command-line flags override file values.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/fabric"
	"github.com/matzehuels/fpgaroute/pkg/pipeline"
	"github.com/matzehuels/fpgaroute/pkg/router"
)

// DefaultFile is the config file looked up in the working directory when
// no path is given.
const DefaultFile = "fpgaroute.toml"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the whole configuration.
type Config struct {
	Router  router.Options   `toml:"router"`
	Cache   CacheConfig      `toml:"cache"`
	Log     LogConfig        `toml:"log"`
	Metrics MetricsConfig    `toml:"metrics"`
	Output  OutputConfig     `toml:"output"`
	Device  fabric.Params    `toml:"device"`
	Nets    fabric.NetParams `toml:"nets"`
}

// CacheConfig selects and configures the result cache.
type CacheConfig struct {
	Backend  string        `toml:"backend"`
	Dir      string        `toml:"dir"`
	RedisURL string        `toml:"redis_url"`
	Prefix   string        `toml:"prefix"`
	TTL      time.Duration `toml:"ttl"`

	// Namespace scopes every key, so several projects can share a cache.
	Namespace string `toml:"namespace"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level     string `toml:"level"`
	Format    string `toml:"format"` // text, json or logfmt
	Timestamp bool   `toml:"timestamp"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables
// it.
type MetricsConfig struct {
	Addr string `toml:"addr"`
	Path string `toml:"path"`
}

// OutputConfig says which reports to write and where.
type OutputConfig struct {
	Dir     string   `toml:"dir"`
	Formats []string `toml:"formats"`
	Nets    []string `toml:"nets"` // nets drawn by dot, svg and png
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Router: router.DefaultOptions(),
		Cache: CacheConfig{
			Backend: CacheFile,
			TTL:     7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:     "info",
			Format:    "text",
			Timestamp: true,
		},
		Metrics: MetricsConfig{Path: "/metrics"},
		Output: OutputConfig{
			Dir:     ".",
			Formats: []string{pipeline.FormatDump},
		},
		Nets: fabric.NetParams{Count: 32, MaxFanout: 4, Seed: 1},
	}
}

// Load reads the file at path on top of Default. An empty path tries
// DefaultFile and returns the defaults when it does not exist.
func Load(path string) (*Config, error) {
	if path == "" {
		if _, err := os.Stat(DefaultFile); os.IsNotExist(err) {
			return Default(), nil
		}
		path = DefaultFile
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open config %s", path)
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", filepath.Base(path))
	}
	return cfg, nil
}

// Decode parses TOML from r on top of Default and validates the result.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	// A zero written in the file means zero, not the default.
	ro := &cfg.Router
	if md.IsDefined("router", "acc_fac") && ro.AccFac == 0 {
		ro.AccFac = router.Zero
	}
	if md.IsDefined("router", "bb_factor") && ro.BBFactor == 0 {
		ro.BBFactor = router.Zero
	}
	if md.IsDefined("router", "astar_fac") && ro.AStarFac == 0 {
		ro.AStarFac = router.Zero
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Router.Validate(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache: redis backend needs redis_url")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache: unknown backend %q (file, redis, none)", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache: negative ttl %s", c.Cache.TTL)
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "log: unknown format %q (text, json, logfmt)", c.Log.Format)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if err := pipeline.ValidateFormats(c.Output.Formats); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "output")
	}
	if c.Metrics.Addr != "" && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New(errors.ErrCodeInvalidConfig, "metrics: path %q must start with /", c.Metrics.Path)
	}
	return nil
}
