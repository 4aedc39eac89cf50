package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/router"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
}

func TestDecode(t *testing.T) {
	const file = `
[router]
max_iterations = 80
routing_predictor = "aggressive"
workers = 4
net_timeout = "5s"

[cache]
backend = "redis"
redis_url = "redis://localhost:6379/0"
ttl = "24h"

[log]
level = "debug"
format = "json"

[output]
formats = ["dump", "svg"]
nets = ["clk"]

[device]
width = 8
channel_width = 10

[nets]
count = 12
`
	cfg, err := Decode(strings.NewReader(file))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if cfg.Router.MaxIterations != 80 || cfg.Router.Predictor != router.PredictorAggressive || cfg.Router.Workers != 4 {
		t.Errorf("Router = %+v", cfg.Router)
	}
	if cfg.Router.NetTimeout != 5*time.Second {
		t.Errorf("NetTimeout = %s, want 5s", cfg.Router.NetTimeout)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Router.PresFacMult != router.DefaultPresFacMult {
		t.Errorf("PresFacMult = %g, want default %g", cfg.Router.PresFacMult, router.DefaultPresFacMult)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" || !cfg.Log.Timestamp {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if !slices.Equal(cfg.Output.Formats, []string{"dump", "svg"}) || !slices.Equal(cfg.Output.Nets, []string{"clk"}) {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Device.Width != 8 || cfg.Device.ChannelWidth != 10 {
		t.Errorf("Device = %+v", cfg.Device)
	}
	if cfg.Nets.Count != 12 || cfg.Nets.MaxFanout != 4 {
		t.Errorf("Nets = %+v", cfg.Nets)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"syntax", "[router\n"},
		{"unknown key", "[router]\nmax_iteration = 3\n"},
		{"unknown table", "[routr]\nworkers = 1\n"},
		{"bad router value", "[router]\npres_fac_mult = 0.5\n"},
		{"bad predictor", "[router]\nrouting_predictor = \"maybe\"\n"},
		{"redis without url", "[cache]\nbackend = \"redis\"\n"},
		{"unknown backend", "[cache]\nbackend = \"memcached\"\n"},
		{"negative ttl", "[cache]\nttl = \"-1h\"\n"},
		{"bad log level", "[log]\nlevel = \"loud\"\n"},
		{"bad log format", "[log]\nformat = \"xml\"\n"},
		{"bad output format", "[output]\nformats = [\"pdf\"]\n"},
		{"bad metrics path", "[metrics]\naddr = \":9090\"\npath = \"metrics\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.file))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Decode() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestDecodeExplicitZero(t *testing.T) {
	tests := []struct {
		name string
		file string
		want func(o router.Options) bool
	}{
		{"acc_fac", "[router]\nacc_fac = 0.0\n", func(o router.Options) bool { return o.AccFac < 0 && o.AStarFac == router.DefaultAStarFac }},
		{"bb_factor", "[router]\nbb_factor = 0\n", func(o router.Options) bool { return o.BBFactor < 0 && o.AccFac == router.DefaultAccFac }},
		{"astar_fac", "[router]\nastar_fac = 0.0\n", func(o router.Options) bool { return o.AStarFac < 0 && o.BBFactor == router.DefaultBBFactor }},
		{"absent", "[router]\nworkers = 2\n", func(o router.Options) bool {
			return o.AccFac == router.DefaultAccFac && o.BBFactor == router.DefaultBBFactor && o.AStarFac == router.DefaultAStarFac
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Decode(strings.NewReader(tt.file))
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			o := cfg.Router
			if !tt.want(o) {
				t.Errorf("Router = acc_fac %g, bb_factor %d, astar_fac %g", o.AccFac, o.BBFactor, o.AStarFac)
			}
			// Defaults must not undo the explicit zero.
			o.SetDefaults()
			if !tt.want(o) {
				t.Errorf("after SetDefaults: acc_fac %g, bb_factor %d, astar_fac %g", o.AccFac, o.BBFactor, o.AStarFac)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "route.toml")
	if err := os.WriteFile(path, []byte("[router]\nmax_iterations = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Router.MaxIterations != 9 {
		t.Errorf("MaxIterations = %d, want 9", cfg.Router.MaxIterations)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Router.MaxIterations != router.DefaultMaxIterations {
		t.Errorf("MaxIterations = %d, want default", cfg.Router.MaxIterations)
	}

	if err := os.WriteFile(DefaultFile, []byte("[log]\nlevel = \"warn\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q, want warn from %s", cfg.Log.Level, DefaultFile)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    log.Level
		wantErr bool
	}{
		{"debug", log.DebugLevel, false},
		{"info", log.InfoLevel, false},
		{"warn", log.WarnLevel, false},
		{"error", log.ErrorLevel, false},
		{"loud", log.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestFormatter(t *testing.T) {
	tests := []struct {
		in   string
		want log.Formatter
	}{
		{"json", log.JSONFormatter},
		{"logfmt", log.LogfmtFormatter},
		{"text", log.TextFormatter},
		{"", log.TextFormatter},
	}
	for _, tt := range tests {
		if got := Formatter(tt.in); got != tt.want {
			t.Errorf("Formatter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
