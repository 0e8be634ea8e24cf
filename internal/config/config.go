// Package config loads service configuration from a TOML file and
// command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/TrevorS/dbscan"
)

// Config is the full service configuration.
type Config struct {
	Server     Server     `toml:"server"`
	Database   Database   `toml:"database"`
	Log        Log        `toml:"log"`
	Clustering Clustering `toml:"clustering"`
	Snapshots  Snapshots  `toml:"snapshots"`
}

// Server configures the HTTP listener and request handling.
type Server struct {
	Addr            string   `toml:"addr"`
	RequestTimeout  Duration `toml:"request_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	MaxConcurrent   int      `toml:"max_concurrent"`
	RateLimit       float64  `toml:"rate_limit"`
	RateBurst       int      `toml:"rate_burst"`
}

// Database configures the feature table. With DSN empty, CSVDir is read
// instead.
type Database struct {
	DSN    string `toml:"dsn"`
	CSVDir string `toml:"csv_dir"`
}

// Log configures structured logging.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Clustering mirrors the tunable fields of dbscan.Config. Zero values keep
// the dbscan defaults.
type Clustering struct {
	Algorithm       string  `toml:"algorithm"`
	Metric          string  `toml:"metric"`
	LeafSize        int     `toml:"leaf_size"`
	Workers         int     `toml:"workers"`
	ZeroVariance    string  `toml:"zero_variance"`
	KneeSensitivity float64 `toml:"knee_sensitivity"`
}

// Snapshots configures the visualization export. Empty Dir disables it.
type Snapshots struct {
	Dir string `toml:"dir"`
}

// Duration is a time.Duration written as a string ("30s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	core := dbscan.DefaultConfig()
	return Config{
		Server: Server{
			Addr:            ":8004",
			RequestTimeout:  Duration{30 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
			MaxConcurrent:   runtime.NumCPU(),
			RateLimit:       20,
			RateBurst:       40,
		},
		Log: Log{Level: "info", Format: "text"},
		Clustering: Clustering{
			Algorithm:       string(core.Algorithm),
			Metric:          "euclidean",
			LeafSize:        core.LeafSize,
			ZeroVariance:    string(core.ZeroVariance),
			KneeSensitivity: core.KneeSensitivity,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("config: %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// RegisterFlags binds flags that override cfg after Load. Flag defaults
// are the current values of cfg.
func (cfg *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "HTTP listen address")
	fs.DurationVar(&cfg.Server.RequestTimeout.Duration, "request-timeout", cfg.Server.RequestTimeout.Duration, "per-request time limit")
	fs.IntVar(&cfg.Server.MaxConcurrent, "max-concurrent", cfg.Server.MaxConcurrent, "clustering runs allowed at once")
	fs.Float64Var(&cfg.Server.RateLimit, "rate-limit", cfg.Server.RateLimit, "requests per second, 0 disables limiting")
	fs.StringVar(&cfg.Database.DSN, "dsn", cfg.Database.DSN, "PostgreSQL connection string")
	fs.StringVar(&cfg.Database.CSVDir, "csv-dir", cfg.Database.CSVDir, "directory of <domain>.csv exports, used when -dsn is empty")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug, info, warn or error")
	fs.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "text or json")
	fs.StringVar(&cfg.Clustering.Algorithm, "algorithm", cfg.Clustering.Algorithm, "neighbor search: auto, brute or kdtree")
	fs.StringVar(&cfg.Snapshots.Dir, "snapshot-dir", cfg.Snapshots.Dir, "directory for labeled batch snapshots, empty disables")
}

// Validate checks cross-field constraints.
func (cfg Config) Validate() error {
	var errs []error
	if cfg.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if cfg.Server.RequestTimeout.Duration <= 0 {
		errs = append(errs, errors.New("server.request_timeout must be positive"))
	}
	if cfg.Server.MaxConcurrent < 1 {
		errs = append(errs, errors.New("server.max_concurrent must be >= 1"))
	}
	if cfg.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must be >= 0"))
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst < 1 {
		errs = append(errs, errors.New("server.rate_burst must be >= 1 when rate limiting"))
	}
	if cfg.Database.DSN == "" && cfg.Database.CSVDir == "" {
		errs = append(errs, errors.New("one of database.dsn or database.csv_dir is required"))
	}
	if _, err := cfg.Clustering.Core(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Core converts the clustering section into a dbscan.Config.
func (c Clustering) Core() (dbscan.Config, error) {
	cfg := dbscan.DefaultConfig()
	if c.Algorithm != "" {
		cfg.Algorithm = dbscan.Algorithm(c.Algorithm)
	}
	switch strings.ToLower(c.Metric) {
	case "", "euclidean":
		cfg.Metric = dbscan.EuclideanMetric{}
	case "manhattan":
		cfg.Metric = dbscan.ManhattanMetric{}
	case "chebyshev":
		cfg.Metric = dbscan.ChebyshevMetric{}
	default:
		return cfg, fmt.Errorf("clustering.metric %q is not euclidean, manhattan or chebyshev", c.Metric)
	}
	if c.LeafSize != 0 {
		cfg.LeafSize = c.LeafSize
	}
	cfg.Workers = c.Workers
	if c.ZeroVariance != "" {
		cfg.ZeroVariance = dbscan.ZeroVariancePolicy(c.ZeroVariance)
	}
	if c.KneeSensitivity != 0 {
		cfg.KneeSensitivity = c.KneeSensitivity
	}

	if err := dbscan.ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
