package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/dbscan"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clusterd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeFile(t, `
[server]
addr = ":9000"
request_timeout = "5s"

[database]
dsn = "postgres://u:p@localhost:5432/shop"

[log]
format = "json"

[clustering]
algorithm = "kdtree"
metric = "manhattan"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout.Duration)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration, "untouched keys keep defaults")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())

	core, err := cfg.Clustering.Core()
	require.NoError(t, err)
	assert.Equal(t, dbscan.AlgorithmKDTree, core.Algorithm)
	assert.Equal(t, dbscan.ManhattanMetric{}, core.Metric)
	assert.Equal(t, 1.0, core.KneeSensitivity)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeFile(t, "[server]\naddr = \n"))
	assert.Error(t, err, "malformed")

	_, err = Load(writeFile(t, "[server]\nport = 80\n"))
	assert.ErrorContains(t, err, "server.port")

	_, err = Load(writeFile(t, "[server]\nrequest_timeout = \"soon\"\n"))
	assert.Error(t, err, "bad duration")

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Database.CSVDir = "testdata"
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no source", func(c *Config) { c.Database.CSVDir = "" }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"zero timeout", func(c *Config) { c.Server.RequestTimeout.Duration = 0 }},
		{"no capacity", func(c *Config) { c.Server.MaxConcurrent = 0 }},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }},
		{"no burst", func(c *Config) { c.Server.RateBurst = 0 }},
		{"bad algorithm", func(c *Config) { c.Clustering.Algorithm = "ball_tree" }},
		{"bad metric", func(c *Config) { c.Clustering.Metric = "cosine" }},
		{"bad policy", func(c *Config) { c.Clustering.ZeroVariance = "drop" }},
		{"negative workers", func(c *Config) { c.Clustering.Workers = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRegisterFlags(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-addr", ":7000", "-csv-dir", "/data", "-request-timeout", "2s", "-algorithm", "brute"}))

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "/data", cfg.Database.CSVDir)
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout.Duration)
	assert.Equal(t, "brute", cfg.Clustering.Algorithm)
	assert.Equal(t, "info", cfg.Log.Level)
}
