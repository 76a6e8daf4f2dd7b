package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldradar/fieldradar/internal/finder"
	"github.com/fieldradar/fieldradar/internal/meta"
)

// chdir moves into a fresh temp dir for the duration of the test
func chdir(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { os.Chdir(oldWd) })
	return tmpDir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "wp_", cfg.Database.TablePrefix)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "localhost:3000", cfg.Address())
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Server.Metrics)
	assert.False(t, cfg.Server.Profiling)
	assert.Equal(t, "post", cfg.Report.DefaultContentType)
	assert.Equal(t, 20, cfg.Report.PerPage)
	assert.Equal(t, 500, cfg.Report.MaxPerPage)
	assert.Equal(t, "batch", cfg.Finder.Mode)
	assert.Equal(t, "empty", cfg.Meta.ZeroPolicy)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Catalog.Denylist)
}

func TestLoad_ConfigFile(t *testing.T) {
	chdir(t)
	t.Setenv("DATABASE_URL", "")

	content := `
database:
  driver: postgres
  url: postgres://localhost/wordpress
  table_prefix: blog_
server:
  host: 0.0.0.0
  port: 8080
report:
  per_page: 50
finder:
  mode: parallel
  concurrency: 4
meta:
  zero_policy: meaningful
  summary_words: 5
catalog:
  denylist:
    - _yoast_wpseo_focuskw
cache:
  backend: memory
  ttl: 2m
log:
  level: debug
  development: true
`
	require.NoError(t, os.WriteFile("fieldradar.yml", []byte(content), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/wordpress", cfg.Database.URL)
	assert.Equal(t, "blog_", cfg.Database.TablePrefix)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, 50, cfg.Report.PerPage)
	assert.Equal(t, []string{"_yoast_wpseo_focuskw"}, cfg.Catalog.Denylist)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Log.Development)

	opts, err := cfg.FinderOptions()
	require.NoError(t, err)
	assert.Equal(t, finder.Parallel, opts.Mode)
	assert.Equal(t, 4, opts.Concurrency)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, meta.ZeroIsMeaningful, policy.Zero)
	assert.Equal(t, 5, policy.SummaryWords)
	assert.Equal(t, "...", policy.SummaryMore)

	sc := cfg.StoreConfig()
	assert.Equal(t, "blog_", sc.TablePrefix)

	d := cfg.ReportDefaults()
	assert.Equal(t, 50, d.PerPage)
	assert.Equal(t, 500, d.MaxPerPage)

	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("FIELDRADAR_SERVER_PORT", "4000")
	t.Setenv("FIELDRADAR_FINDER_MODE", "sequential")
	t.Setenv("FIELDRADAR_DATABASE_URL", "from-prefixed-env")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "sequential", cfg.Finder.Mode)
	assert.Equal(t, "from-prefixed-env", cfg.Database.URL)

	t.Setenv("DATABASE_URL", "user:pass@tcp(db:3306)/wordpress")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "user:pass@tcp(db:3306)/wordpress", cfg.Database.URL)
}

func TestLoad_InvalidFile(t *testing.T) {
	chdir(t)
	require.NoError(t, os.WriteFile("fieldradar.yml", []byte("server: [unclosed"), 0644))

	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdir(t)
	t.Setenv("DATABASE_URL", "")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, "database.driver"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero per page", func(c *Config) { c.Report.PerPage = 0 }, "report.per_page"},
		{"per page over max", func(c *Config) { c.Report.PerPage = 600 }, "exceeds"},
		{"unknown mode", func(c *Config) { c.Finder.Mode = "turbo" }, "finder.mode"},
		{"negative batch", func(c *Config) { c.Finder.BatchSize = -1 }, "must not be negative"},
		{"unknown zero policy", func(c *Config) { c.Meta.ZeroPolicy = "maybe" }, "meta.zero_policy"},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
