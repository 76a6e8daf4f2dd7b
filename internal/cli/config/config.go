// Package config loads fieldradar.yml, FIELDRADAR_* environment variables
// and DATABASE_URL into a validated Config.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fieldradar/fieldradar/internal/finder"
	"github.com/fieldradar/fieldradar/internal/meta"
	"github.com/fieldradar/fieldradar/internal/report"
	"github.com/fieldradar/fieldradar/internal/store"
	"github.com/fieldradar/fieldradar/internal/web/cache"
)

// EnvPrefix prefixes every environment override, e.g. FIELDRADAR_SERVER_PORT
const EnvPrefix = "FIELDRADAR"

// Config represents the FieldRadar configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Report   ReportConfig   `mapstructure:"report"`
	Finder   FinderConfig   `mapstructure:"finder"`
	Meta     MetaConfig     `mapstructure:"meta"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	TablePrefix     string        `mapstructure:"table_prefix"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Metrics         bool          `mapstructure:"metrics"`
	Profiling       bool          `mapstructure:"profiling"`
}

// ReportConfig holds request defaults
type ReportConfig struct {
	DefaultContentType string `mapstructure:"default_content_type"`
	PerPage            int    `mapstructure:"per_page"`
	MaxPerPage         int    `mapstructure:"max_per_page"`
}

// FinderConfig selects how used sets are computed
type FinderConfig struct {
	Mode        string `mapstructure:"mode"`
	Concurrency int    `mapstructure:"concurrency"`
	BatchSize   int    `mapstructure:"batch_size"`
}

// MetaConfig tunes the meaningfulness and summary rules
type MetaConfig struct {
	ZeroPolicy   string `mapstructure:"zero_policy"`
	SummaryWords int    `mapstructure:"summary_words"`
	SummaryMore  string `mapstructure:"summary_more"`
}

// CatalogConfig extends the hidden key list
type CatalogConfig struct {
	Denylist []string `mapstructure:"denylist"`
}

// CacheConfig configures the optional API response cache
type CacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	TTL           time.Duration `mapstructure:"ttl"`
	Prefix        string        `mapstructure:"prefix"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

// LogConfig configures zap
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.url", "")
	v.SetDefault("database.table_prefix", store.DefaultTablePrefix)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.metrics", true)
	v.SetDefault("server.profiling", false)

	d := report.DefaultDefaults()
	v.SetDefault("report.default_content_type", d.ContentType)
	v.SetDefault("report.per_page", d.PerPage)
	v.SetDefault("report.max_per_page", d.MaxPerPage)

	v.SetDefault("finder.mode", string(finder.Batch))
	v.SetDefault("finder.concurrency", finder.DefaultConcurrency)
	v.SetDefault("finder.batch_size", finder.DefaultBatchSize)

	v.SetDefault("meta.zero_policy", meta.ZeroIsEmpty.String())
	v.SetDefault("meta.summary_words", meta.DefaultSummaryWords)
	v.SetDefault("meta.summary_more", meta.DefaultSummaryMore)

	v.SetDefault("catalog.denylist", []string{})

	c := cache.DefaultConfig()
	v.SetDefault("cache.backend", c.Backend)
	v.SetDefault("cache.ttl", c.TTL)
	v.SetDefault("cache.prefix", c.Prefix)
	v.SetDefault("cache.redis_addr", c.RedisAddr)
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads configuration from path, or from fieldradar.yml/.yaml in the
// working directory when path is empty. A missing default file is not an
// error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fieldradar")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration. It does not require a database URL;
// commands that open the database check that themselves.
func (c *Config) Validate() error {
	if _, err := store.DialectFor(c.Database.Driver); err != nil {
		return fmt.Errorf("database.driver: %w", err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got: %d", c.Server.Port)
	}
	if c.Report.PerPage < 1 {
		return fmt.Errorf("report.per_page must be at least 1, got: %d", c.Report.PerPage)
	}
	if c.Report.MaxPerPage > 0 && c.Report.PerPage > c.Report.MaxPerPage {
		return fmt.Errorf("report.per_page (%d) exceeds report.max_per_page (%d)", c.Report.PerPage, c.Report.MaxPerPage)
	}
	if _, err := finder.ParseMode(c.Finder.Mode); err != nil {
		return fmt.Errorf("finder.mode: %w", err)
	}
	if c.Finder.Concurrency < 0 || c.Finder.BatchSize < 0 {
		return fmt.Errorf("finder.concurrency and finder.batch_size must not be negative")
	}
	if _, err := meta.ParseZeroPolicy(c.Meta.ZeroPolicy); err != nil {
		return fmt.Errorf("meta.zero_policy: %w", err)
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "", cache.BackendNone, cache.BackendMemory, cache.BackendRedis:
	default:
		return fmt.Errorf("cache.backend must be none, memory or redis, got: %s", c.Cache.Backend)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Address returns host:port for the HTTP server
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// StoreConfig returns the database settings for store.Open
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Driver:          c.Database.Driver,
		URL:             c.Database.URL,
		TablePrefix:     c.Database.TablePrefix,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
}

// Policy returns the configured meaningfulness and summary policy
func (c *Config) Policy() (meta.Policy, error) {
	zero, err := meta.ParseZeroPolicy(c.Meta.ZeroPolicy)
	if err != nil {
		return meta.Policy{}, err
	}
	p := meta.DefaultPolicy()
	p.Zero = zero
	if c.Meta.SummaryWords > 0 {
		p.SummaryWords = c.Meta.SummaryWords
	}
	if c.Meta.SummaryMore != "" {
		p.SummaryMore = c.Meta.SummaryMore
	}
	return p, nil
}

// FinderOptions returns finder settings without the policy, logger or
// metrics, which the caller wires.
func (c *Config) FinderOptions() (finder.Options, error) {
	mode, err := finder.ParseMode(c.Finder.Mode)
	if err != nil {
		return finder.Options{}, err
	}
	return finder.Options{
		Mode:        mode,
		Concurrency: c.Finder.Concurrency,
		BatchSize:   c.Finder.BatchSize,
	}, nil
}

// ReportDefaults returns request defaults for report.ParseRequest
func (c *Config) ReportDefaults() report.Defaults {
	return report.Defaults{
		ContentType: c.Report.DefaultContentType,
		PerPage:     c.Report.PerPage,
		MaxPerPage:  c.Report.MaxPerPage,
	}
}

// CacheConfig returns the response cache settings
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Backend:       c.Cache.Backend,
		TTL:           c.Cache.TTL,
		Prefix:        c.Cache.Prefix,
		RedisAddr:     c.Cache.RedisAddr,
		RedisPassword: c.Cache.RedisPassword,
		RedisDB:       c.Cache.RedisDB,
	}
}

// NewLogger builds a zap logger from the log section. Development mode
// uses the console encoder.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
