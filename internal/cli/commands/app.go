package commands

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fieldradar/fieldradar/internal/catalog"
	"github.com/fieldradar/fieldradar/internal/cli/config"
	"github.com/fieldradar/fieldradar/internal/finder"
	"github.com/fieldradar/fieldradar/internal/metrics"
	"github.com/fieldradar/fieldradar/internal/report"
	"github.com/fieldradar/fieldradar/internal/store"
)

// errNoDatabase is returned when neither the config file nor the
// environment names a database
var errNoDatabase = errors.New("no database configured: set database.url in fieldradar.yml or DATABASE_URL")

// app is the wired report pipeline a command runs against
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *store.SQLStore
	catalog *catalog.Catalog
	finder  *finder.Finder
	service *report.Service
	metrics *metrics.Metrics
}

// newApp loads configuration, opens the database and wires the pipeline.
// The caller must Close the result.
func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if cfg.Database.URL == "" {
		return nil, errNoDatabase
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Server.Metrics {
		m = metrics.New()
	}

	s, err := store.Open(ctx, cfg.StoreConfig(), logger)
	if err != nil {
		logger.Sync()
		return nil, err
	}

	policy, err := cfg.Policy()
	if err != nil {
		s.Close()
		return nil, err
	}
	fopts, err := cfg.FinderOptions()
	if err != nil {
		s.Close()
		return nil, err
	}
	fopts.Policy = &policy
	fopts.Logger = logger
	fopts.Metrics = m

	c := catalog.New(s, logger, cfg.Catalog.Denylist...)
	f := finder.New(s, fopts)

	logger.Debug("report pipeline ready",
		zap.String("driver", cfg.Database.Driver),
		zap.String("table_prefix", cfg.Database.TablePrefix),
		zap.String("finder_mode", string(f.Mode())),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   s,
		catalog: c,
		finder:  f,
		service: report.NewService(s, c, f, logger),
		metrics: m,
	}, nil
}

// Close releases the database connection and flushes the logger
func (a *app) Close() error {
	err := a.store.Close()
	a.logger.Sync()
	return err
}
