package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fieldradar/fieldradar/internal/cli/ui"
	"github.com/fieldradar/fieldradar/internal/web/api"
	"github.com/fieldradar/fieldradar/internal/web/cache"
	"github.com/fieldradar/fieldradar/internal/web/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var host string
	var port int
	var listRoutes bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report API over HTTP",
		Long: `Serve the read-only JSON report API.

Routes:
  GET /api/content-types
  GET /api/report                        (uc_post_type, action_view, ...)
  GET /api/types/{type}/keys
  GET /api/types/{type}/keys/{key}/posts
  GET /api/types/{type}/keys/{key}/records?uc_page=&uc_per_page=
  GET /healthz
  GET /metrics

The server drains in-flight requests on SIGINT or SIGTERM.`,
		Example: `  fieldradar serve
  fieldradar serve --port 8080
  fieldradar serve --routes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("host") {
				a.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			responseCache, err := cache.New(ctx, a.cfg.CacheConfig())
			if err != nil {
				return err
			}

			handler := api.New(api.Config{
				Service:   a.service,
				Defaults:  a.cfg.ReportDefaults(),
				Health:    a.store,
				Metrics:   a.metrics,
				Cache:     responseCache,
				CacheTTL:  a.cfg.Cache.TTL,
				Timeout:   a.cfg.Server.RequestTimeout,
				Profiling: a.cfg.Server.Profiling,
				Logger:    a.logger,
			})

			if listRoutes {
				if responseCache != nil {
					responseCache.Close()
				}
				return renderRoutes(cmd, handler, opts)
			}

			srv, err := server.New(&server.Config{
				Address:           a.cfg.Address(),
				Handler:           handler,
				ReadTimeout:       a.cfg.Server.ReadTimeout,
				WriteTimeout:      a.cfg.Server.WriteTimeout,
				IdleTimeout:       60 * time.Second,
				ReadHeaderTimeout: 10 * time.Second,
				MaxHeaderBytes:    1 << 20,
			})
			if err != nil {
				return err
			}

			gs := server.NewGracefulShutdown(srv, server.ShutdownConfig{
				Timeout: a.cfg.Server.ShutdownTimeout,
				Logger:  a.logger,
			})
			if responseCache != nil {
				gs.RegisterHook(func(ctx context.Context) error {
					return responseCache.Close()
				})
			}

			a.logger.Info("report api configured",
				zap.String("addr", a.cfg.Address()),
				zap.String("cache", a.cfg.Cache.Backend),
				zap.Bool("metrics", a.metrics != nil),
				zap.Int("routes", len(handler.Routes())),
			)
			return gs.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (default server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default server.port)")
	cmd.Flags().BoolVar(&listRoutes, "routes", false, "Print the registered routes and exit")
	return cmd
}

func renderRoutes(cmd *cobra.Command, handler *api.Handler, opts *rootOptions) error {
	routes := handler.Routes()
	out := cmd.OutOrStdout()
	if opts.format == formatJSON {
		return writeJSON(out, map[string]interface{}{"routes": routes})
	}

	table := ui.NewTable(out, []string{"METHOD", "PATTERN", "DESCRIPTION"}, &ui.TableOptions{NoColor: opts.noColor})
	for _, r := range routes {
		table.AddRow(r.Method, r.Pattern, r.Description)
	}
	table.Render()
	return nil
}
