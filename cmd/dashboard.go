package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/99minutos/product-dashboard/internal/dashboard/apiclient"
	"github.com/99minutos/product-dashboard/internal/dashboard/datasync"
	"github.com/99minutos/product-dashboard/internal/dashboard/store"
	"github.com/99minutos/product-dashboard/internal/dashboard/web"
	"github.com/99minutos/product-dashboard/internal/infrastructure/config"
	"github.com/99minutos/product-dashboard/internal/infrastructure/feed"
	"github.com/99minutos/product-dashboard/internal/infrastructure/http/handlers"
)

// dashboardCmd represents the dashboard command.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Starts the operator dashboard against a running API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log, cleanup, err := bootstrap(ctx, "productdash-dashboard")
		if err != nil {
			return err
		}
		defer cleanup()

		if err := runDashboard(ctx, cfg, log); err != nil {
			log.Error().Err(err).Msg("dashboard stopped with error")
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	client, err := apiclient.New(cfg.Dashboard.APIBaseURL, nil)
	if err != nil {
		return err
	}

	st := store.New()
	syncer := datasync.New(st, client, datasync.Options{
		Logger:  log,
		Backoff: feed.Backoff,
	})

	router := web.NewRouter(web.Deps{
		Store:   st,
		Sync:    syncer,
		Checks:  []handlers.Check{{Name: "api", Pinger: client}},
		Log:     log,
		Metrics: true,
	})

	srv := &http.Server{
		Addr:              cfg.Dashboard.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info().Str("api", cfg.Dashboard.APIBaseURL).Msg("dashboard configured")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return syncer.Run(ctx) })
	g.Go(func() error { return serve(ctx, srv, log) })
	return g.Wait()
}
