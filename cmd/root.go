package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/99minutos/product-dashboard/internal/infrastructure/config"
	"github.com/99minutos/product-dashboard/internal/observability"
	"github.com/99minutos/product-dashboard/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "productdash",
	Short: "Product dashboard: API, operator console and seed tooling",
	Long: `productdash runs the product API with its live feed, the operator
dashboard that renders it, and a seed command for the first admin user.

	productdash api
	productdash dashboard
	productdash seed
`,
	SilenceUsage: true,
}

// Execute runs the root command until it returns or the process is signalled.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// bootstrap loads configuration and initialises logging and tracing for one
// process.
func bootstrap(ctx context.Context, service string) (*config.Config, zerolog.Logger, func(), error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: service,
	})

	shutdownTracer, err := observability.InitTracer(ctx, service, cfg.OTLPEndpoint)
	if err != nil {
		return nil, log, nil, fmt.Errorf("init tracer: %w", err)
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}
	return cfg, log, cleanup, nil
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
// Open event streams are cancelled when shutdown starts.
func serve(ctx context.Context, srv *http.Server, log zerolog.Logger) error {
	base, cancelBase := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBase()
	srv.BaseContext = func(net.Listener) context.Context { return base }
	srv.RegisterOnShutdown(cancelBase)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info().Msg("shutdown complete")
	return nil
}
