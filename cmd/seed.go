package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/99minutos/product-dashboard/internal/core/domain"
	"github.com/99minutos/product-dashboard/internal/core/service"
	mongodb "github.com/99minutos/product-dashboard/internal/infrastructure/db/mongo"
	redisdb "github.com/99minutos/product-dashboard/internal/infrastructure/db/redis"
)

var seedRole string

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Creates the first operator from SEED_EMAIL and SEED_PASSWORD",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log, cleanup, err := bootstrap(ctx, "productdash-seed")
		if err != nil {
			return err
		}
		defer cleanup()

		if err := cfg.ValidateAPI(); err != nil {
			log.Error().Err(err).Msg("invalid configuration")
			return err
		}

		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			log.Error().Err(err).Msg("mongo connect failed")
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}()
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			return err
		}

		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			log.Error().Err(err).Msg("redis connect failed")
			return err
		}
		defer rdb.Close()

		auth := service.NewAuthService(mongodb.NewAuthRepository(db), redisdb.NewSessionStore(rdb), cfg.JWTSecret, cfg.SessionTTL)
		user, err := auth.Register(ctx, cfg.SeedEmail, cfg.SeedPassword, seedRole)
		switch {
		case errors.Is(err, domain.ErrUserExists):
			log.Info().Str("email", cfg.SeedEmail).Msg("seed user already exists")
			return nil
		case err != nil:
			log.Error().Err(err).Msg("seed user failed")
			return err
		}
		log.Info().Str("email", user.Email).Str("role", user.Role).Msg("seed user created")
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedRole, "role", domain.RoleAdmin, "role for the seeded user (admin or user)")
	rootCmd.AddCommand(seedCmd)
}
