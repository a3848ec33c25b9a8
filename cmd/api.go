package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/product-dashboard/internal/api"
	"github.com/99minutos/product-dashboard/internal/api/metrics"
	"github.com/99minutos/product-dashboard/internal/core/ports"
	"github.com/99minutos/product-dashboard/internal/core/service"
	"github.com/99minutos/product-dashboard/internal/infrastructure/config"
	mongodb "github.com/99minutos/product-dashboard/internal/infrastructure/db/mongo"
	redisdb "github.com/99minutos/product-dashboard/internal/infrastructure/db/redis"
	"github.com/99minutos/product-dashboard/internal/infrastructure/feed"
	"github.com/99minutos/product-dashboard/internal/infrastructure/http/handlers"
	"github.com/99minutos/product-dashboard/internal/infrastructure/queue"
)

// apiCmd represents the api command.
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Starts the product API and its live feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, log, cleanup, err := bootstrap(ctx, "productdash-api")
		if err != nil {
			return err
		}
		defer cleanup()

		if err := cfg.ValidateAPI(); err != nil {
			log.Error().Err(err).Msg("invalid configuration")
			return err
		}
		if err := runAPI(ctx, cfg, log); err != nil {
			log.Error().Err(err).Msg("api stopped with error")
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(ctx)
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Live feed ---
	products := db.Collection(mongodb.ProductsCollection)
	trigger, err := feedTrigger(cfg, products, rdb)
	if err != nil {
		return err
	}
	registry := feed.NewRegistry()
	sub := feed.Subscribe(ctx, feed.NewQuerySource(feed.NewMongoFetcher(products), trigger), feed.Options{Logger: log})
	defer sub.Close()
	unregister := registry.Register(ports.ResourceProducts, sub)
	defer unregister()

	dispatcher := queue.NewDispatcher(log, func(size, _ int) {
		metrics.FeedSnapshotsTotal.Inc()
		metrics.FeedSnapshotSize.Observe(float64(size))
	})
	dispatcher.Start(ctx, sub)
	log.Info().Str("trigger", cfg.Feed.Trigger).Msg("product feed started")

	// --- Services ---
	notifier := feed.Notifiers{registry, redisdb.NewNotifier(rdb, cfg.Feed.Channel)}
	authService := service.NewAuthService(mongodb.NewAuthRepository(db), redisdb.NewSessionStore(rdb), cfg.JWTSecret, cfg.SessionTTL)
	productService := service.NewProductService(mongodb.NewProductRepository(db), notifier, log)

	router := api.NewRouter(api.Deps{
		AuthService:    authService,
		ProductService: productService,
		Hub:            dispatcher,
		Checks: []handlers.Check{
			{Name: "mongodb", Pinger: mongodb.Pinger{Client: mongoClient}},
			{Name: "redis", Pinger: redisdb.Pinger{Client: rdb}},
		},
		Log:          log,
		CookieSecure: cfg.CookieSecure,
		Metrics:      true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return serve(ctx, srv, log)
}

// feedTrigger picks what tells the feed to re-read the products collection.
func feedTrigger(cfg *config.Config, coll *mongodriver.Collection, rdb *redis.Client) (feed.Trigger, error) {
	switch cfg.Feed.Trigger {
	case config.TriggerChangeStream:
		return feed.NewChangeStreamTrigger(coll), nil
	case config.TriggerRedis:
		return feed.NewRedisTrigger(rdb, cfg.Feed.Channel, ports.ResourceProducts), nil
	case config.TriggerPoll:
		return feed.PollTrigger{Interval: cfg.Feed.PollInterval}, nil
	case config.TriggerNone:
		return feed.NoTrigger{}, nil
	default:
		return nil, fmt.Errorf("unknown feed trigger %q", cfg.Feed.Trigger)
	}
}
