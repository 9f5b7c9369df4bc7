package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"storefront-service/internal/api"
	"storefront-service/internal/cache"
	"storefront-service/internal/config"
	"storefront-service/internal/consumer"
	"storefront-service/internal/logging"
	"storefront-service/internal/port"
	"storefront-service/internal/producer"
	"storefront-service/internal/repository"
	"storefront-service/internal/repository/memstore"
	"storefront-service/internal/service"
	"storefront-service/migrations"
)

type repositories struct {
	users     port.UserRepository
	products  port.ProductRepository
	discounts port.DiscountRepository
	orders    port.OrderRepository
}

type caches struct {
	sessions    port.SessionStore
	products    port.ProductCache
	idempotency port.IdempotencyStore
}

func connectDB(cfg config.Config) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", cfg.Database.DSN)
		if err == nil {
			err = db.Ping()
			if err == nil {
				db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
				db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
				db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
				log.Info().Msg("Connected to DB")
				return db, nil
			}
			db.Close()
		}
		log.Warn().Err(err).Msgf("Retry %d: failed to connect to DB", i+1)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB after retries: %w", err)
}

func openRepositories(cfg config.Config) (repositories, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		store := memstore.New()
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		return repositories{
			users:     store.Users(),
			products:  store.Products(),
			discounts: store.Discounts(),
			orders:    store.Orders(),
		}, func() {}, nil
	}

	db, err := connectDB(cfg)
	if err != nil {
		return repositories{}, nil, err
	}
	if err := migrations.AutoMigrate(cfg.Database.MigrateRetries, db); err != nil {
		db.Close()
		return repositories{}, nil, err
	}
	return repositories{
		users:     repository.NewUserRepository(db),
		products:  repository.NewProductRepository(db),
		discounts: repository.NewDiscountRepository(db),
		orders:    repository.NewOrderRepository(db),
	}, func() { db.Close() }, nil
}

func openCaches(ctx context.Context, cfg config.Config) (caches, func(), error) {
	if !cfg.Redis.Enabled {
		return caches{
			sessions:    memstore.NewSessionStore(),
			products:    memstore.NewProductCache(),
			idempotency: memstore.NewIdempotencyStore(),
		}, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return caches{}, nil, fmt.Errorf("redis ping: %w", err)
	}
	return caches{
		sessions:    cache.NewSessionStore(rdb),
		products:    cache.NewProductCache(rdb, cfg.Cache.ProductTTL),
		idempotency: cache.NewIdempotencyStore(rdb, cfg.Cache.IdempotencyTTL),
	}, func() { rdb.Close() }, nil
}

func main() {
	configDir := flag.String("config", envOr("SHOP_CONFIG_DIR", "configs"), "directory holding base.yaml and <env>.yaml")
	envName := flag.String("env", envOr("SHOP_ENV", "local"), "environment overlay to load")
	flag.Parse()

	cfg, err := config.Load(*configDir, *envName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	_, logCloser := logging.Init(logging.Options{
		Component:  cfg.App.Name,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("Service stopped with error")
		logCloser.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	repos, closeDB, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	stores, closeRedis, err := openCaches(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRedis()

	var publisher port.EventPublisher = producer.LogPublisher{}
	if cfg.Kafka.Enabled {
		writer := cfg.NewKafkaWriter()
		defer writer.Close()
		publisher = producer.NewKafkaPublisher(writer)

		reader := cfg.NewKafkaReader()
		defer reader.Close()
		go consumer.NewConsumer(reader, stores.products).Run(ctx)
	}

	tokens := service.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	svc := api.Services{
		Users:     service.NewUserService(repos.users, stores.sessions, tokens, cfg.Security.BcryptCost),
		Products:  service.NewProductService(repos.products, stores.products),
		Discounts: service.NewDiscountService(repos.discounts),
		Orders:    service.NewOrderService(repos.orders, stores.idempotency, publisher, stores.products),
		Tokens:    tokens,
	}

	e := api.NewRouter(cfg.App.Name, svc, api.RateLimit{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		ExpiresIn:         cfg.RateLimit.ExpiresIn,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("%s listening on %s", cfg.App.Name, cfg.App.HTTPAddr)
		if err := e.Start(cfg.App.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
