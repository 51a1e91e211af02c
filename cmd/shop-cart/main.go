package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/logger"
	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/sequence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: config.ServiceName,
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	if err := run(cfg, log); err != nil {
		log.Error("fatal error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, log); err != nil {
			return err
		}
	}

	products := catalog.NewRepository(pool, cfg.MediaURL)
	store := cart.NewPostgresStore(pool)

	// --- AMQP ---
	var publisher cart.EventPublisher = cart.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		conn, err := events.Dial(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		pub, err := events.NewPublisher(conn, sequence.NewRepository(pool), events.PublisherOptions{
			Producer:      config.ServiceName,
			CorrelationID: middleware.GetCorrelationID,
		})
		if err != nil {
			return err
		}
		defer pub.Close()
		publisher = pub
	} else {
		log.Info("RABBITMQ_URL not set; cart events disabled")
	}

	// --- Redis ---
	var limiter redis.Cmdable
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable; rate limiting fails open", "addr", cfg.RedisAddr, "error", err)
		}
		limiter = rdb
	}

	svc := cart.NewService(store, products, publisher, log)

	// --- HTTP ---
	h := httpapi.NewCartHandler(svc, cfg.RequestTimeout, log)
	r := httpapi.NewRouter(h, httpapi.RouterConfig{
		Logger: log,
		Auth: middleware.AuthOptions{
			Secret:          []byte(cfg.JWTSecret),
			TrustUserHeader: cfg.TrustUserHeader,
		},
		CORSAllowOrigins:   cfg.CORSAllowOrigins,
		Redis:              limiter,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	return serveErr
}
