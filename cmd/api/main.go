package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diamond-storefront/internal/config"
	"diamond-storefront/internal/db"
	"diamond-storefront/internal/httpserver"
	cartrepo "diamond-storefront/internal/repository/cart"
	sessionrepo "diamond-storefront/internal/repository/session"
	cartsvc "diamond-storefront/internal/service/cart"
	checkoutsvc "diamond-storefront/internal/service/checkout"
	provisionsvc "diamond-storefront/internal/service/provision"
	"diamond-storefront/internal/shopify"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()

	store, ping, closeStore, err := buildCartStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("init cart store: %v", err)
	}
	defer closeStore()

	admin := shopify.NewAdmin(cfg.AdminAPIEndpoint, cfg.AdminAPIToken, 10*time.Second, logger)
	storefront := shopify.NewStorefront(cfg.StorefrontAPIEndpoint, cfg.StorefrontAPIToken, 10*time.Second, logger)

	provisioner := provisionsvc.New(admin, logger)
	cartService := cartsvc.New(store, provisioner, logger)
	checkoutService := checkoutsvc.New(checkoutsvc.Deps{
		Store:            store,
		Provisioner:      provisioner,
		Storefront:       storefront,
		Admin:            admin,
		Sessions:         sessionrepo.NewMemory(sessionrepo.DefaultTTL),
		DepositProductID: cfg.DepositProductID,
		Logger:           logger,
	})

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		CartSvc:     cartService,
		CheckoutSvc: checkoutService,
		Ping:        ping,
	}, cfg.AllowedOrigins)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s (cart backend: %s)", cfg.HTTPAddr, cfg.CartBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

// buildCartStore selects the cart backend. The in-memory store needs no
// readiness probe; redis and postgres expose their ping.
func buildCartStore(ctx context.Context, cfg config.Config) (cartrepo.Store, func(context.Context) error, func(), error) {
	switch cfg.CartBackend {
	case "memory":
		return cartrepo.NewMemory(cfg.CartTTL), nil, func() {}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		if err := ping(ctx); err != nil {
			return nil, nil, nil, err
		}
		return cartrepo.NewRedis(client, cfg.CartTTL), ping, func() { _ = client.Close() }, nil

	case "postgres":
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, nil, err
		}
		return cartrepo.NewPostgres(pool, cfg.CartTTL), pool.Ping, pool.Close, nil

	default:
		return nil, nil, nil, errors.New("unknown CART_BACKEND: " + cfg.CartBackend)
	}
}
