package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/chandruydv805026/my-web/internal/auth"
	"github.com/chandruydv805026/my-web/internal/config"
	httpdelivery "github.com/chandruydv805026/my-web/internal/delivery/http"
	"github.com/chandruydv805026/my-web/internal/geocode"
	"github.com/chandruydv805026/my-web/internal/messaging/broker"
	"github.com/chandruydv805026/my-web/internal/notify"
	"github.com/chandruydv805026/my-web/internal/repository"
	"github.com/chandruydv805026/my-web/internal/repository/memory"
	"github.com/chandruydv805026/my-web/internal/repository/mongo"
	"github.com/chandruydv805026/my-web/internal/repository/postgres"
	redisstore "github.com/chandruydv805026/my-web/internal/repository/redis"
	"github.com/chandruydv805026/my-web/internal/service"
	"github.com/chandruydv805026/my-web/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}
	setupLogger(cfg.Log)

	if err := run(cfg); err != nil {
		slog.Error("Server stopped", "err", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	_ = level.UnmarshalText([]byte(cfg.Level))
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func run(cfg *config.Config) error {
	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(cfg.Telemetry, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer shutdownWithin(5*time.Second, "tracer", shutdownTracing)

	// --- Storage ---
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer shutdownWithin(5*time.Second, "store", store.Close)

	otps, subs, closeRedis, err := openEphemeral(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeRedis()

	// --- Messaging ---
	bus, err := broker.New(broker.Config{
		Brokers:       cfg.Broker.KafkaBrokers,
		ConsumerGroup: cfg.Broker.ConsumerGroup,
		ClientID:      cfg.Telemetry.ServiceName,
	}, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to start broker: %w", err)
	}
	defer bus.Close()

	// --- Notifications ---
	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.Mail.ResendAPIKey != "" {
		mailer = notify.NewResendMailer(cfg.Mail.ResendAPIKey, cfg.Mail.From)
	} else {
		slog.Warn("RESEND_API_KEY not set, emails are only logged")
	}
	pusher := notify.NewWebPush(subs, notify.VAPIDConfig{
		PublicKey:  cfg.Push.VAPIDPublicKey,
		PrivateKey: cfg.Push.VAPIDPrivateKey,
		Subject:    cfg.Push.VAPIDSubject,
	}, nil)
	notify.NewDispatcher(mailer, pusher, cfg.Mail.OperatorEmail).Register(bus)

	// --- Services ---
	reconciler := service.NewReconciler(store.Products)
	catalog := service.NewCatalogService(store.Products, store.Banners)
	if err := seedCatalog(ctx, catalog, cfg.Catalog.SeedFile); err != nil {
		return err
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	handler := httpdelivery.NewHandler(httpdelivery.Services{
		Auth: service.NewAuthService(store.Users, store.Carts, otps, mailer, tokens, service.OTPPolicy{
			TTL:         cfg.Auth.OTPTTL,
			MaxAttempts: cfg.Auth.OTPMaxAttempts,
		}),
		Carts:    service.NewCartService(store.Carts, store.Products, reconciler),
		Orders:   service.NewOrderService(store, reconciler, bus),
		Catalog:  catalog,
		Geocoder: geocode.NewClient(geocode.Config(cfg.Geocoder)),
		Push:     pusher,
	}, httpdelivery.Options{
		AdminPassword:  cfg.Auth.AdminPassword,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		VAPIDPublicKey: cfg.Push.VAPIDPublicKey,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      otelhttp.NewHandler(handler.Routes(), "grocery-api"),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Event consumers starting")
		return bus.Run(gctx)
	})
	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.StoreConfig) (*repository.Store, error) {
	switch cfg.Driver {
	case "postgres":
		store, err := postgres.NewStore(ctx, cfg.DatabaseURL, cfg.CartIdleTTL, cfg.OrderRetention)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		slog.Info("Using postgres store")
		return store, nil
	case "mongo":
		store, err := mongo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB, cfg.CartIdleTTL, cfg.OrderRetention)
		if err != nil {
			return nil, fmt.Errorf("failed to open mongo store: %w", err)
		}
		slog.Info("Using mongo store", "db", cfg.MongoDB)
		return store, nil
	default:
		slog.Warn("Using in-memory store, data is lost on restart")
		return memory.NewStore(cfg.CartIdleTTL, memory.WithOrderRetention(cfg.OrderRetention)), nil
	}
}

// openEphemeral returns the OTP and push subscription stores, backed by Redis
// when REDIS_URL is set.
func openEphemeral(ctx context.Context, cfg config.RedisConfig) (repository.OTPStore, repository.SubscriptionStore, func(), error) {
	if cfg.URL == "" {
		return memory.NewOTPStore(), memory.NewSubscriptionStore(), func() {}, nil
	}

	client, err := redisstore.Connect(ctx, cfg.URL)
	if err != nil {
		return nil, nil, nil, err
	}
	slog.Info("Connected to redis", "addr", client.Options().Addr)

	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.Error("Failed to close redis client", "err", err)
		}
	}
	return redisstore.NewOTPStore(client), redisstore.NewSubscriptionStore(client), closeFn, nil
}

func seedCatalog(ctx context.Context, catalog *service.CatalogService, path string) error {
	products := repository.DefaultProducts()
	if path != "" {
		loaded, err := repository.LoadSeedProducts(path)
		if err != nil {
			return err
		}
		products = loaded
	}
	if err := catalog.Seed(ctx, products); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	return nil
}

func shutdownWithin(d time.Duration, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := fn(ctx); err != nil {
		slog.Error("Shutdown failed", "component", name, "err", err)
	}
}
