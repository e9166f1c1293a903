package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"freshbasket/docs" // swagger docs
	"freshbasket/internal/auth"
	"freshbasket/internal/cache"
	"freshbasket/internal/config"
	"freshbasket/internal/db"
	"freshbasket/internal/handler"
	"freshbasket/internal/logger"
	"freshbasket/internal/metrics"
	"freshbasket/internal/repository"
	"freshbasket/internal/router"
	"freshbasket/internal/service"
	"freshbasket/internal/session"
)

// @title FreshBasket Storefront API
// @version 1.0
// @description Storefront with a session cart, guest checkout, order receipts and catalog administration. Pages are served as JSON view-models.
// @host localhost:5000
// @BasePath /
// @schemes http
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{ServiceName: "freshbasket", Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx := context.Background()

	gormDB, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}

	if cfg.ResetDB {
		log.Warn(ctx, "RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			return err
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	// Redis backs sessions, the catalog cache and revoked tokens when configured.
	var (
		kv       cache.Store
		sessions session.Store
	)
	if cfg.RedisAddr != "" {
		client := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer client.Close()
		if err := client.Ping(ctx); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		kv = client
		sessions = session.NewRedisStore(client.Redis(), cfg.SessionTTL)
	} else {
		log.Warn(ctx, "REDIS_ADDR not set, keeping sessions in process memory")
		kv = cache.NewMemory()
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	m := metrics.New()

	// Initialize repositories
	productRepo := repository.NewProductRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.SessionTTL)
	tokenStore := auth.NewTokenStore(kv)

	// Initialize services
	catalogService := service.NewCatalogService(productRepo, kv, cfg.CatalogCacheTTL, log)
	cartService := service.NewCartService(productRepo, m, log)
	orderService := service.NewOrderService(orderRepo, sessions, m, log)
	adminService := service.NewAdminService(catalogService, orderService, cfg.LegacyAdminAccess)
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, log)
	customerService := service.NewCustomerService(userRepo, orderService, adminService)

	if n, err := catalogService.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	} else if n > 0 {
		log.Zerolog(ctx).Info().Int("count", n).Msg("seeded default catalog")
	}
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := authService.EnsureAdmin(ctx, "Admin", cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}
	if cfg.LegacyAdminAccess {
		log.Warn(ctx, "LEGACY_ADMIN_ACCESS=true: every logged-in visitor can use admin operations")
	}

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Register routes
	router.Register(e, router.Deps{
		Config:   cfg,
		Logger:   log,
		Metrics:  m,
		Sessions: sessions,
		Auth:     authService,
		Health: handler.NewHealthHandler(func(ctx context.Context) error {
			return db.Ping(ctx, gormDB)
		}, log),
		Shop: handler.NewShopHandler(catalogService, cartService, orderService),
		Accounts: handler.NewAuthHandler(authService, handler.CookieOptions{
			Name:   cfg.AuthCookie,
			TTL:    cfg.SessionTTL,
			Secure: cfg.IsProd(),
		}),
		Orders:    handler.NewOrderHandler(orderService),
		Admin:     handler.NewAdminHandler(adminService),
		Customers: handler.NewUserHandler(customerService),
	})

	addr := ":" + cfg.ServerPort
	errCh := make(chan error, 1)
	go func() {
		log.Zerolog(ctx).Info().Str("addr", addr).Str("health", cfg.HealthPath).Msg("server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server start: %w", err)
		}
		return nil
	case <-stop:
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	log.Info(ctx, "shutting down")
	return e.Shutdown(shutdownCtx)
}
