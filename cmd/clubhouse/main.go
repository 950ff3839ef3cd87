// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the club site. The serve command
// loads configuration, connects to services, sets up routing and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clubhouse/internal/auth"
	"clubhouse/internal/authz"
	"clubhouse/internal/cache"
	"clubhouse/internal/config"
	"clubhouse/internal/content"
	"clubhouse/internal/database"
	"clubhouse/internal/handlers"
	"clubhouse/internal/identity"
	"clubhouse/internal/jobs"
	"clubhouse/internal/logging"
	"clubhouse/internal/metrics"
	"clubhouse/internal/middleware"
	"clubhouse/internal/render"
	"clubhouse/internal/router"
	"clubhouse/internal/session"
	"clubhouse/internal/storage"
	"clubhouse/internal/store"
	"clubhouse/web"
)

const (
	dbConnectAttempts = 10
	housekeepingLimit = time.Minute
	shutdownTimeout   = 30 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "clubhouse",
		Short:         "Football club website and admin area",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newPromoteCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and background jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func newMigrateCommand() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := database.Connect(cmd.Context(), cfg.DSN(), dbConnectAttempts)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}
			if seed {
				if err := database.Seed(cmd.Context(), db); err != nil {
					return err
				}
			}
			logger.Info("migrations applied", "seeded", seed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "Insert development data when the tables are empty")
	return cmd
}

func newPromoteCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Make an existing account an approved admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := database.Connect(cmd.Context(), cfg.DSN(), dbConnectAttempts)
			if err != nil {
				return err
			}
			defer db.Close()

			p, err := store.NewProfileStore(db).Promote(cmd.Context(), email)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no account with email %q", email)
			}
			if err != nil {
				return err
			}
			logger.Info("account promoted", "user_id", p.ID, "email", p.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address of the account")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// bootstrap loads configuration and installs the process logger.
func bootstrap() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	logger := logging.Setup(cfg.LogLevel, !cfg.IsDev())
	logger.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())
	return cfg, logger, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// A misconfigured section table must stop startup, not hide admin links.
	if err := authz.Validate(); err != nil {
		return err
	}

	db, err := database.Connect(ctx, cfg.DSN(), dbConnectAttempts)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}
	if cfg.IsDev() {
		if err := database.Seed(ctx, db); err != nil {
			return err
		}
	}

	valkey, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		return err
	}
	defer valkey.Close()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}
	secure := !cfg.IsDev()

	// Data stores.
	profileStore := store.NewProfileStore(db)
	settingStore := store.NewSiteSettingStore(db)
	cacheLogStore := store.NewCacheLogStore(db)
	identities := identity.New(db, valkey, cfg.RequireConfirmation)
	sessions := session.NewStore(valkey, cfg.SessionTTL, secure)

	// Session lifecycle.
	notifier := auth.NewNotifier()
	notifier.Subscribe(auth.AuditLog(logger))
	controller := auth.NewController(identities, profileStore, sessions,
		auth.WithLogger(logger),
		auth.WithMetrics(m),
		auth.WithNotifier(notifier),
		auth.WithProfileCache(0, cfg.ProfileCacheTTL),
	)

	queryCache := cache.NewQueryCache(valkey, cfg.QueryCacheTTL, m)
	svc := content.NewService(db, profileStore,
		content.WithCache(queryCache),
		content.WithCacheLog(cacheLogStore),
		content.WithMetrics(m),
		content.WithLogger(logger),
	)

	var storageClient *storage.Client
	if cfg.StorageEnabled() {
		storageClient, err = storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
		if err != nil {
			return err
		}
		logger.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		logger.Warn("s3 storage not configured, photo uploads disabled")
	}

	renderer, err := render.New(cfg.IsDev(), cfg.SiteName)
	if err != nil {
		return err
	}

	public := handlers.NewPublic(renderer, svc, settingStore, store.NewFeatureToggleStore(db), store.NewPollStore(db), queryCache)
	renderer.SetGlobals(public.Globals)

	authLimit, err := middleware.NewRateLimiter(valkey, "auth", cfg.AuthRateLimit, time.Minute)
	if err != nil {
		return err
	}
	formLimit, err := middleware.NewRateLimiter(valkey, "forms", cfg.FormRateLimit, time.Minute)
	if err != nil {
		return err
	}

	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		return err
	}

	r := router.New(router.Deps{
		Sessions:       controller,
		Gate:           middleware.NewGate(renderer, m),
		Renderer:       renderer,
		Auth:           handlers.NewAuth(renderer, controller, identities, sessions),
		Admin:          handlers.NewAdmin(renderer, svc, cacheLogStore, profileStore, storageClient),
		Users:          handlers.NewUsers(renderer, svc, profileStore, identities, controller),
		Settings:       handlers.NewSettings(renderer, svc, settingStore, svc),
		Public:         public,
		AuthLimit:      authLimit,
		FormLimit:      formLimit,
		Metrics:        m,
		ServeMetrics:   cfg.MetricsEnabled,
		Static:         static,
		Secure:         secure,
		TrustedProxies: cfg.TrustedProxies,
	})

	scheduler := jobs.NewScheduler(logger)
	housekeeping := jobs.NewHousekeeping(store.NewHousekeepingStore(db), svc, m, logger)
	if err := scheduler.Add("housekeeping", cfg.HousekeepingSchedule, housekeepingLimit, housekeeping.Run); err != nil {
		return err
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		scheduler.Stop(context.Background())
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	// Give active requests time to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
