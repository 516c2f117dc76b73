// cmd/agiletrack/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dangerclosesec/agiletrack/internal/auth"
	"github.com/dangerclosesec/agiletrack/internal/database"
	"github.com/dangerclosesec/agiletrack/internal/email"
	"github.com/dangerclosesec/agiletrack/internal/handler"
	"github.com/dangerclosesec/agiletrack/internal/service"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if migrate {
					if err := database.Migrate(ctx, a.db, a.cfg.Database.SearchPath); err != nil {
						return err
					}
				}
				return serve(ctx, a)
			})
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run migrations before serving")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg

	cacheService, err := service.NewCacheService(ctx, service.CacheConfig{
		TTL:           cfg.Cache.TTL,
		CleanupFreq:   cfg.Cache.CleanupFreq,
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("setting up cache: %w", err)
	}
	defer cacheService.Close()

	var notifier service.Notifier = service.NewLogNotifier(a.logger)
	if cfg.Sendgrid.APIKey != "" {
		emailService, err := email.NewEmailService(cfg.Sendgrid)
		if err != nil {
			return fmt.Errorf("setting up email: %w", err)
		}
		notifier = service.NewEmailNotifier(emailService, cfg.BaseURL, a.logger)
	}

	router := handler.NewRouter(handler.RouterConfig{
		Services:       service.NewServices(a.db, cacheService, notifier, a.logger),
		TokenManager:   auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryPeriod),
		Logger:         a.logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", "port", cfg.Server.Port, "driver", cfg.Database.Driver)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		a.logger.Info("shutdown started", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
