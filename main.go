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

	"github.com/sirupsen/logrus"

	"food-delivery/api"
	"food-delivery/bot"
	"food-delivery/config"
	"food-delivery/db"
	"food-delivery/filestore"
	"food-delivery/logger"
	"food-delivery/metrics"
	"food-delivery/services"
)

const usage = `usage: food-delivery [serve|migrate|reset-daily]

  serve        run the HTTP API (default)
  migrate      apply the embedded PostgreSQL migrations
  reset-daily  zero every courier's daily km once`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		err = runServe(ctx, cfg, log)
	case "migrate":
		err = runMigrate(ctx, cfg, log)
	case "reset-daily":
		err = runResetDaily(ctx, cfg, log)
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.WithError(err).WithField("command", cmd).Error("command failed")
		os.Exit(1)
	}
}

// openStore returns the configured store and a health probe for /healthz.
func openStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (services.Store, func(context.Context) error, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		st, err := db.Open(ctx, cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("db: %w", err)
		}
		// Optional auto-migration, useful for fresh databases.
		if v := strings.TrimSpace(os.Getenv("AUTO_MIGRATE")); v == "1" || strings.EqualFold(v, "true") {
			if err := applyMigrations(ctx, st, log); err != nil {
				st.Close()
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
		}
		log.WithField("host", cfg.DB.Host).Info("using postgres store")
		return st, st.Ping, nil
	default:
		st, err := filestore.Open(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("filestore: %w", err)
		}
		log.WithField("dir", cfg.Storage.DataDir).Info("using file store")
		return st, nil, nil
	}
}

func runServe(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	store, health, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	auth, err := services.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("JWT_SECRET: %w", err)
	}
	if cfg.Auth.AdminPassword == "" {
		log.Warn("ADMIN_PASSWORD not set, admin login disabled")
	}

	svc := services.New(store, cfg.Delivery, log)
	hub := api.NewHub(log)
	notifiers := services.Notifiers{hub, metrics.Orders{}}
	if cfg.Telegram.Token != "" {
		b, err := bot.New(cfg.Telegram.Token, cfg.Telegram.AdminChatID, store, log)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, b)
		go b.Start(ctx)
	}
	svc.SetNotifier(notifiers)

	sched, err := newScheduler(cfg.Cron, svc, log)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	server := api.NewServer(svc, auth, hub, log, api.Options{
		AdminPassword: cfg.Auth.AdminPassword,
		RateLimitRPS:  float64(cfg.HTTP.RateLimitRPS),
		RateBurst:     cfg.HTTP.RateBurst,
		Health:        health,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTP.Addr).Info("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runMigrate(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) error {
	if cfg.Storage.Driver != config.StoragePostgres {
		log.Info("file storage needs no migrations")
		return nil
	}
	st, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer st.Close()
	return applyMigrations(ctx, st, log)
}

func runResetDaily(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) error {
	store, _, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = services.New(store, cfg.Delivery, log).ResetDailyKm(ctx)
	return err
}
