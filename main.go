package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"hotel-booking-server/config"
	"hotel-booking-server/logger"
	"hotel-booking-server/reservation"
	"hotel-booking-server/routes"
	"hotel-booking-server/storage"
	"hotel-booking-server/utils"

	"github.com/kataras/iris/v12"
	requestLogger "github.com/kataras/iris/v12/middleware/logger"
)

const (
	shutdownTimeout = 20 * time.Second
	evictEvery      = time.Minute
	evictIdle       = 3 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	store, err := storage.Open(context.Background(), cfg.Store, log)
	if err != nil {
		log.Error("opening store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	engine := reservation.New(store,
		reservation.WithTimeout(cfg.RequestTimeout),
		reservation.WithLogger(log),
	)

	var notifier utils.Notifier = utils.NopNotifier{}
	if cfg.MailjetEnabled() {
		notifier = utils.NewMailjetNotifier(cfg.MailjetAPIKey, cfg.MailjetSecretKey, cfg.NotifyEmailFrom, cfg.NotifyEmailTo)
	} else {
		log.Info("mailjet keys not set, booking notifications disabled")
	}

	var verifier *utils.Verifier
	switch {
	case cfg.JWKSURL != "":
		verifier, err = utils.NewJWKSVerifier(cfg.JWKSURL, log)
		if err != nil {
			log.Error("loading JWKS", "error", err)
			os.Exit(1)
		}
		defer verifier.Close()
	case cfg.AccessTokenSecret != "":
		verifier = utils.NewHMACVerifier(cfg.AccessTokenSecret)
	default:
		log.Warn("no token secret or JWKS configured, booking routes are unauthenticated")
	}

	limiter := utils.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go func() {
		for range time.Tick(evictEvery) {
			limiter.Evict(evictIdle)
		}
	}()

	retry := reservation.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.BookingMaxRetries + 1

	app := routes.NewApp(&routes.Handler{
		Engine:   engine,
		Store:    store,
		Notifier: notifier,
		Log:      log,
		Retry:    retry,
	}, routes.AppOptions{
		Verifier:     verifier,
		RateLimiter:  limiter,
		AdminKeyHash: cfg.AdminKeyHash,
	})
	app.Logger().SetLevel(cfg.LogLevel)
	app.UseRouter(requestLogger.New())

	iris.RegisterOnInterrupt(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down server")
		app.Shutdown(ctx)
	})

	log.Info("starting server", "port", cfg.Port, "backend", cfg.Store.Backend)
	if err := app.Listen(":"+cfg.Port, iris.WithoutInterruptHandler); err != nil && !errors.Is(err, iris.ErrServerClosed) {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
