package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/cartour/cartour-rentals/internal/booking"
	"github.com/cartour/cartour-rentals/internal/cache"
	"github.com/cartour/cartour-rentals/internal/http/handlers"
	"github.com/cartour/cartour-rentals/internal/notify"
	"github.com/cartour/cartour-rentals/internal/repo/postgres"
	"github.com/cartour/cartour-rentals/internal/wizard"
	"github.com/cartour/cartour-rentals/pkg/config"
	"github.com/cartour/cartour-rentals/pkg/database"
	"github.com/cartour/cartour-rentals/pkg/events"
	"github.com/cartour/cartour-rentals/pkg/logger"
	"github.com/cartour/cartour-rentals/pkg/mailer"
	mw "github.com/cartour/cartour-rentals/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Local fallback store
	fallback, err := cache.NewRedisFallback(cfg.Redis)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer fallback.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Confirmation notifier
	var mail mailer.Service
	if cfg.Email.DevMode || cfg.Email.MailerSendKey == "" {
		mail = mailer.DevMailer{}
	} else {
		mail = mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}
	if err := notify.New(mail).Register(eventBus); err != nil {
		logger.Error("Failed to subscribe notifier", "error", err)
		os.Exit(1)
	}

	// Wire the booking workflow
	bookingRepo := postgres.NewBookingRepo(pool)
	submitter := booking.NewSubmitter(bookingRepo, fallback, eventBus, cfg.Booking.Source)

	wizardCfg := wizard.Config{
		LocationMismatch: wizard.LocationPolicy(cfg.Booking.LocationMismatch),
	}
	h := handlers.New(submitter, bookingRepo, fallback, wizardCfg)

	// Setup router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("storefront"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h.Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down storefront...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Storefront shutdown error", "error", err)
		}
	}()

	logger.Info("Starting storefront", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Storefront error", "error", err)
		os.Exit(1)
	}
}
