package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/efreitasn/crossbook/internal/config"
	"github.com/efreitasn/crossbook/internal/domain"
	"github.com/efreitasn/crossbook/internal/engine"
	"github.com/efreitasn/crossbook/internal/handler"
	"github.com/efreitasn/crossbook/internal/service"
	"github.com/efreitasn/crossbook/internal/settle"
	"github.com/efreitasn/crossbook/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scale := domain.PriceScale(cfg.PriceScale)

	// Settlement sink.
	sink, err := settle.Open(ctx, settle.Options{
		Kind:         cfg.Settlement.Sink,
		Scale:        scale,
		JournalDir:   cfg.Settlement.JournalDir,
		KafkaBrokers: cfg.Settlement.KafkaBrokers,
		KafkaTopic:   cfg.Settlement.KafkaTopic,
		DatabaseURL:  cfg.Settlement.DatabaseURL,
		WebhookURL:   cfg.Settlement.WebhookURL,
		Timeout:      cfg.Settlement.Timeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open settlement sink", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Services.
	tradeStore := store.NewTradeStore(cfg.TradeHistory)
	books := service.NewBookService()
	clearing := service.NewClearingService(books, tradeStore, sink, cfg.Settlement.Timeout, logger)

	// Router.
	router := handler.NewRouter(books, clearing, scale, logger)

	// Start the match scheduler; it stops when ctx is cancelled.
	scheduler := engine.NewMatchScheduler(cfg.MatchInterval, clearing, logger)
	scheduler.Start(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.Int("price_scale", cfg.PriceScale),
			slog.Duration("match_interval", cfg.MatchInterval),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops the
	// scheduler), then close the sink.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	if err := sink.Close(); err != nil {
		logger.Error("settlement sink close error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
