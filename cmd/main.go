package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"voice-transcript-hub/internal/app"
	"voice-transcript-hub/internal/config"
	"voice-transcript-hub/internal/export"
	"voice-transcript-hub/internal/hub"
	internalhttp "voice-transcript-hub/internal/http"
	"voice-transcript-hub/internal/observability"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Running without a .env file is the normal production case.
		log.Debug().Msg("No .env file found, using environment variables")
	}

	cfg := config.Load()
	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Application start failed")
	}

	// The hub owns all mutable relay state; everything else takes a
	// handle to it.
	dedup := hub.NewDeduplicator(cfg.Hub.DedupWindow)
	store := hub.NewStore(cfg.Hub.TranscriptCapacity, dedup)
	registry := hub.NewRegistry()
	h := hub.New(registry, store, cfg.Hub.SubscriberBuffer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := export.New(&export.Config{
		Enabled:          cfg.Kafka.Enabled,
		Brokers:          cfg.Kafka.Brokers,
		TopicTranscripts: cfg.Kafka.TopicTranscripts,
		TopicCalls:       cfg.Kafka.TopicCalls,
	})
	defer publisher.Close()
	go publisher.Run(ctx, h)

	obsServer := observability.NewServer(":" + cfg.Service.MetricsPort)
	obsServer.Start()

	server := &http.Server{
		Addr:        ":" + cfg.Service.HTTPPort,
		Handler:     internalhttp.NewRouter(h),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability server shutdown failed")
	}
	application.Shutdown()
}
