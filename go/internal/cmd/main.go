package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	e, err := loadEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid environment")
	}
	setupLogging(e)

	cfg, err := loadConfig(e.ConfigPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", e.ConfigPath).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := setupServices(ctx, e, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}
	defer func() {
		if err := services.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close services")
		}
	}()

	server := setupServer(e.Port, services.Gateway)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return services.Orchestrator.Run(gctx) })
	g.Go(func() error { return services.Gateway.Start(gctx) })
	if services.Bot != nil {
		g.Go(func() error { return services.Bot.Start(gctx) })
	}
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	log.Info().Str("store", e.StoreDriver).Msg("auction house started")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("auction house stopped with error")
		return
	}
	log.Info().Msg("auction house stopped")
}

func setupLogging(e Env) {
	if e.LogFormat != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(e.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
