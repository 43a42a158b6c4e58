// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/estrellaangel/VolleyTech/internal/config"
)

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer app.Close()

	server := newServer(cfg, app)

	g, ctx := errgroup.WithContext(ctx)

	// Run server
	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		app.Close()
		os.Exit(1)
	}
}
