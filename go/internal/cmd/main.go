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
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/countdown/go/internal/config"
	"github.com/mcdev12/countdown/go/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	log.Info().
		Str("port", cfg.Port).
		Str("countdown_file", cfg.CountdownFile).
		Str("static_dir", cfg.StaticDir).
		Bool("admin_enabled", cfg.AdminEnabled()).
		Bool("nats_enabled", cfg.NATS.URL != "").
		Msg("starting countdown server")

	services := setupServices(cfg, clockwork.NewRealClock())
	defer services.Close()

	server := setupServer(cfg, services)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gatewayDone := make(chan struct{})
	go func() {
		services.Gateway.Start(ctx)
		close(gatewayDone)
	}()

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server failed")
		exitCode = 1
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Stop the gateway; it closes hijacked websocket connections
	cancel()
	<-gatewayDone

	log.Info().Msg("countdown server shutdown complete")
	return exitCode
}
