package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mcdev12/countdown/go/internal/admin"
	"github.com/mcdev12/countdown/go/internal/config"
	"github.com/mcdev12/countdown/go/internal/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const (
	serviceName = "countdown"
	version     = "1.0.0"
)

func setupServer(cfg config.Config, services *Services) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newHandler(cfg, services),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func newHandler(cfg config.Config, services *Services) http.Handler {
	mux := http.NewServeMux()

	registerServices(mux, services)
	setupHealthCheck(mux)
	setupInfo(mux, services)

	// Everything else is the site bundle
	mux.Handle("/", services.Static)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedHeaders: []string{"Content-Type", admin.HeaderName, middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	})

	handler := middleware.Chain(c.Handler(mux),
		middleware.RequestID,
		middleware.AccessLog,
		middleware.NoCache,
	)

	return h2c.NewHandler(handler, &http2.Server{})
}

func registerServices(mux *http.ServeMux, services *Services) {
	services.Countdown.RegisterRoutes(mux)
	services.Gateway.RegisterRoutes(mux)
	admin.RegisterRoutes(mux, services.Gate)
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

type infoResponse struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	Connections int    `json:"connections"`
	Admin       bool   `json:"admin"`
	Broker      bool   `json:"broker"`
}

func setupInfo(mux *http.ServeMux, services *Services) {
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(infoResponse{
			Service:     serviceName,
			Version:     version,
			Connections: services.Gateway.ConnectionCount(),
			Admin:       services.Gate.Enabled(),
			Broker:      services.Publisher != nil,
		}); err != nil {
			log.Error().Err(err).Msg("failed to write info response")
		}
	})
}
