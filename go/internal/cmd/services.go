package main

import (
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/countdown/go/internal/admin"
	"github.com/mcdev12/countdown/go/internal/broker"
	"github.com/mcdev12/countdown/go/internal/config"
	"github.com/mcdev12/countdown/go/internal/countdown"
	"github.com/mcdev12/countdown/go/internal/countdown/events"
	"github.com/mcdev12/countdown/go/internal/gateway"
	"github.com/mcdev12/countdown/go/internal/static"
	"github.com/rs/zerolog/log"
)

// Services holds everything the HTTP server routes to
type Services struct {
	Countdown *countdown.Service
	Gateway   *gateway.Service
	Gate      *admin.Gate
	Static    http.Handler
	Publisher *broker.NATSPublisher
}

func setupServices(cfg config.Config, clock clockwork.Clock) *Services {
	// Store → App → Service, with change events fanned out to the websocket
	// gateway and, when configured, NATS.

	connectionManager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	notifiers := events.Fanout{connectionManager}

	var publisher *broker.NATSPublisher
	if cfg.NATS.URL != "" {
		natsCfg := broker.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.SubjectPrefix = cfg.NATS.Subject

		p, err := broker.NewNATSPublisher(natsCfg)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NATS.URL).Msg("NATS unavailable, countdown events will not be published")
		} else {
			publisher = p
			notifiers = append(notifiers, publisher)
		}
	}

	repo := countdown.NewFileRepository(cfg.CountdownFile)
	app := countdown.NewApp(repo, clock, notifiers)
	// rejected admin requests answer exactly like a missing static file
	site := static.Handler(cfg.StaticDir)
	gate := admin.NewGate(cfg.AdminKey).WithNotFound(site)

	return &Services{
		Countdown: countdown.NewService(app, gate).WithNotFound(site),
		Gateway:   gateway.NewService(connectionManager, app, clock),
		Gate:      gate,
		Static:    site,
		Publisher: publisher,
	}
}

// Close releases external connections
func (s *Services) Close() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}
