package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/countdown/go/internal/countdown/events"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Config holds NATS connection settings
type Config struct {
	URL           string
	SubjectPrefix string
	ClientName    string
	MaxReconnects int
	ReconnectWait time.Duration
	ConnectWait   time.Duration
}

// DefaultConfig returns the publisher defaults. URL is left empty, which
// disables publishing.
func DefaultConfig() Config {
	return Config{
		SubjectPrefix: "countdown.events",
		ClientName:    "countdown-server",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
		ConnectWait:   5 * time.Second,
	}
}

// Conn is the subset of *nats.Conn the publisher uses
type Conn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher forwards countdown events to NATS subjects
type NATSPublisher struct {
	conn          Conn
	nc            *nats.Conn
	subjectPrefix string
}

// Envelope is the message body published for each countdown event
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewNATSPublisher connects to cfg.URL and returns a publisher over it.
func NewNATSPublisher(cfg Config) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.Timeout(cfg.ConnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Info().
		Str("url", nc.ConnectedUrl()).
		Str("subject_prefix", cfg.SubjectPrefix).
		Msg("connected to NATS")

	p := NewPublisherWithConn(nc, cfg.SubjectPrefix)
	p.nc = nc
	return p, nil
}

// NewPublisherWithConn builds a publisher over an existing connection.
func NewPublisherWithConn(conn Conn, subjectPrefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subjectPrefix: subjectPrefix}
}

// Subject returns the subject an event of eventType is published on.
func Subject(prefix string, eventType events.EventType) string {
	if prefix == "" {
		return string(eventType)
	}
	return prefix + "." + string(eventType)
}

// Publish sends event and returns any marshal or publish error.
func (p *NATSPublisher) Publish(ctx context.Context, event *events.CountdownEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(Envelope{
		EventID:   event.ID,
		EventType: string(event.Type),
		Timestamp: event.Timestamp,
		Payload:   event.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := Subject(p.subjectPrefix, event.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_id", event.ID).
		Int("size", len(data)).
		Msg("published countdown event")
	return nil
}

// Notify implements events.Notifier. Failures are logged and never returned.
func (p *NATSPublisher) Notify(ctx context.Context, event *events.CountdownEvent) {
	if err := p.Publish(ctx, event); err != nil {
		log.Error().
			Err(err).
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Msg("failed to publish countdown event")
	}
}

// Close drains and closes the underlying connection, if this publisher owns one.
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		log.Warn().Err(err).Msg("NATS drain failed, closing")
		p.nc.Close()
	}
}
