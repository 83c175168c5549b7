package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/countdown/go/internal/countdown/events"
	"github.com/rs/zerolog/log"
)

// StateProvider supplies the current countdown end for the sync message a
// client receives when it connects.
type StateProvider interface {
	GetOrInit(ctx context.Context) (int64, error)
}

// Service pushes countdown changes to WebSocket clients
type Service struct {
	connectionManager *ConnectionManager
	stateProvider     StateProvider
	clock             clockwork.Clock
}

// NewService creates a new gateway service over an existing connection
// manager. The manager is usually created first so it can be handed to the
// countdown app as a notifier.
func NewService(cm *ConnectionManager, stateProvider StateProvider, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		connectionManager: cm,
		stateProvider:     stateProvider,
		clock:             clock,
	}
}

// Start runs the broadcast loop until ctx is cancelled
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting countdown gateway")
	s.connectionManager.Start(ctx)
	log.Info().Msg("countdown gateway stopped")
}

// HandleCountdownConnection upgrades the request and sends the current
// countdown as a CountdownSync event.
func (s *Service) HandleCountdownConnection(w http.ResponseWriter, r *http.Request) {
	end, err := s.stateProvider.GetOrInit(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load countdown for websocket sync")
		http.Error(w, "failed to load countdown", http.StatusInternalServerError)
		return
	}

	// re-read once registered; a change made since the first read would
	// otherwise be broadcast before this client could receive it
	snapshot := func() []byte {
		if latest, err := s.stateProvider.GetOrInit(r.Context()); err == nil {
			end = latest
		} else {
			log.Warn().Err(err).Msg("failed to refresh countdown for websocket sync")
		}
		data, err := json.Marshal(events.NewCountdownEvent(events.EventTypeCountdownSync, end, s.clock.Now()))
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal sync event")
			return nil
		}
		return data
	}

	if _, err := s.connectionManager.UpgradeConnection(w, r, snapshot); err != nil {
		// the upgrader has already written an HTTP error response
		log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
	}
}

// StatsResponse is returned by the stats endpoint
type StatsResponse struct {
	TotalConnections int `json:"total_connections"`
}

// HandleConnectionStats returns statistics about active connections
func (s *Service) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(StatsResponse{TotalConnections: s.ConnectionCount()}); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// ConnectionCount returns the number of connected clients
func (s *Service) ConnectionCount() int {
	return s.connectionManager.ConnectionCount()
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/countdown", s.HandleCountdownConnection)
	mux.HandleFunc("/ws/stats", s.HandleConnectionStats)
	log.Info().Msg("countdown gateway routes registered")
}
