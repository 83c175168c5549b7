package countdown

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mcdev12/countdown/go/internal/models"
	"github.com/rs/zerolog/log"
)

const maxMutationBodyBytes = 4 << 10

// RequestAuthorizer decides whether a request may mutate the countdown.
type RequestAuthorizer interface {
	AuthorizeRequest(r *http.Request) bool
}

// Service exposes the countdown App over HTTP
type Service struct {
	app      *App
	gate     RequestAuthorizer
	notFound http.Handler
}

// NewService creates a new countdown HTTP service. A nil gate rejects every write.
func NewService(app *App, gate RequestAuthorizer) *Service {
	return &Service{
		app:      app,
		gate:     gate,
		notFound: http.NotFoundHandler(),
	}
}

// WithNotFound sets the handler that answers rejected writes. It should be
// the handler serving unknown routes so a rejection cannot be told apart.
func (s *Service) WithNotFound(h http.Handler) *Service {
	if h != nil {
		s.notFound = h
	}
	return s
}

// HandleCountdown handles GET and POST /api/countdown
func (s *Service) HandleCountdown(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.handleGet(w, r)
	case http.MethodPost:
		if s.gate == nil || !s.gate.AuthorizeRequest(r) {
			s.notFound.ServeHTTP(w, r)
			return
		}
		s.handlePost(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method Not Allowed"})
	}
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	end, err := s.app.GetOrInit(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to get countdown")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: errMsgPersistFailed})
		return
	}
	writeJSON(w, http.StatusOK, models.CountdownRecord{EndTimestamp: end})
}

func (s *Service) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMutationBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: errMsgInvalidJSON})
		return
	}

	req, err := ParseMutationRequest(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: errMsgInvalidJSON})
		return
	}

	var end int64
	switch req.Kind {
	case MutationReset:
		end, err = s.app.Reset(r.Context())
	case MutationSetAbsolute:
		end, err = s.app.SetAbsolute(r.Context(), req.EndTimestamp)
	default:
		end, err = s.app.GetOrInit(r.Context())
	}

	if err != nil {
		if errors.Is(err, ErrNotInFuture) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: errMsgNotInFuture})
			return
		}
		log.Error().Err(err).Str("mutation", req.Kind.String()).Msg("countdown mutation failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: errMsgPersistFailed})
		return
	}

	log.Info().
		Str("mutation", req.Kind.String()).
		Int64("end_timestamp", end).
		Msg("countdown mutation applied")
	writeJSON(w, http.StatusOK, models.CountdownRecord{EndTimestamp: end})
}

// RegisterRoutes registers the countdown API routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/countdown", s.HandleCountdown)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode countdown response")
	}
}
