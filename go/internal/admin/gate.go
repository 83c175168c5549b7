package admin

import (
	"crypto/subtle"
	"net/http"

	"github.com/rs/zerolog/log"
)

const (
	// QueryParam is the query string key carrying the admin secret.
	QueryParam = "key"
	// HeaderName is the request header carrying the admin secret.
	HeaderName = "x-admin-key"
)

// Gate checks a presented secret against the configured admin key. A gate
// without a secret rejects everything.
type Gate struct {
	secret   []byte
	notFound http.Handler
}

// NewGate creates a gate for secret. An empty secret closes the gate.
func NewGate(secret string) *Gate {
	if secret == "" {
		log.Warn().Msg("ADMIN_KEY not set, admin endpoints are disabled")
		return &Gate{}
	}
	return &Gate{secret: []byte(secret)}
}

// WithNotFound makes rejections answer through h, which should be the
// handler that serves unknown routes. Defaults to http.NotFound.
func (g *Gate) WithNotFound(h http.Handler) *Gate {
	g.notFound = h
	return g
}

// Reject answers r as if the route did not exist.
func (g *Gate) Reject(w http.ResponseWriter, r *http.Request) {
	if g == nil || g.notFound == nil {
		http.NotFound(w, r)
		return
	}
	g.notFound.ServeHTTP(w, r)
}

// Enabled reports whether a secret is configured.
func (g *Gate) Enabled() bool {
	return g != nil && len(g.secret) > 0
}

// Authorize reports whether candidate matches the configured secret.
func (g *Gate) Authorize(candidate string) bool {
	if !g.Enabled() || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), g.secret) == 1
}

// AuthorizeRequest authorizes r using the key query parameter, falling back
// to the x-admin-key header.
func (g *Gate) AuthorizeRequest(r *http.Request) bool {
	return g.Authorize(CandidateFromRequest(r))
}

// CandidateFromRequest extracts the presented secret from r.
func CandidateFromRequest(r *http.Request) string {
	if key := r.URL.Query().Get(QueryParam); key != "" {
		return key
	}
	return r.Header.Get(HeaderName)
}

// Require wraps next so that unauthorized requests get the same 404 as an
// unknown route.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.AuthorizeRequest(r) {
			log.Debug().Str("path", r.URL.Path).Msg("admin gate rejected request")
			g.Reject(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
